// Package render provides page rasterization via ImageMagick and HTML
// rendering via headless Chrome.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
	"golang.org/x/sync/errgroup"
)

// Rasterizer renders PDF pages to image files using ImageMagick, fanning
// page renders out across a bounded worker group.
type Rasterizer struct {
	logger *slog.Logger
}

// NewRasterizer creates a Rasterizer.
func NewRasterizer(logger *slog.Logger) *Rasterizer {
	return &Rasterizer{logger: logger.With("system", "render")}
}

// RenderPages renders the given 1-based pages of the PDF at pdfPath into
// dir, one image per page, and returns the written paths in page order.
func (r *Rasterizer) RenderPages(ctx context.Context, pdfPath string, pages []int, dir, format string, dpi int) ([]string, error) {
	doc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	renderer, err := image.NewImageMagickRenderer(imageConfig(format, dpi))
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	paths := make([]string, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(pages)))

	for i, pageNum := range pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.%s", pageNum, format))
		paths[i] = path

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			page, err := doc.ExtractPage(pageNum)
			if err != nil {
				return fmt.Errorf("extract page %d: %w", pageNum, err)
			}

			data, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", pageNum, err)
			}

			if err := os.WriteFile(path, data, 0o600); err != nil {
				return fmt.Errorf("write page %d image: %w", pageNum, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("pages rendered", "pdf", pdfPath, "pages", len(pages), "format", format)
	return paths, nil
}

func imageConfig(format string, dpi int) config.ImageConfig {
	cfg := config.DefaultImageConfig()
	cfg.DPI = dpi
	if format == "jpeg" {
		cfg.Format = string(document.JPEG)
	} else {
		cfg.Format = string(document.PNG)
	}
	return cfg
}

func workerCount(pageCount int) int {
	return max(min(runtime.NumCPU(), pageCount), 1)
}
