package imageops

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/foliolabs/folio/internal/engine"
)

// Convert decodes an uploaded image and re-encodes it in the target format.
func (s *system) Convert(ctx context.Context, up engine.Upload, format string, quality int) (*engine.Outcome, error) {
	if err := validateTarget(format, quality); err != nil {
		return nil, err
	}

	img, sourceFormat, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("decode image: %w", err))
	}

	data, err := encode(img, format, quality)
	if err != nil {
		return nil, err
	}

	scope := engine.NewScope()
	defer scope.ReleaseAll()

	output, err := engine.SaveOutput(ctx, s.store, scope, imageName(up.Filename, format), data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	s.logger.Info("image converted", "input", up.Filename, "from", sourceFormat, "to", format)
	return &engine.Outcome{
		Message: fmt.Sprintf("converted %s to %s", sourceFormat, format),
		Outputs: []engine.Output{output},
		Meta: map[string]any{
			"source_format": sourceFormat,
			"target_format": format,
			"width":         bounds.Dx(),
			"height":        bounds.Dy(),
		},
	}, nil
}

// Resize scales an uploaded image to the given dimensions. When only one
// dimension is given the other is derived from the source aspect ratio.
func (s *system) Resize(ctx context.Context, up engine.Upload, width, height int, format string, quality int) (*engine.Outcome, error) {
	if width <= 0 && height <= 0 {
		return nil, engine.Validation("width or height required")
	}
	if width < 0 || height < 0 {
		return nil, engine.Validation("dimensions must be positive")
	}
	if err := validateTarget(format, quality); err != nil {
		return nil, err
	}

	img, sourceFormat, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("decode image: %w", err))
	}

	bounds := img.Bounds()
	width, height = fitDimensions(bounds.Dx(), bounds.Dy(), width, height)

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	data, err := encode(scaled, format, quality)
	if err != nil {
		return nil, err
	}

	scope := engine.NewScope()
	defer scope.ReleaseAll()

	output, err := engine.SaveOutput(ctx, s.store, scope, imageName(up.Filename, format), data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("image resized", "input", up.Filename, "width", width, "height", height)
	return &engine.Outcome{
		Message: fmt.Sprintf("resized to %dx%d", width, height),
		Outputs: []engine.Output{output},
		Meta: map[string]any{
			"source_format":   sourceFormat,
			"original_width":  bounds.Dx(),
			"original_height": bounds.Dy(),
			"width":           width,
			"height":          height,
		},
	}, nil
}

// fitDimensions derives missing dimensions from the source aspect ratio.
func fitDimensions(srcW, srcH, width, height int) (int, int) {
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		h := srcH * width / srcW
		return width, max(h, 1)
	default:
		w := srcW * height / srcH
		return max(w, 1), height
	}
}

func validateTarget(format string, quality int) error {
	if format != "png" && format != "jpeg" {
		return engine.Validation("unsupported target format %q", format)
	}
	if quality < 1 || quality > 100 {
		return engine.Validation("quality must be between 1 and 100")
	}
	return nil
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, engine.Internal(fmt.Errorf("encode jpeg: %w", err))
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, engine.Internal(fmt.Errorf("encode png: %w", err))
		}
	}

	return buf.Bytes(), nil
}

func imageName(filename, format string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "image"
	}
	if format == "jpeg" {
		return base + ".jpg"
	}
	return base + "." + format
}
