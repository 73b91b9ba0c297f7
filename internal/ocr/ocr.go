package ocr

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/pagerange"
)

// pageResult is the recognized content of one rendered page.
type pageResult struct {
	Page       int     `json:"page"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Image runs text recognition over an uploaded image.
func (s *system) Image(ctx context.Context, up engine.Upload, language string) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	text, confidence, err := recognizeBytes(up.Data, s.language(language))
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("recognize image: %w", err))
	}

	output, err := engine.SaveOutput(ctx, s.store, scope, textName(up.Filename), []byte(text))
	if err != nil {
		return nil, err
	}

	s.logger.Info("image recognized", "input", up.Filename, "confidence", confidence)
	return &engine.Outcome{
		Message: "recognized image text",
		Outputs: []engine.Output{output},
		Meta: map[string]any{
			"text":       text,
			"confidence": confidence,
		},
	}, nil
}

// PDF rasterizes the selected pages of an uploaded PDF and runs text
// recognition over each page concurrently.
func (s *system) PDF(ctx context.Context, up engine.Upload, language, pages string) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	input, err := engine.StageInput(ctx, s.store, scope, up)
	if err != nil {
		return nil, err
	}

	total, err := api.PageCountFile(input)
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("read pdf: %w", err))
	}

	selected, err := selectPages(pages, total)
	if err != nil {
		return nil, err
	}

	dir, err := engine.StageDir(s.store, scope, "ocr-render")
	if err != nil {
		return nil, err
	}

	paths, err := s.rasterizer.RenderPages(ctx, input, selected, dir, "png", s.opts.DPI)
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("render pages: %w", err))
	}

	results := make([]pageResult, len(selected))
	lang := s.language(language)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(runtime.NumCPU(), len(selected)), 1))

	for i, pageNum := range selected {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			text, confidence, err := recognizeFile(paths[i], lang)
			if err != nil {
				return fmt.Errorf("recognize page %d: %w", pageNum, err)
			}

			results[i] = pageResult{Page: pageNum, Text: text, Confidence: confidence}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, engine.Processing(err)
	}

	var combined strings.Builder
	var sum float64
	for _, result := range results {
		combined.WriteString(result.Text)
		combined.WriteByte('\n')
		sum += result.Confidence
	}

	output, err := engine.SaveOutput(ctx, s.store, scope, textName(up.Filename), []byte(combined.String()))
	if err != nil {
		return nil, err
	}

	s.logger.Info("pdf recognized", "input", up.Filename, "pages", len(results))
	return &engine.Outcome{
		Message: fmt.Sprintf("recognized %d pages", len(results)),
		Outputs: []engine.Output{output},
		Meta: map[string]any{
			"pages":           results,
			"mean_confidence": sum / float64(len(results)),
		},
	}, nil
}

// selectPages resolves a page expression against the document, defaulting to
// every page. A non-empty expression that selects nothing is rejected.
func selectPages(expr string, total int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	sel, err := pagerange.Parse(expr, total)
	if err != nil {
		var parseErr *pagerange.ParseError
		if errors.As(err, &parseErr) {
			return nil, engine.NewError(engine.CodeMalformedRange, "%v", err)
		}
		return nil, engine.Internal(err)
	}

	pages := sel.Ascending().Pages()
	if len(pages) == 0 {
		return nil, engine.NewError(engine.CodeEmptySelection, "no pages selected by %q", expr)
	}

	return pages, nil
}

func recognizeBytes(data []byte, language string) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return "", 0, fmt.Errorf("set language %s: %w", language, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}

	return recognize(client)
}

func recognizeFile(path, language string) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return "", 0, fmt.Errorf("set language %s: %w", language, err)
	}
	if err := client.SetImage(path); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}

	return recognize(client)
}

// recognize extracts the full text and the mean word confidence, normalized
// to [0, 1].
func recognize(client *gosseract.Client) (string, float64, error) {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return "", 0, fmt.Errorf("bounding boxes: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("extract text: %w", err)
	}

	if len(boxes) == 0 {
		return text, 0, nil
	}

	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return text, sum / float64(len(boxes)) / 100, nil
}

func textName(filename string) string {
	base := filename
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "document"
	}
	return base + ".txt"
}
