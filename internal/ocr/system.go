// Package ocr implements the text recognition domain: OCR over uploaded
// images and over rasterized PDF pages.
package ocr

import (
	"context"
	"log/slog"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/artifacts"
)

// System defines the public contract for text recognition operations.
type System interface {
	Handler(maxUploadSize int64, downloadBase string) *Handler
	Image(ctx context.Context, up engine.Upload, language string) (*engine.Outcome, error)
	PDF(ctx context.Context, up engine.Upload, language, pages string) (*engine.Outcome, error)
}

// Options configures recognition defaults.
type Options struct {
	Language string
	DPI      int
}

type system struct {
	store      artifacts.System
	rasterizer engine.Rasterizer
	opts       Options
	logger     *slog.Logger
}

// New creates the OCR system over the given artifact store and rasterizer.
func New(store artifacts.System, rasterizer engine.Rasterizer, opts Options, logger *slog.Logger) System {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.DPI <= 0 {
		opts.DPI = 300
	}

	return &system{
		store:      store,
		rasterizer: rasterizer,
		opts:       opts,
		logger:     logger.With("system", "ocr"),
	}
}

func (s *system) Handler(maxUploadSize int64, downloadBase string) *Handler {
	return NewHandler(s, s.logger, maxUploadSize, downloadBase)
}

func (s *system) language(override string) string {
	if override != "" {
		return override
	}
	return s.opts.Language
}
