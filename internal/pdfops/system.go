// Package pdfops implements the PDF transform domain: merge, split, page
// removal and extraction, rotation, stamping, compression, encryption, and
// image conversion endpoints over the transform pipeline engine.
package pdfops

import (
	"context"
	"log/slog"

	"github.com/foliolabs/folio/internal/engine"
)

// System defines the public contract for PDF transform operations.
type System interface {
	Handler(maxUploadSize int64, downloadBase string) *Handler
	Execute(ctx context.Context, uploads []engine.Upload, desc engine.Descriptor) (*engine.Outcome, error)
}

type system struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates the PDF transform system over the given engine.
func New(eng *engine.Engine, logger *slog.Logger) System {
	return &system{
		engine: eng,
		logger: logger.With("system", "pdfops"),
	}
}

func (s *system) Handler(maxUploadSize int64, downloadBase string) *Handler {
	return NewHandler(s, s.logger, maxUploadSize, downloadBase)
}

func (s *system) Execute(ctx context.Context, uploads []engine.Upload, desc engine.Descriptor) (*engine.Outcome, error) {
	return s.engine.Run(ctx, uploads, desc)
}
