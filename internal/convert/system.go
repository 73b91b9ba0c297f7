// Package convert implements the document conversion domain: HTML and
// markdown rendering to PDF, HTML to markdown, and Office document
// extraction endpoints.
package convert

import (
	"context"
	"log/slog"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/artifacts"
)

// HTMLRenderer renders an HTML document to PDF bytes.
type HTMLRenderer interface {
	ConvertHTML(ctx context.Context, html string) ([]byte, error)
}

// System defines the public contract for conversion operations.
type System interface {
	Handler(maxUploadSize int64, downloadBase string) *Handler
	HTMLToPDF(ctx context.Context, up engine.Upload) (*engine.Outcome, error)
	MarkdownToPDF(ctx context.Context, up engine.Upload) (*engine.Outcome, error)
	HTMLToMarkdown(ctx context.Context, up engine.Upload) (*engine.Outcome, error)
	WordToText(ctx context.Context, up engine.Upload) (*engine.Outcome, error)
	SheetToCSV(ctx context.Context, up engine.Upload) (*engine.Outcome, error)
	SheetToHTML(ctx context.Context, up engine.Upload) (*engine.Outcome, error)
}

type system struct {
	store    artifacts.System
	renderer HTMLRenderer
	logger   *slog.Logger
}

// New creates the conversion system over the given artifact store and HTML
// renderer.
func New(store artifacts.System, renderer HTMLRenderer, logger *slog.Logger) System {
	return &system{
		store:    store,
		renderer: renderer,
		logger:   logger.With("system", "convert"),
	}
}

func (s *system) Handler(maxUploadSize int64, downloadBase string) *Handler {
	return NewHandler(s, s.logger, maxUploadSize, downloadBase)
}
