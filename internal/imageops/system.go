// Package imageops implements the image domain: format conversion and
// resizing endpoints over the standard image codecs plus the extended
// tiff/bmp/webp decoders.
package imageops

import (
	"context"
	"log/slog"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/artifacts"
)

// System defines the public contract for image operations.
type System interface {
	Handler(maxUploadSize int64, downloadBase string) *Handler
	Convert(ctx context.Context, up engine.Upload, format string, quality int) (*engine.Outcome, error)
	Resize(ctx context.Context, up engine.Upload, width, height int, format string, quality int) (*engine.Outcome, error)
}

type system struct {
	store  artifacts.System
	logger *slog.Logger
}

// New creates the image system over the given artifact store.
func New(store artifacts.System, logger *slog.Logger) System {
	return &system{
		store:  store,
		logger: logger.With("system", "imageops"),
	}
}

func (s *system) Handler(maxUploadSize int64, downloadBase string) *Handler {
	return NewHandler(s, s.logger, maxUploadSize, downloadBase)
}
