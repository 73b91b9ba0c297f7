package convert

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/handlers"
	"github.com/foliolabs/folio/pkg/routes"
)

// Handler provides HTTP endpoints for document conversion operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
	downloadBase  string
}

// NewHandler creates a Handler with the given system, logger, upload size
// limit, and download URL base.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64, downloadBase string) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "convert"),
		maxUploadSize: maxUploadSize,
		downloadBase:  downloadBase,
	}
}

// Routes returns the route group definition for conversion endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/convert",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/html-to-pdf", Handler: h.op(h.sys.HTMLToPDF)},
			{Method: "POST", Pattern: "/markdown-to-pdf", Handler: h.op(h.sys.MarkdownToPDF)},
			{Method: "POST", Pattern: "/html-to-markdown", Handler: h.op(h.sys.HTMLToMarkdown)},
			{Method: "POST", Pattern: "/word-to-text", Handler: h.op(h.sys.WordToText)},
			{Method: "POST", Pattern: "/sheet-to-csv", Handler: h.op(h.sys.SheetToCSV)},
			{Method: "POST", Pattern: "/sheet-to-html", Handler: h.op(h.sys.SheetToHTML)},
		},
	}
}

// op adapts a single-file conversion operation into an HTTP handler.
func (h *Handler) op(fn func(ctx context.Context, up engine.Upload) (*engine.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			engine.RespondFailure(w, h.logger, engine.Validation("upload exceeds maximum size"))
			return
		}

		file, err := handlers.FormFile(r, "file")
		if err != nil {
			engine.RespondFailure(w, h.logger, engine.Validation("file required"))
			return
		}

		outcome, err := fn(r.Context(), engine.Upload{Filename: file.Filename, Data: file.Data})
		if err != nil {
			engine.RespondFailure(w, h.logger, err)
			return
		}

		handlers.RespondJSON(w, http.StatusOK, outcome.Payload(h.downloadBase))
	}
}
