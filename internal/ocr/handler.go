package ocr

import (
	"log/slog"
	"net/http"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/handlers"
	"github.com/foliolabs/folio/pkg/routes"
)

// Handler provides HTTP endpoints for text recognition.
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
		logger:        logger.With("handler", "ocr"),
		maxUploadSize: maxUploadSize,
		downloadBase:  downloadBase,
	}
}

// Routes returns the route group definition for OCR endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/ocr",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/image", Handler: h.Image},
			{Method: "POST", Pattern: "/pdf", Handler: h.PDF},
		},
	}
}

// Image recognizes text in an uploaded image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	outcome, err := h.sys.Image(r.Context(), upload, r.FormValue("language"))
	if err != nil {
		engine.RespondFailure(w, h.logger, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcome.Payload(h.downloadBase))
}

// PDF recognizes text in the selected pages of an uploaded PDF.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	outcome, err := h.sys.PDF(r.Context(), upload, r.FormValue("language"), r.FormValue("pages"))
	if err != nil {
		engine.RespondFailure(w, h.logger, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcome.Payload(h.downloadBase))
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) (engine.Upload, bool) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		engine.RespondFailure(w, h.logger, engine.Validation("upload exceeds maximum size"))
		return engine.Upload{}, false
	}

	file, err := handlers.FormFile(r, "file")
	if err != nil {
		engine.RespondFailure(w, h.logger, engine.Validation("file required"))
		return engine.Upload{}, false
	}

	return engine.Upload{Filename: file.Filename, Data: file.Data}, true
}
