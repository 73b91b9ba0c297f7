package imageops

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/handlers"
	"github.com/foliolabs/folio/pkg/routes"
)

// Handler provides HTTP endpoints for image operations.
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
		logger:        logger.With("handler", "imageops"),
		maxUploadSize: maxUploadSize,
		downloadBase:  downloadBase,
	}
}

// Routes returns the route group definition for image endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/image",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/convert", Handler: h.Convert},
			{Method: "POST", Pattern: "/resize", Handler: h.Resize},
		},
	}
}

// Convert re-encodes an uploaded image in the requested format.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	outcome, err := h.sys.Convert(r.Context(), upload,
		formValue(r, "format", "png"),
		formInt(r, "quality", 90),
	)
	if err != nil {
		engine.RespondFailure(w, h.logger, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcome.Payload(h.downloadBase))
}

// Resize scales an uploaded image to the requested dimensions.
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	outcome, err := h.sys.Resize(r.Context(), upload,
		formInt(r, "width", 0),
		formInt(r, "height", 0),
		formValue(r, "format", "png"),
		formInt(r, "quality", 90),
	)
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

func formValue(r *http.Request, field, fallback string) string {
	if v := r.FormValue(field); v != "" {
		return v
	}
	return fallback
}

func formInt(r *http.Request, field string, fallback int) int {
	if v := r.FormValue(field); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
