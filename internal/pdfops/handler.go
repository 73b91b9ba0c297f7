package pdfops

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/handlers"
	"github.com/foliolabs/folio/pkg/routes"
)

// Handler provides HTTP endpoints for PDF transform operations.
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
		logger:        logger.With("handler", "pdfops"),
		maxUploadSize: maxUploadSize,
		downloadBase:  downloadBase,
	}
}

// Routes returns the route group definition for PDF endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/pdf",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/merge", Handler: h.Merge},
			{Method: "POST", Pattern: "/split", Handler: h.Split},
			{Method: "POST", Pattern: "/remove-pages", Handler: h.RemovePages},
			{Method: "POST", Pattern: "/extract-pages", Handler: h.ExtractPages},
			{Method: "POST", Pattern: "/rotate", Handler: h.Rotate},
			{Method: "POST", Pattern: "/watermark", Handler: h.Watermark},
			{Method: "POST", Pattern: "/page-numbers", Handler: h.PageNumbers},
			{Method: "POST", Pattern: "/compress", Handler: h.Compress},
			{Method: "POST", Pattern: "/protect", Handler: h.Protect},
			{Method: "POST", Pattern: "/unlock", Handler: h.Unlock},
			{Method: "POST", Pattern: "/extract-images", Handler: h.ExtractImages},
			{Method: "POST", Pattern: "/info", Handler: h.Info},
			{Method: "POST", Pattern: "/to-images", Handler: h.ToImages},
			{Method: "POST", Pattern: "/from-images", Handler: h.FromImages},
		},
	}
}

// Merge concatenates two or more uploaded documents.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	uploads, ok := h.files(w, r)
	if !ok {
		return
	}
	h.run(w, r, uploads, engine.Merge{})
}

// Split divides a document into single pages or explicit ranges.
func (h *Handler) Split(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	mode := engine.SplitMode(formValue(r, "mode", string(engine.SplitPages)))
	h.run(w, r, []engine.Upload{upload}, engine.Split{
		Mode:   mode,
		Ranges: r.FormValue("ranges"),
	})
}

// RemovePages deletes the selected pages from a document.
func (h *Handler) RemovePages(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}
	h.run(w, r, []engine.Upload{upload}, engine.RemovePages{Pages: r.FormValue("pages")})
}

// ExtractPages keeps only the selected pages of a document.
func (h *Handler) ExtractPages(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}
	h.run(w, r, []engine.Upload{upload}, engine.ExtractPages{Pages: r.FormValue("pages")})
}

// Rotate adds a rotation angle to the selected pages.
func (h *Handler) Rotate(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	angle, err := strconv.Atoi(r.FormValue("angle"))
	if err != nil {
		engine.RespondFailure(w, h.logger, engine.Validation("invalid angle %q", r.FormValue("angle")))
		return
	}

	h.run(w, r, []engine.Upload{upload}, engine.Rotate{
		Angle: angle,
		Pages: r.FormValue("pages"),
	})
}

// Watermark overlays text on every page.
func (h *Handler) Watermark(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	h.run(w, r, []engine.Upload{upload}, engine.Watermark{
		Text:     r.FormValue("text"),
		Position: engine.Position(formValue(r, "position", string(engine.Center))),
		Opacity:  formFloat(r, "opacity", 0.3),
		FontSize: formInt(r, "font_size", 48),
		Color:    r.FormValue("color"),
	})
}

// PageNumbers stamps a numbering label on every page.
func (h *Handler) PageNumbers(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	h.run(w, r, []engine.Upload{upload}, engine.PageNumbers{
		Position:  engine.Position(formValue(r, "position", string(engine.BottomCenter))),
		Format:    formValue(r, "format", "{page} / {total}"),
		StartPage: formInt(r, "start_page", 1),
	})
}

// Compress re-serializes the document with default optimization.
func (h *Handler) Compress(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}
	h.run(w, r, []engine.Upload{upload}, engine.Compress{})
}

// Protect encrypts a document with user and owner passwords.
func (h *Handler) Protect(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}
	h.run(w, r, []engine.Upload{upload}, engine.Protect{
		UserPassword:  r.FormValue("user_password"),
		OwnerPassword: r.FormValue("owner_password"),
	})
}

// Unlock removes encryption from a password-protected document.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}
	h.run(w, r, []engine.Upload{upload}, engine.Unlock{Password: r.FormValue("password")})
}

// ExtractImages pulls embedded images from the selected pages.
func (h *Handler) ExtractImages(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}
	h.run(w, r, []engine.Upload{upload}, engine.ExtractImages{Pages: r.FormValue("pages")})
}

// Info reports page count and byte size for a document.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}
	h.run(w, r, []engine.Upload{upload}, engine.Info{})
}

// ToImages rasterizes the selected pages to one image per page.
func (h *Handler) ToImages(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.file(w, r)
	if !ok {
		return
	}

	h.run(w, r, []engine.Upload{upload}, engine.ToImages{
		Pages:  r.FormValue("pages"),
		Format: formValue(r, "format", "png"),
		DPI:    formInt(r, "dpi", 150),
	})
}

// FromImages assembles uploaded images into a single document.
func (h *Handler) FromImages(w http.ResponseWriter, r *http.Request) {
	uploads, ok := h.files(w, r)
	if !ok {
		return
	}
	h.run(w, r, uploads, engine.FromImages{})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, uploads []engine.Upload, desc engine.Descriptor) {
	outcome, err := h.sys.Execute(r.Context(), uploads, desc)
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

func (h *Handler) files(w http.ResponseWriter, r *http.Request) ([]engine.Upload, bool) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		engine.RespondFailure(w, h.logger, engine.Validation("upload exceeds maximum size"))
		return nil, false
	}

	files, err := handlers.FormFiles(r, "files")
	if err != nil {
		engine.RespondFailure(w, h.logger, engine.Validation("files required"))
		return nil, false
	}

	uploads := make([]engine.Upload, len(files))
	for i, f := range files {
		uploads[i] = engine.Upload{Filename: f.Filename, Data: f.Data}
	}
	return uploads, true
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

func formFloat(r *http.Request, field string, fallback float64) float64 {
	if v := r.FormValue(field); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
