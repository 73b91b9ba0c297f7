package api

import (
	"fmt"
	"net/http"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/pkg/openapi"
	"github.com/foliolabs/folio/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	routes.Register(
		mux,
		domain.PDF.Handler(runtime.MaxUploadSize, runtime.DownloadBase).Routes(),
		domain.Convert.Handler(runtime.MaxUploadSize, runtime.DownloadBase).Routes(),
		domain.Images.Handler(runtime.MaxUploadSize, runtime.DownloadBase).Routes(),
		domain.OCR.Handler(runtime.MaxUploadSize, runtime.DownloadBase).Routes(),
		newArtifactsHandler(runtime.Artifacts, runtime.Logger, runtime.MaxListSize).routes(),
	)

	spec := buildSpec(cfg)
	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	return nil
}
