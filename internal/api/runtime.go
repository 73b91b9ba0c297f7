package api

import (
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/infrastructure"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	MaxUploadSize int64
	DownloadBase  string
	MaxListSize   int32
	OCR           config.OCRConfig
	Convert       config.ConvertConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Artifacts: infra.Artifacts,
			Reaper:    infra.Reaper,
		},
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		DownloadBase:  cfg.API.BasePath + "/artifacts/download",
		MaxListSize:   cfg.Artifacts.MaxListSize,
		OCR:           cfg.OCR,
		Convert:       cfg.Convert,
	}
}
