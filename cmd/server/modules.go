package main

import (
	"encoding/json"
	"net/http"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/infrastructure"
	"github.com/foliolabs/folio/pkg/middleware"
	"github.com/foliolabs/folio/pkg/module"
	"github.com/foliolabs/folio/web/console"
	"github.com/foliolabs/folio/web/scalar"
)

type Modules struct {
	API     *module.Module
	Scalar  *module.Module
	Console *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	scalarModule := scalar.NewModule("/scalar")
	scalarModule.Use(middleware.Logger(infra.Logger))

	consoleModule, err := console.NewModule("/console", cfg.API.BasePath)
	if err != nil {
		return nil, err
	}
	consoleModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:     apiModule,
		Scalar:  scalarModule,
		Console: consoleModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
	router.Mount(m.Console)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/console", http.StatusTemporaryRedirect)
	})

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
