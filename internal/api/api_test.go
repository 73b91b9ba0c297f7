package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foliolabs/folio/internal/api"
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/infrastructure"
	"github.com/foliolabs/folio/pkg/artifacts"
	"github.com/foliolabs/folio/pkg/middleware"
	"github.com/foliolabs/folio/pkg/openapi"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Artifacts: artifacts.Config{
			Dir:           filepath.Join(t.TempDir(), "artifacts"),
			Retention:     "24h",
			SweepInterval: "1h",
			MaxListSize:   50,
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "100MB",
			CORS:          middleware.CORSConfig{Enabled: false},
			OpenAPI: openapi.Config{
				Title:       "Folio API",
				Description: "Document processing",
			},
		},
		OCR: config.OCRConfig{
			Language: "eng",
			DPI:      300,
		},
		Convert: config.ConvertConfig{
			Timeout: "1m",
		},
		ShutdownTimeout: "5s",
		Version:         "0.1.0",
	}
}

func newInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure init failed: %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig(t)
	infra := newInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("module init failed: %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)
	infra := newInfra(t, cfg)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.MaxUploadSize != 100*1024*1024 {
		t.Errorf("max upload size: got %d, want %d", runtime.MaxUploadSize, 100*1024*1024)
	}
	if runtime.DownloadBase != "/api/artifacts/download" {
		t.Errorf("download base: got %s", runtime.DownloadBase)
	}
	if runtime.MaxListSize != 50 {
		t.Errorf("max list size: got %d, want 50", runtime.MaxListSize)
	}
	if runtime.Logger == nil {
		t.Error("logger should not be nil")
	}
	if runtime.Artifacts == nil {
		t.Error("artifacts should not be nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)
	infra := newInfra(t, cfg)

	domain := api.NewDomain(api.NewRuntime(cfg, infra))

	if domain.PDF == nil {
		t.Error("pdf system should not be nil")
	}
	if domain.Convert == nil {
		t.Error("convert system should not be nil")
	}
	if domain.Images == nil {
		t.Error("images system should not be nil")
	}
	if domain.OCR == nil {
		t.Error("ocr system should not be nil")
	}
}

func TestArtifactRoutes(t *testing.T) {
	cfg := validConfig(t)
	infra := newInfra(t, cfg)

	key := infra.Artifacts.NewKey("report.pdf")
	if _, err := infra.Artifacts.Save(context.Background(), key, strings.NewReader("%PDF-data")); err != nil {
		t.Fatalf("save artifact: %v", err)
	}

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("module init failed: %v", err)
	}

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/artifacts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var listing artifacts.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Artifacts) != 1 || listing.Artifacts[0].Key != key {
		t.Fatalf("listing: got %+v", listing.Artifacts)
	}

	rec = httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/artifacts/download/"+key, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download status: got %d, want 200", rec.Code)
	}
	if rec.Body.String() != "%PDF-data" {
		t.Errorf("download body: got %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("content-disposition: got %q", cd)
	}

	rec = httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("DELETE", "/api/artifacts/"+key, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/artifacts/"+key, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("find after delete: got %d, want 404", rec.Code)
	}
}

func TestOpenAPISpecRoute(t *testing.T) {
	cfg := validConfig(t)
	infra := newInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("module init failed: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/openapi.json", nil)
	m.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}
}
