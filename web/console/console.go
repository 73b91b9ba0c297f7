// Package console serves the embedded upload console, a minimal page for
// exercising the transform endpoints from a browser.
package console

import (
	"embed"
	"net/http"

	"github.com/foliolabs/folio/pkg/module"
	"github.com/foliolabs/folio/pkg/web"
)

//go:embed templates static
var consoleFS embed.FS

// NewModule creates a module that serves the upload console at basePath.
// Links and requests in the page are generated against apiBase.
func NewModule(basePath, apiBase string) (*module.Module, error) {
	index := web.ViewDef{
		Route:    "/",
		Template: "index.html",
		Title:    "Folio Console",
		Bundle:   "console",
	}

	ts, err := web.NewTemplateSet(
		consoleFS, consoleFS,
		"templates/layout.html", "templates/views",
		apiBase,
		[]web.ViewDef{index},
	)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", ts.PageHandler("layout", index))
	mux.Handle("GET /static/", web.DistServer(consoleFS, "static", "/static"))

	return module.New(basePath, mux), nil
}
