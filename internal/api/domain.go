package api

import (
	"github.com/foliolabs/folio/internal/convert"
	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/imageops"
	"github.com/foliolabs/folio/internal/ocr"
	"github.com/foliolabs/folio/internal/pdfops"
	"github.com/foliolabs/folio/internal/render"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	PDF     pdfops.System
	Convert convert.System
	Images  imageops.System
	OCR     ocr.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	rasterizer := render.NewRasterizer(runtime.Logger)
	htmlConverter := render.NewHTMLConverter(runtime.Logger, runtime.Convert.TimeoutDuration())

	eng := engine.New(runtime.Artifacts, rasterizer, runtime.Logger)

	return &Domain{
		PDF:     pdfops.New(eng, runtime.Logger),
		Convert: convert.New(runtime.Artifacts, htmlConverter, runtime.Logger),
		Images:  imageops.New(runtime.Artifacts, runtime.Logger),
		OCR: ocr.New(runtime.Artifacts, rasterizer, ocr.Options{
			Language: runtime.OCR.Language,
			DPI:      runtime.OCR.DPI,
		}, runtime.Logger),
	}
}
