package api

import (
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/pkg/openapi"
)

// buildSpec generates the OpenAPI document for every mounted endpoint.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	addTransform(spec, "/pdf/merge", "pdf", "Merge two or more PDFs into one document")
	addTransform(spec, "/pdf/split", "pdf", "Split a PDF into single pages or explicit ranges")
	addTransform(spec, "/pdf/remove-pages", "pdf", "Remove the selected pages from a PDF")
	addTransform(spec, "/pdf/extract-pages", "pdf", "Extract the selected pages into a new PDF")
	addTransform(spec, "/pdf/rotate", "pdf", "Rotate the selected pages by a multiple of 90 degrees")
	addTransform(spec, "/pdf/watermark", "pdf", "Overlay watermark text on every page")
	addTransform(spec, "/pdf/page-numbers", "pdf", "Stamp page numbers on every page")
	addTransform(spec, "/pdf/compress", "pdf", "Optimize and re-serialize a PDF")
	addTransform(spec, "/pdf/protect", "pdf", "Encrypt a PDF with passwords")
	addTransform(spec, "/pdf/unlock", "pdf", "Remove encryption from a PDF")
	addTransform(spec, "/pdf/extract-images", "pdf", "Extract embedded images from the selected pages")
	addTransform(spec, "/pdf/info", "pdf", "Report page count and size for a PDF")
	addTransform(spec, "/pdf/to-images", "pdf", "Rasterize the selected pages to images")
	addTransform(spec, "/pdf/from-images", "pdf", "Assemble uploaded images into one PDF")

	addTransform(spec, "/convert/html-to-pdf", "convert", "Render an HTML document to PDF")
	addTransform(spec, "/convert/markdown-to-pdf", "convert", "Render a markdown document to PDF")
	addTransform(spec, "/convert/html-to-markdown", "convert", "Convert an HTML document to markdown")
	addTransform(spec, "/convert/word-to-text", "convert", "Extract plain text from a Word document")
	addTransform(spec, "/convert/sheet-to-csv", "convert", "Convert workbook sheets to CSV files")
	addTransform(spec, "/convert/sheet-to-html", "convert", "Convert a workbook to an HTML document")

	addTransform(spec, "/image/convert", "image", "Re-encode an image in another format")
	addTransform(spec, "/image/resize", "image", "Resize an image, preserving aspect ratio")

	addTransform(spec, "/ocr/image", "ocr", "Recognize text in an image")
	addTransform(spec, "/ocr/pdf", "ocr", "Recognize text in the selected pages of a PDF")

	addArtifacts(spec)
	return spec
}

// addTransform registers a multipart transform endpoint with the shared
// result and error envelopes.
func addTransform(spec *openapi.Spec, path, tag, summary string) {
	spec.Paths[path] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary: summary,
			Tags:    []string{tag},
			RequestBody: &openapi.RequestBody{
				Required: true,
				Content: map[string]*openapi.MediaType{
					"multipart/form-data": {
						Schema: &openapi.Schema{Type: "object"},
					},
				},
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Transform result", "TransformResult"),
				400: openapi.ResponseRef("BadRequest"),
				422: openapi.ResponseRef("Unprocessable"),
			},
		},
	}
}

func addArtifacts(spec *openapi.Spec) {
	keyParam := &openapi.Parameter{
		Name:        "key",
		In:          "path",
		Required:    true,
		Description: "Artifact key",
		Schema:      &openapi.Schema{Type: "string"},
	}

	spec.Paths["/artifacts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List stored artifacts",
			Tags:    []string{"artifacts"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("prefix", "string", "Key prefix filter", false),
				openapi.QueryParam("marker", "string", "Continuation marker from a previous page", false),
				openapi.QueryParam("max_results", "integer", "Maximum entries to return", false),
			},
			Responses: map[int]*openapi.Response{
				200: {Description: "Artifact listing"},
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/artifacts/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Artifact metadata",
			Tags:       []string{"artifacts"},
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: {Description: "Artifact metadata"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete an artifact",
			Tags:       []string{"artifacts"},
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				204: {Description: "Artifact deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/artifacts/download/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download an artifact",
			Tags:       []string{"artifacts"},
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: {Description: "Artifact content"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}
