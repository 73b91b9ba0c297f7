package convert

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/foliolabs/folio/internal/engine"
)

// HTMLToPDF renders an uploaded HTML document to PDF through the headless
// browser renderer.
func (s *system) HTMLToPDF(ctx context.Context, up engine.Upload) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	html := string(up.Data)

	pdf, err := s.renderer.ConvertHTML(ctx, html)
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("render html: %w", err))
	}

	output, err := engine.SaveOutput(ctx, s.store, scope, outputName(up.Filename, ".pdf"), pdf)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if title := documentTitle(html); title != "" {
		meta["title"] = title
	}

	s.logger.Info("html converted", "input", up.Filename, "pdf_bytes", len(pdf))
	return &engine.Outcome{
		Message: "converted HTML to PDF",
		Outputs: []engine.Output{output},
		Meta:    meta,
	}, nil
}

// MarkdownToPDF renders uploaded markdown to HTML, then to PDF.
func (s *system) MarkdownToPDF(ctx context.Context, up engine.Upload) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	var body bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert(up.Data, &body); err != nil {
		return nil, engine.Processing(fmt.Errorf("parse markdown: %w", err))
	}

	html := markdownShell(outputName(up.Filename, ""), body.String())

	pdf, err := s.renderer.ConvertHTML(ctx, html)
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("render markdown: %w", err))
	}

	output, err := engine.SaveOutput(ctx, s.store, scope, outputName(up.Filename, ".pdf"), pdf)
	if err != nil {
		return nil, err
	}

	s.logger.Info("markdown converted", "input", up.Filename, "pdf_bytes", len(pdf))
	return &engine.Outcome{
		Message: "converted markdown to PDF",
		Outputs: []engine.Output{output},
		Meta:    map[string]any{},
	}, nil
}

// HTMLToMarkdown converts an uploaded HTML document to markdown text.
func (s *system) HTMLToMarkdown(ctx context.Context, up engine.Upload) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	conv := htmltomarkdown.NewConverter(
		htmltomarkdown.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)

	markdown, err := conv.ConvertString(string(up.Data))
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("convert html: %w", err))
	}

	output, err := engine.SaveOutput(ctx, s.store, scope, outputName(up.Filename, ".md"), []byte(markdown))
	if err != nil {
		return nil, err
	}

	s.logger.Info("html converted to markdown", "input", up.Filename, "markdown_bytes", len(markdown))
	return &engine.Outcome{
		Message: "converted HTML to markdown",
		Outputs: []engine.Output{output},
		Meta:    map[string]any{},
	}, nil
}

// markdownShell wraps rendered markdown HTML in a printable page with
// readable typography.
func markdownShell(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2em; line-height: 1.5; }
pre { background: #f4f4f4; padding: 1em; overflow-x: auto; }
code { font-family: Menlo, Consolas, monospace; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; }
blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1em; color: #555; }
</style>
</head>
<body>
%s
</body>
</html>`, title, body)
}

func documentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// outputName derives an output filename from the upload, swapping the
// extension.
func outputName(filename, ext string) string {
	base := filepath.Base(filename)
	if old := filepath.Ext(base); old != "" {
		base = strings.TrimSuffix(base, old)
	}
	if base == "" || base == "." {
		base = "document"
	}
	return base + ext
}
