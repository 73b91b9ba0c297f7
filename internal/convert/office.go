package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/foliolabs/folio/internal/engine"
)

// WordToText extracts the plain text content of a .docx document.
func (s *system) WordToText(ctx context.Context, up engine.Upload) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	text, err := docxText(up.Data)
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("extract text: %w", err))
	}

	output, err := engine.SaveOutput(ctx, s.store, scope, outputName(up.Filename, ".txt"), []byte(text))
	if err != nil {
		return nil, err
	}

	s.logger.Info("word document extracted", "input", up.Filename, "text_bytes", len(text))
	return &engine.Outcome{
		Message: "extracted document text",
		Outputs: []engine.Output{output},
		Meta:    map[string]any{"character_count": len(text)},
	}, nil
}

// SheetToCSV converts every sheet of a workbook to its own CSV output.
func (s *system) SheetToCSV(ctx context.Context, up engine.Upload) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	book, err := excelize.OpenReader(bytes.NewReader(up.Data))
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("open workbook: %w", err))
	}
	defer book.Close()

	sheets := book.GetSheetList()
	name := outputName(up.Filename, "")

	filenames := make([]string, 0, len(sheets))
	documents := make([][]byte, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, engine.Processing(fmt.Errorf("read sheet %s: %w", sheet, err))
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return nil, engine.Internal(fmt.Errorf("write csv row: %w", err))
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, engine.Internal(fmt.Errorf("flush csv: %w", err))
		}

		filenames = append(filenames, fmt.Sprintf("%s-%s.csv", name, sheet))
		documents = append(documents, buf.Bytes())
	}

	// all sheets are converted before any output is declared
	outputs, err := engine.SaveOutputs(ctx, s.store, scope, filenames, documents)
	if err != nil {
		return nil, err
	}

	s.logger.Info("workbook converted", "input", up.Filename, "sheets", len(sheets))
	return &engine.Outcome{
		Message: fmt.Sprintf("converted %d sheets to CSV", len(sheets)),
		Outputs: outputs,
		Meta:    map[string]any{"sheet_count": len(sheets)},
	}, nil
}

// SheetToHTML converts a workbook to a single HTML document, one table per
// sheet.
func (s *system) SheetToHTML(ctx context.Context, up engine.Upload) (*engine.Outcome, error) {
	scope := engine.NewScope()
	defer scope.ReleaseAll()

	book, err := excelize.OpenReader(bytes.NewReader(up.Data))
	if err != nil {
		return nil, engine.Processing(fmt.Errorf("open workbook: %w", err))
	}
	defer book.Close()

	sheets := book.GetSheetList()
	name := outputName(up.Filename, "")

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(name))
	sb.WriteString("<style>table { border-collapse: collapse; margin-bottom: 2em; } th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; }</style>\n")
	sb.WriteString("</head>\n<body>\n")

	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, engine.Processing(fmt.Errorf("read sheet %s: %w", sheet, err))
		}

		fmt.Fprintf(&sb, "<h2>%s</h2>\n<table>\n", html.EscapeString(sheet))
		for i, row := range rows {
			cell := "td"
			if i == 0 {
				cell = "th"
			}
			sb.WriteString("<tr>")
			for _, value := range row {
				fmt.Fprintf(&sb, "<%s>%s</%s>", cell, html.EscapeString(value), cell)
			}
			sb.WriteString("</tr>\n")
		}
		sb.WriteString("</table>\n")
	}
	sb.WriteString("</body>\n</html>\n")

	output, err := engine.SaveOutput(ctx, s.store, scope, name+".html", []byte(sb.String()))
	if err != nil {
		return nil, err
	}

	s.logger.Info("workbook converted", "input", up.Filename, "sheets", len(sheets))
	return &engine.Outcome{
		Message: fmt.Sprintf("converted %d sheets to HTML", len(sheets)),
		Outputs: []engine.Output{output},
		Meta:    map[string]any{"sheet_count": len(sheets)},
	}, nil
}

// docxText walks the main document part of a .docx archive and collects the
// run text, with paragraphs separated by newlines.
func docxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	var part *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return "", errors.New("missing word/document.xml")
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
