package convert_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/foliolabs/folio/internal/convert"
	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/pkg/artifacts"
)

type stubRenderer struct {
	html string
	err  error
}

func (r *stubRenderer) ConvertHTML(_ context.Context, html string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.html = html
	return []byte("%PDF-stub"), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSystem(t *testing.T, renderer convert.HTMLRenderer) (convert.System, artifacts.System) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "store")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("store dir: %v", err)
	}

	cfg := artifacts.Config{Dir: dir, Retention: "24h", SweepInterval: "1h", MaxListSize: 50}
	store, err := artifacts.New(&cfg, testLogger())
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	return convert.New(store, renderer, testLogger()), store
}

func artifactText(t *testing.T, store artifacts.System, key string) string {
	t.Helper()
	result, err := store.Download(context.Background(), key)
	if err != nil {
		t.Fatalf("download %s: %v", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(data)
}

func TestHTMLToPDF(t *testing.T) {
	renderer := &stubRenderer{}
	sys, store := newSystem(t, renderer)

	up := engine.Upload{
		Filename: "page.html",
		Data:     []byte("<html><head><title>Quarterly Report</title></head><body><p>hi</p></body></html>"),
	}

	outcome, err := sys.HTMLToPDF(context.Background(), up)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if len(outcome.Outputs) != 1 {
		t.Fatalf("outputs: got %d, want 1", len(outcome.Outputs))
	}
	if outcome.Outputs[0].Filename != "page.pdf" {
		t.Errorf("filename: got %s, want page.pdf", outcome.Outputs[0].Filename)
	}
	if outcome.Meta["title"] != "Quarterly Report" {
		t.Errorf("title: got %v", outcome.Meta["title"])
	}
	if got := artifactText(t, store, outcome.Outputs[0].Key); got != "%PDF-stub" {
		t.Errorf("artifact content: got %q", got)
	}
}

func TestHTMLToPDFRendererFailure(t *testing.T) {
	sys, _ := newSystem(t, &stubRenderer{err: errors.New("browser crashed")})

	_, err := sys.HTMLToPDF(context.Background(), engine.Upload{Filename: "page.html", Data: []byte("<p>x</p>")})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := engine.CodeOf(err); got != engine.CodeProcessing {
		t.Errorf("code: got %s, want %s", got, engine.CodeProcessing)
	}
}

func TestMarkdownToPDF(t *testing.T) {
	renderer := &stubRenderer{}
	sys, _ := newSystem(t, renderer)

	up := engine.Upload{
		Filename: "notes.md",
		Data:     []byte("# Heading\n\nSome ~~struck~~ text.\n"),
	}

	outcome, err := sys.MarkdownToPDF(context.Background(), up)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if outcome.Outputs[0].Filename != "notes.pdf" {
		t.Errorf("filename: got %s, want notes.pdf", outcome.Outputs[0].Filename)
	}
	if !strings.Contains(renderer.html, "<h1") {
		t.Error("rendered html should contain the markdown heading")
	}
	// strikethrough requires the GFM extension
	if !strings.Contains(renderer.html, "<del>") {
		t.Error("rendered html should contain GFM strikethrough")
	}
	if !strings.Contains(renderer.html, "<title>notes</title>") {
		t.Error("shell should carry the document title")
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	sys, store := newSystem(t, &stubRenderer{})

	up := engine.Upload{
		Filename: "article.html",
		Data:     []byte("<h1>Intro</h1><p>Hello <strong>world</strong>.</p>"),
	}

	outcome, err := sys.HTMLToMarkdown(context.Background(), up)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if outcome.Outputs[0].Filename != "article.md" {
		t.Errorf("filename: got %s, want article.md", outcome.Outputs[0].Filename)
	}

	markdown := artifactText(t, store, outcome.Outputs[0].Key)
	if !strings.Contains(markdown, "# Intro") {
		t.Errorf("markdown missing heading: %q", markdown)
	}
	if !strings.Contains(markdown, "**world**") {
		t.Errorf("markdown missing bold: %q", markdown)
	}
}

// docxBytes builds a minimal .docx archive with the given document body XML.
func docxBytes(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	part, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`
	if _, err := part.Write([]byte(doc)); err != nil {
		t.Fatalf("write part: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func TestWordToText(t *testing.T) {
	sys, store := newSystem(t, &stubRenderer{})

	body := `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/></w:r><w:r><w:t>world</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second</w:t><w:br/><w:t>line</w:t></w:r></w:p>`

	outcome, err := sys.WordToText(context.Background(), engine.Upload{
		Filename: "report.docx",
		Data:     docxBytes(t, body),
	})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if outcome.Outputs[0].Filename != "report.txt" {
		t.Errorf("filename: got %s, want report.txt", outcome.Outputs[0].Filename)
	}

	text := artifactText(t, store, outcome.Outputs[0].Key)
	want := "Hello\tworld\nSecond\nline\n"
	if text != want {
		t.Errorf("text: got %q, want %q", text, want)
	}
	if outcome.Meta["character_count"] != len(want) {
		t.Errorf("character_count: got %v, want %d", outcome.Meta["character_count"], len(want))
	}
}

func TestWordToTextInvalidArchive(t *testing.T) {
	sys, _ := newSystem(t, &stubRenderer{})

	_, err := sys.WordToText(context.Background(), engine.Upload{
		Filename: "broken.docx",
		Data:     []byte("not a zip"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := engine.CodeOf(err); got != engine.CodeProcessing {
		t.Errorf("code: got %s, want %s", got, engine.CodeProcessing)
	}
}

func TestWordToTextMissingDocumentPart(t *testing.T) {
	sys, _ := newSystem(t, &stubRenderer{})

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	part, _ := w.Create("other.xml")
	part.Write([]byte("<x/>"))
	w.Close()

	_, err := sys.WordToText(context.Background(), engine.Upload{Filename: "odd.docx", Data: buf.Bytes()})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := engine.CodeOf(err); got != engine.CodeProcessing {
		t.Errorf("code: got %s, want %s", got, engine.CodeProcessing)
	}
}

// workbookBytes builds a two-sheet workbook with a header and one data row
// per sheet.
func workbookBytes(t *testing.T) []byte {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", "Revenue"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := book.NewSheet("Costs"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}

	for _, sheet := range []string{"Revenue", "Costs"} {
		if err := book.SetCellValue(sheet, "A1", "quarter"); err != nil {
			t.Fatalf("set cell: %v", err)
		}
		if err := book.SetCellValue(sheet, "B1", "amount"); err != nil {
			t.Fatalf("set cell: %v", err)
		}
		if err := book.SetCellValue(sheet, "A2", "Q1"); err != nil {
			t.Fatalf("set cell: %v", err)
		}
		if err := book.SetCellValue(sheet, "B2", 1200); err != nil {
			t.Fatalf("set cell: %v", err)
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestSheetToCSV(t *testing.T) {
	sys, store := newSystem(t, &stubRenderer{})

	outcome, err := sys.SheetToCSV(context.Background(), engine.Upload{
		Filename: "finances.xlsx",
		Data:     workbookBytes(t),
	})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if len(outcome.Outputs) != 2 {
		t.Fatalf("outputs: got %d, want 2", len(outcome.Outputs))
	}
	if outcome.Meta["sheet_count"] != 2 {
		t.Errorf("sheet_count: got %v, want 2", outcome.Meta["sheet_count"])
	}
	if outcome.Outputs[0].Filename != "finances-Revenue.csv" {
		t.Errorf("first output: got %s", outcome.Outputs[0].Filename)
	}

	content := artifactText(t, store, outcome.Outputs[0].Key)
	if !strings.HasPrefix(content, "quarter,amount\n") {
		t.Errorf("csv header: got %q", content)
	}
	if !strings.Contains(content, "Q1,1200") {
		t.Errorf("csv data row missing: %q", content)
	}
}

// flakyStore fails Path once the call budget is spent.
type flakyStore struct {
	artifacts.System
	calls int
	limit int
}

func (s *flakyStore) Path(key string) (string, error) {
	s.calls++
	if s.calls > s.limit {
		return "", errors.New("no space left on device")
	}
	return s.System.Path(key)
}

func TestSheetToCSVFailureLeavesNoOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("store dir: %v", err)
	}
	cfg := artifacts.Config{Dir: dir, Retention: "24h", SweepInterval: "1h", MaxListSize: 50}
	store, err := artifacts.New(&cfg, testLogger())
	if err != nil {
		t.Fatalf("store init: %v", err)
	}

	// the first sheet stages cleanly; the second fails
	flaky := &flakyStore{System: store, limit: 1}
	sys := convert.New(flaky, &stubRenderer{}, testLogger())

	_, err = sys.SheetToCSV(context.Background(), engine.Upload{
		Filename: "finances.xlsx",
		Data:     workbookBytes(t),
	})
	if err == nil {
		t.Fatal("expected error")
	}

	result, err := store.List(context.Background(), "", "", artifacts.MaxListCap)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("stored artifacts after failed conversion: got %d, want 0", len(result.Artifacts))
	}
}

func TestSheetToCSVInvalidWorkbook(t *testing.T) {
	sys, _ := newSystem(t, &stubRenderer{})

	_, err := sys.SheetToCSV(context.Background(), engine.Upload{
		Filename: "broken.xlsx",
		Data:     []byte("not a workbook"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := engine.CodeOf(err); got != engine.CodeProcessing {
		t.Errorf("code: got %s, want %s", got, engine.CodeProcessing)
	}
}

func TestSheetToHTML(t *testing.T) {
	sys, store := newSystem(t, &stubRenderer{})

	outcome, err := sys.SheetToHTML(context.Background(), engine.Upload{
		Filename: "finances.xlsx",
		Data:     workbookBytes(t),
	})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if len(outcome.Outputs) != 1 {
		t.Fatalf("outputs: got %d, want 1", len(outcome.Outputs))
	}
	if outcome.Outputs[0].Filename != "finances.html" {
		t.Errorf("filename: got %s", outcome.Outputs[0].Filename)
	}

	content := artifactText(t, store, outcome.Outputs[0].Key)
	if !strings.Contains(content, "<h2>Revenue</h2>") {
		t.Error("missing Revenue sheet heading")
	}
	if !strings.Contains(content, "<h2>Costs</h2>") {
		t.Error("missing Costs sheet heading")
	}
	if !strings.Contains(content, "<th>quarter</th>") {
		t.Error("first row should render as header cells")
	}
	if !strings.Contains(content, "<td>Q1</td>") {
		t.Error("data rows should render as table cells")
	}
}
