package convert_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foliolabs/folio/internal/engine"
)

func TestHandlerRoutes(t *testing.T) {
	sys, _ := newSystem(t, &stubRenderer{})
	group := sys.Handler(1<<20, "/dl").Routes()

	if group.Prefix != "/convert" {
		t.Errorf("prefix: got %s, want /convert", group.Prefix)
	}
	if len(group.Routes) != 6 {
		t.Errorf("routes: got %d, want 6", len(group.Routes))
	}
	for _, route := range group.Routes {
		if route.Method != "POST" {
			t.Errorf("%s: method got %s, want POST", route.Pattern, route.Method)
		}
	}
}

func TestHandlerConversion(t *testing.T) {
	sys, _ := newSystem(t, &stubRenderer{})
	group := sys.Handler(1<<20, "/api/artifacts/download").Routes()

	var handler http.HandlerFunc
	for _, route := range group.Routes {
		if route.Pattern == "/html-to-markdown" {
			handler = route.Handler
		}
	}
	if handler == nil {
		t.Fatal("missing /html-to-markdown route")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "page.html")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("<h1>Title</h1>"))
	writer.Close()

	req := httptest.NewRequest("POST", "/convert/html-to-markdown", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var parsed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if parsed["success"] != true {
		t.Error("success should be true")
	}
	if parsed["download_url"] == nil {
		t.Error("missing download_url")
	}
}

func TestHandlerMissingFile(t *testing.T) {
	sys, _ := newSystem(t, &stubRenderer{})
	group := sys.Handler(1<<20, "/dl").Routes()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.Close()

	req := httptest.NewRequest("POST", "/convert/word-to-text", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	group.Routes[3].Handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}

	var parsed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if parsed["code"] != string(engine.CodeValidation) {
		t.Errorf("code: got %v", parsed["code"])
	}
}
