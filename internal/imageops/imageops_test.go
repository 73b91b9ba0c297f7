package imageops_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/foliolabs/folio/internal/engine"
	"github.com/foliolabs/folio/internal/imageops"
	"github.com/foliolabs/folio/pkg/artifacts"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSystem(t *testing.T) (imageops.System, artifacts.System) {
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
	return imageops.New(store, testLogger()), store
}

func pngUpload(t *testing.T, filename string, width, height int) engine.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return engine.Upload{Filename: filename, Data: buf.Bytes()}
}

func artifactBytes(t *testing.T, store artifacts.System, key string) []byte {
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
	return data
}

func requireCode(t *testing.T, err error, code engine.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := engine.CodeOf(err); got != code {
		t.Fatalf("code: got %s, want %s (%v)", got, code, err)
	}
}

func TestConvertToJPEG(t *testing.T) {
	sys, store := newSystem(t)

	outcome, err := sys.Convert(context.Background(), pngUpload(t, "photo.png", 32, 16), "jpeg", 90)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if outcome.Outputs[0].Filename != "photo.jpg" {
		t.Errorf("filename: got %s, want photo.jpg", outcome.Outputs[0].Filename)
	}
	if outcome.Meta["source_format"] != "png" || outcome.Meta["target_format"] != "jpeg" {
		t.Errorf("formats: got %v -> %v", outcome.Meta["source_format"], outcome.Meta["target_format"])
	}
	if outcome.Meta["width"] != 32 || outcome.Meta["height"] != 16 {
		t.Errorf("dimensions: got %vx%v", outcome.Meta["width"], outcome.Meta["height"])
	}

	data := artifactBytes(t, store, outcome.Outputs[0].Key)
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a jpeg: %v", err)
	}
}

func TestConvertUnsupportedFormat(t *testing.T) {
	sys, _ := newSystem(t)

	_, err := sys.Convert(context.Background(), pngUpload(t, "photo.png", 8, 8), "gif", 90)
	requireCode(t, err, engine.CodeValidation)
}

func TestConvertBadQuality(t *testing.T) {
	sys, _ := newSystem(t)

	_, err := sys.Convert(context.Background(), pngUpload(t, "photo.png", 8, 8), "jpeg", 0)
	requireCode(t, err, engine.CodeValidation)
}

func TestConvertUndecodableInput(t *testing.T) {
	sys, _ := newSystem(t)

	_, err := sys.Convert(context.Background(), engine.Upload{Filename: "junk.png", Data: []byte("not an image")}, "png", 90)
	requireCode(t, err, engine.CodeProcessing)
}

func TestResizeBothDimensions(t *testing.T) {
	sys, store := newSystem(t)

	outcome, err := sys.Resize(context.Background(), pngUpload(t, "photo.png", 100, 50), 40, 30, "png", 90)
	if err != nil {
		t.Fatalf("resize failed: %v", err)
	}

	if outcome.Meta["width"] != 40 || outcome.Meta["height"] != 30 {
		t.Errorf("dimensions: got %vx%v, want 40x30", outcome.Meta["width"], outcome.Meta["height"])
	}

	data := artifactBytes(t, store, outcome.Outputs[0].Key)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("output size: got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestResizeDerivesHeight(t *testing.T) {
	sys, _ := newSystem(t)

	outcome, err := sys.Resize(context.Background(), pngUpload(t, "photo.png", 100, 50), 40, 0, "png", 90)
	if err != nil {
		t.Fatalf("resize failed: %v", err)
	}

	if outcome.Meta["width"] != 40 || outcome.Meta["height"] != 20 {
		t.Errorf("dimensions: got %vx%v, want 40x20", outcome.Meta["width"], outcome.Meta["height"])
	}
	if outcome.Meta["original_width"] != 100 {
		t.Errorf("original_width: got %v", outcome.Meta["original_width"])
	}
}

func TestResizeDerivesWidth(t *testing.T) {
	sys, _ := newSystem(t)

	outcome, err := sys.Resize(context.Background(), pngUpload(t, "photo.png", 100, 50), 0, 25, "png", 90)
	if err != nil {
		t.Fatalf("resize failed: %v", err)
	}

	if outcome.Meta["width"] != 50 || outcome.Meta["height"] != 25 {
		t.Errorf("dimensions: got %vx%v, want 50x25", outcome.Meta["width"], outcome.Meta["height"])
	}
}

func TestResizeNoDimensions(t *testing.T) {
	sys, _ := newSystem(t)

	_, err := sys.Resize(context.Background(), pngUpload(t, "photo.png", 8, 8), 0, 0, "png", 90)
	requireCode(t, err, engine.CodeValidation)
}

func TestResizeNegativeDimension(t *testing.T) {
	sys, _ := newSystem(t)

	_, err := sys.Resize(context.Background(), pngUpload(t, "photo.png", 8, 8), -10, 20, "png", 90)
	requireCode(t, err, engine.CodeValidation)
}

func TestHandlerRoutes(t *testing.T) {
	sys, _ := newSystem(t)
	group := sys.Handler(1<<20, "/dl").Routes()

	if group.Prefix != "/image" {
		t.Errorf("prefix: got %s, want /image", group.Prefix)
	}
	if len(group.Routes) != 2 {
		t.Errorf("routes: got %d, want 2", len(group.Routes))
	}
}
