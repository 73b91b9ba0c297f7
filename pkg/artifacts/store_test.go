package artifacts_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foliolabs/folio/pkg/artifacts"
	"github.com/foliolabs/folio/pkg/lifecycle"
)

func setupStore(t *testing.T) artifacts.System {
	t.Helper()

	cfg := &artifacts.Config{Dir: t.TempDir()}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("config finalize failed: %v", err)
	}

	store, err := artifacts.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}

	lc := lifecycle.New()
	if err := store.Start(lc); err != nil {
		t.Fatalf("store start failed: %v", err)
	}
	lc.WaitForStartup()

	return store
}

func TestSaveAndDownload(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	meta, err := store.Save(ctx, "report.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if meta.SizeBytes != int64(len("pdf bytes")) {
		t.Errorf("size_bytes: got %d, want %d", meta.SizeBytes, len("pdf bytes"))
	}
	if meta.ContentType != "application/pdf" {
		t.Errorf("content_type: got %s, want application/pdf", meta.ContentType)
	}

	result, err := store.Download(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	defer result.Body.Close()

	data, _ := io.ReadAll(result.Body)
	if string(data) != "pdf bytes" {
		t.Errorf("body: got %q, want %q", data, "pdf bytes")
	}
	if result.ContentLength != int64(len("pdf bytes")) {
		t.Errorf("content_length: got %d", result.ContentLength)
	}
}

func TestDownloadNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.Download(context.Background(), "missing.pdf")
	if !errors.Is(err, artifacts.ErrNotFound) {
		t.Errorf("error: got %v, want ErrNotFound", err)
	}
}

func TestFindAndExists(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "doc.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := store.Find(ctx, "doc.txt")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if meta.Key != "doc.txt" {
		t.Errorf("key: got %s, want doc.txt", meta.Key)
	}

	exists, err := store.Exists(ctx, "doc.txt")
	if err != nil || !exists {
		t.Errorf("exists: got %v, %v, want true", exists, err)
	}

	exists, err = store.Exists(ctx, "absent.txt")
	if err != nil || exists {
		t.Errorf("exists for absent key: got %v, %v, want false", exists, err)
	}
}

func TestDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "doc.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.Delete(ctx, "doc.txt"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(ctx, "doc.txt"); !errors.Is(err, artifacts.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestKeyValidation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		want error
	}{
		{name: "empty key", key: "", want: artifacts.ErrEmptyKey},
		{name: "path traversal", key: "../escape.pdf", want: artifacts.ErrInvalidKey},
		{name: "embedded traversal", key: "a/../../b.pdf", want: artifacts.ErrInvalidKey},
		{name: "absolute path", key: "/etc/passwd", want: artifacts.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, tt.key, strings.NewReader("x"))
			if !errors.Is(err, tt.want) {
				t.Errorf("save error: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, key := range []string{"a.pdf", "b.pdf", "c.pdf", "other.txt"} {
		if _, err := store.Save(ctx, key, strings.NewReader("x")); err != nil {
			t.Fatalf("save %s failed: %v", key, err)
		}
	}

	t.Run("all keys in order", func(t *testing.T) {
		result, err := store.List(ctx, "", "", 10)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(result.Artifacts) != 4 {
			t.Fatalf("artifacts: got %d, want 4", len(result.Artifacts))
		}
		if result.NextMarker != "" {
			t.Errorf("next_marker: got %q, want empty", result.NextMarker)
		}
	})

	t.Run("prefix filter", func(t *testing.T) {
		result, err := store.List(ctx, "b", "", 10)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(result.Artifacts) != 1 || result.Artifacts[0].Key != "b.pdf" {
			t.Errorf("artifacts: got %v", result.Artifacts)
		}
	})

	t.Run("marker pagination", func(t *testing.T) {
		first, err := store.List(ctx, "", "", 2)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(first.Artifacts) != 2 || first.NextMarker != first.Artifacts[1].Key {
			t.Fatalf("first page: got %d artifacts, marker %q", len(first.Artifacts), first.NextMarker)
		}

		second, err := store.List(ctx, "", first.NextMarker, 10)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(second.Artifacts) != 2 {
			t.Errorf("second page: got %d artifacts, want 2", len(second.Artifacts))
		}
	})
}

func TestNewKeyUnique(t *testing.T) {
	store := setupStore(t)

	seen := make(map[string]bool)
	for range 10 {
		key := store.NewKey("upload.pdf")
		if !strings.HasSuffix(key, "-upload.pdf") {
			t.Errorf("key %q missing filename suffix", key)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	cfg := &artifacts.Config{Dir: dir}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("config finalize failed: %v", err)
	}

	store, err := artifacts.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}

	lc := lifecycle.New()
	store.Start(lc)
	lc.WaitForStartup()

	ctx := context.Background()
	for i := range 3 {
		key := fmt.Sprintf("old-%d.pdf", i)
		if _, err := store.Save(ctx, key, strings.NewReader("x")); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if _, err := store.Save(ctx, "fresh.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// age the old entries past the retention cutoff
	stale := time.Now().Add(-48 * time.Hour)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasPrefix(d.Name(), "old-") {
			return err
		}
		return os.Chtimes(path, stale, stale)
	})
	if err != nil {
		t.Fatalf("aging entries failed: %v", err)
	}

	removed, err := store.Sweep(24 * time.Hour)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed: got %d, want 3", removed)
	}

	if exists, _ := store.Exists(ctx, "fresh.pdf"); !exists {
		t.Error("sweep deleted an artifact inside the retention window")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "not found maps to 404",
			err:  artifacts.ErrNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "wrapped not found maps to 404",
			err:  fmt.Errorf("operation failed: %w", artifacts.ErrNotFound),
			want: http.StatusNotFound,
		},
		{
			name: "invalid key maps to 400",
			err:  artifacts.ErrInvalidKey,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown error maps to 500",
			err:  errors.New("unexpected failure"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := artifacts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseMaxResults(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback int32
		want     int32
		wantErr  bool
	}{
		{
			name:     "empty returns fallback",
			input:    "",
			fallback: 50,
			want:     50,
		},
		{
			name:     "valid value within cap",
			input:    "100",
			fallback: 50,
			want:     100,
		},
		{
			name:     "value exceeding cap is clamped",
			input:    "9999",
			fallback: 50,
			want:     artifacts.MaxListCap,
		},
		{
			name:     "zero is invalid",
			input:    "0",
			fallback: 50,
			wantErr:  true,
		},
		{
			name:     "non-numeric is invalid",
			input:    "abc",
			fallback: 50,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := artifacts.ParseMaxResults(tt.input, tt.fallback)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMaxResults(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMaxResults(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMaxResults(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
