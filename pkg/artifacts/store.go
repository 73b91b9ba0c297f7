// Package artifacts provides the shared temp-file directory backing every
// transform invocation: request-unique keys, streamed reads and writes, and
// a retention sweep for entries that escape explicit cleanup.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foliolabs/folio/pkg/lifecycle"
)

// System manages artifact storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the artifact directory.
	Start(lc *lifecycle.Coordinator) error
	// Save streams data to the artifact at the given key.
	Save(ctx context.Context, key string, reader io.Reader) (*Metadata, error)
	// Download returns a stream for the artifact at the given key. The caller
	// must close the body. Returns ErrNotFound if the artifact does not exist.
	Download(ctx context.Context, key string) (*DownloadResult, error)
	// Find returns metadata for the artifact at the given key.
	Find(ctx context.Context, key string) (*Metadata, error)
	// Delete removes the artifact at the given key. Returns ErrNotFound if the
	// artifact does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an artifact exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns artifact metadata filtered by prefix, starting after
	// marker, up to maxResults entries in key order.
	List(ctx context.Context, prefix, marker string, maxResults int32) (*ListResult, error)
	// NewKey derives a request-unique artifact key from a filename.
	NewKey(filename string) string
	// Path resolves a key to its absolute path within the store directory.
	Path(key string) (string, error)
	// Sweep deletes artifacts whose modification time is older than the
	// retention window, returning the number removed.
	Sweep(olderThan time.Duration) (int, error)
}

// Metadata describes a stored artifact.
type Metadata struct {
	Key         string    `json:"key"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentType string    `json:"content_type"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// DownloadResult carries an artifact stream with its content headers.
type DownloadResult struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// ListResult is one page of artifact metadata. NextMarker is set when more
// entries remain beyond maxResults.
type ListResult struct {
	Artifacts  []Metadata `json:"artifacts"`
	NextMarker string     `json:"next_marker,omitempty"`
}

type store struct {
	dir    string
	logger *slog.Logger
}

// New creates an artifact store rooted at the configured directory.
// The directory is created when Start runs.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact dir: %w", err)
	}

	return &store{
		dir:    dir,
		logger: logger.With("system", "artifacts"),
	}, nil
}

func (s *store) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting artifact store")

	lc.OnStartup(func() {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			s.logger.Error("artifact directory initialization failed", "error", err)
			return
		}
		s.logger.Info("artifact directory ready", "dir", s.dir)
	})

	return nil
}

func (s *store) Save(_ context.Context, key string, reader io.Reader) (*Metadata, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact path %s: %w", key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create artifact %s: %w", key, err)
	}

	size, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write artifact %s: %w", key, err)
	}

	return &Metadata{
		Key:         key,
		SizeBytes:   size,
		ContentType: contentTypeForKey(key),
		ModifiedAt:  time.Now(),
	}, nil
}

func (s *store) Download(_ context.Context, key string) (*DownloadResult, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open artifact %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat artifact %s: %w", key, err)
	}

	return &DownloadResult{
		Body:          f,
		ContentType:   contentTypeForKey(key),
		ContentLength: info.Size(),
	}, nil
}

func (s *store) Find(_ context.Context, key string) (*Metadata, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat artifact %s: %w", key, err)
	}

	return &Metadata{
		Key:         key,
		SizeBytes:   info.Size(),
		ContentType: contentTypeForKey(key),
		ModifiedAt:  info.ModTime(),
	}, nil
}

func (s *store) Delete(_ context.Context, key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete artifact %s: %w", key, err)
	}

	return nil
}

func (s *store) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("check artifact existence %s: %w", key, err)
	}

	return true, nil
}

func (s *store) List(_ context.Context, prefix, marker string, maxResults int32) (*ListResult, error) {
	keys := []string{}

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		key, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		key = filepath.ToSlash(key)

		if strings.HasPrefix(key, prefix) && key > marker {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	sort.Strings(keys)

	result := &ListResult{Artifacts: []Metadata{}}
	for _, key := range keys {
		if int32(len(result.Artifacts)) >= maxResults {
			result.NextMarker = result.Artifacts[len(result.Artifacts)-1].Key
			break
		}

		meta, err := s.Find(context.Background(), key)
		if err != nil {
			continue
		}
		result.Artifacts = append(result.Artifacts, *meta)
	}

	return result, nil
}

func (s *store) NewKey(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		base = "artifact"
	}
	return uuid.NewString() + "-" + base
}

func (s *store) Path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

func (s *store) Sweep(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweep artifacts: %w", err)
	}

	return removed, nil
}

func contentTypeForKey(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}
