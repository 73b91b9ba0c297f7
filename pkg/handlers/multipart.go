package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoFile indicates the expected multipart file field was missing.
var ErrNoFile = errors.New("no file provided")

// NamedFile is one uploaded file read fully off a multipart request.
type NamedFile struct {
	Filename string
	Data     []byte
}

// FormFile reads a single uploaded file from the named multipart field.
// The caller must have parsed the multipart form already.
func FormFile(r *http.Request, field string) (*NamedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}

	return &NamedFile{Filename: header.Filename, Data: data}, nil
}

// FormFiles reads every uploaded file from the named multipart field in
// submission order.
func FormFiles(r *http.Request, field string) ([]NamedFile, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, ErrNoFile
	}

	headers := r.MultipartForm.File[field]
	files := make([]NamedFile, 0, len(headers))

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", header.Filename, err)
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", header.Filename, err)
		}

		files = append(files, NamedFile{Filename: header.Filename, Data: data})
	}

	return files, nil
}
