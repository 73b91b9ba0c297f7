package artifacts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// MaxListCap is the hard upper bound on listing page sizes.
const MaxListCap int32 = 5000

var (
	// ErrNotFound indicates the requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrEmptyKey indicates an empty artifact key was provided.
	ErrEmptyKey = errors.New("artifact key must not be empty")
	// ErrInvalidKey indicates the artifact key contains a path traversal segment.
	ErrInvalidKey = errors.New("artifact key contains invalid path segment")
)

// MapHTTPStatus maps artifact store errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrInvalidKey) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ParseMaxResults parses a max_results query value, returning the fallback
// for an empty string and clamping valid values to MaxListCap.
func ParseMaxResults(s string, fallback int32) (int32, error) {
	if s == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max_results: %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("max_results must be positive: %d", n)
	}

	return min(int32(n), MaxListCap), nil
}
