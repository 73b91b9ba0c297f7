package engine

import "os"

// Scope tracks every file created on behalf of one pipeline invocation.
// ReleaseAll runs on every exit path; only promoted paths survive it.
type Scope struct {
	paths    []string
	promoted map[string]bool
}

// NewScope creates an empty Scope.
func NewScope() *Scope {
	return &Scope{promoted: make(map[string]bool)}
}

// Register adds a path to the invocation's cleanup set.
func (s *Scope) Register(path string) {
	s.paths = append(s.paths, path)
}

// Promote exempts a declared output from cleanup.
func (s *Scope) Promote(path string) {
	s.promoted[path] = true
}

// ReleaseAll deletes every registered, unpromoted path in reverse
// registration order. Registered directories are removed with their
// contents, so a directory holding promoted files must itself be promoted.
// Deletion is best-effort: missing files are ignored.
func (s *Scope) ReleaseAll() {
	for i := len(s.paths) - 1; i >= 0; i-- {
		path := s.paths[i]
		if s.promoted[path] {
			continue
		}

		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			os.RemoveAll(path)
			continue
		}
		os.Remove(path)
	}
}
