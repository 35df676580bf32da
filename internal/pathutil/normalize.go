package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize returns a canonical filesystem path string.
// It removes trailing slashes, collapses "." and "..", and
// preserves relative paths when provided.
func Normalize(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}

// Canonical resolves path to an absolute, symlink-free form. When the links
// cannot be evaluated the cleaned absolute path is returned with the error.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Normalize(path), err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Normalize(abs), err
	}
	return resolved, nil
}

// IsWithin reports whether target is root or lies below it. Both paths are
// expected to be canonical.
func IsWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Rel returns target relative to base using forward slashes, or "." when they
// are the same directory.
func Rel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}
