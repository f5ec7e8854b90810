// Package paths turns file system paths into the forms shown to users.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a path relative to base
// - Resolves symlinks to real paths
// - Makes path relative to base
// - Returns the relative path with forward slashes
func CanonicalizePath(absolutePath string, base string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	baseResolved, err := filepath.EvalSymlinks(base)
	if err != nil {
		if os.IsNotExist(err) {
			baseResolved = base
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(baseResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithin checks if a path is inside the base directory
func IsWithin(path string, base string) bool {
	canonical, err := CanonicalizePath(path, base)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts the OS separator to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// Display returns the form of path printed in reports: relative to base
// when path lies inside it, otherwise path unchanged. Separators are always
// forward slashes. An empty base only normalizes separators.
func Display(path string, base string) string {
	if base == "" {
		return NormalizePath(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return NormalizePath(path)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return NormalizePath(path)
	}

	if !IsWithin(abs, absBase) {
		return NormalizePath(path)
	}
	rel, err := CanonicalizePath(abs, absBase)
	if err != nil {
		return NormalizePath(path)
	}
	return rel
}
