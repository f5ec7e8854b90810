// Package testutil provides fixture trees and golden comparison for
// end-to-end tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// FixtureContext holds information about a loaded fixture set.
type FixtureContext struct {
	// Set is the expected set name, e.g. "default" or "order_preserve"
	Set string

	// InputDir is the shared input tree every set starts from
	InputDir string

	// ExpectedDir is the tree the input must turn into
	ExpectedDir string
}

// LoadFixture loads an expected set, failing the test on error.
// With -update a missing set directory is created.
func LoadFixture(t *testing.T, set string) *FixtureContext {
	t.Helper()

	root := getFixturesRoot(t)
	inputDir := filepath.Join(root, "input")
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		t.Fatalf("Fixture input not found: %s", inputDir)
	}

	expectedDir := filepath.Join(root, "expected", set)
	if _, err := os.Stat(expectedDir); os.IsNotExist(err) {
		if !ShouldUpdate() {
			t.Fatalf("Expected set not found: %s\nRun with -update to create it", expectedDir)
		}
		if err := os.MkdirAll(expectedDir, 0o755); err != nil {
			t.Fatalf("Failed to create expected directory: %v", err)
		}
	}

	return &FixtureContext{
		Set:         set,
		InputDir:    inputDir,
		ExpectedDir: expectedDir,
	}
}

// ExpectedPath returns the path of a file within the expected set.
func (f *FixtureContext) ExpectedPath(rel string) string {
	return filepath.Join(f.ExpectedDir, filepath.FromSlash(rel))
}

// CopyInput copies the input tree into a fresh temporary directory and
// returns its path.
func (f *FixtureContext) CopyInput(t *testing.T) string {
	t.Helper()

	dst := t.TempDir()
	for _, rel := range ListFiles(t, f.InputDir) {
		data, err := os.ReadFile(filepath.Join(f.InputDir, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("Failed to read fixture: %v", err)
		}
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			t.Fatalf("Failed to write fixture copy: %v", err)
		}
	}
	return dst
}

// ListFiles returns the slash-separated paths of all regular files below
// dir, sorted. Hidden files are skipped.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to list %s: %v", dir, err)
	}
	sort.Strings(files)
	return files
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}

// AvailableSets returns the names of the expected sets on disk.
func AvailableSets(t *testing.T) []string {
	t.Helper()

	root := filepath.Join(getFixturesRoot(t), "expected")
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var sets []string
	for _, entry := range entries {
		if entry.IsDir() && !isHidden(entry.Name()) {
			sets = append(sets, entry.Name())
		}
	}
	return sets
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
