package testutil

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	// updateGolden controls whether golden files should be updated.
	// Use: go test ./... -run TestFixtures -update
	updateGolden = flag.Bool("update", false, "update golden files")

	// goldenSet filters which expected sets to test.
	// Use: go test ./... -run TestFixtures -goldenSet=default,order
	goldenSet = flag.String("goldenSet", "", "filter expected sets (comma-separated)")
)

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// ShouldTestSet returns true if the given expected set should be tested.
func ShouldTestSet(set string) bool {
	if *goldenSet == "" {
		return true
	}
	for _, s := range strings.Split(*goldenSet, ",") {
		if strings.TrimSpace(s) == set {
			return true
		}
	}
	return false
}

// CompareTree compares every file below gotDir with the same path in the
// expected set, failing with a diff per mismatching file. Both trees must
// hold the same files. With -update the expected set is rewritten instead.
func CompareTree(t *testing.T, fixture *FixtureContext, gotDir string) {
	t.Helper()

	got := ListFiles(t, gotDir)

	if *updateGolden {
		if err := os.RemoveAll(fixture.ExpectedDir); err != nil {
			t.Fatalf("Failed to clear expected set: %v", err)
		}
		for _, rel := range got {
			data, err := os.ReadFile(filepath.Join(gotDir, filepath.FromSlash(rel)))
			if err != nil {
				t.Fatalf("Failed to read output: %v", err)
			}
			UpdateGolden(t, fixture, rel, data)
		}
		t.Logf("Updated expected set: %s", fixture.ExpectedDir)
		return
	}

	want := ListFiles(t, fixture.ExpectedDir)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("File sets differ for %s:\n  got:  %v\n  want: %v", fixture.Set, got, want)
	}

	for _, rel := range got {
		gotData, err := os.ReadFile(filepath.Join(gotDir, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("Failed to read output: %v", err)
		}
		wantData, err := os.ReadFile(fixture.ExpectedPath(rel))
		if err != nil {
			t.Fatalf("Failed to read golden file: %v", err)
		}
		if !bytes.Equal(gotData, wantData) {
			t.Errorf("Golden mismatch for %s/%s:\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
				fixture.Set, rel, unifiedDiff(string(wantData), string(gotData), rel), t.Name())
		}
	}
}

// UpdateGolden writes data to a file of the expected set.
// Creates parent directories if they don't exist.
func UpdateGolden(t *testing.T, fixture *FixtureContext, rel string, data []byte) {
	t.Helper()

	goldenPath := fixture.ExpectedPath(rel)
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		t.Fatalf("Failed to create expected directory: %v", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		t.Fatalf("Failed to write golden file: %v", err)
	}
}

// unifiedDiff renders the difference between the expected and actual text.
func unifiedDiff(expected, got, path string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(got),
		FromFile: path + " (expected)",
		ToFile:   path + " (got)",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

// ForEachSet runs fn for each available expected set.
// Respects the -goldenSet flag.
func ForEachSet(t *testing.T, fn func(t *testing.T, fixture *FixtureContext)) {
	t.Helper()

	sets := AvailableSets(t)
	if len(sets) == 0 {
		t.Skip("No fixtures available")
	}

	for _, set := range sets {
		if !ShouldTestSet(set) {
			continue
		}
		t.Run(set, func(t *testing.T) {
			fn(t, LoadFixture(t, set))
		})
	}
}
