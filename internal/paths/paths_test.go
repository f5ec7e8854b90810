package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("struct S;\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestCanonicalizePath(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "src", "lib.rs")
	writeFile(t, testFile)

	canonical, err := CanonicalizePath(testFile, tempDir)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}

	expected := "src/lib.rs"
	if canonical != expected {
		t.Errorf("Expected %s, got %s", expected, canonical)
	}
}

func TestCanonicalizePath_Missing(t *testing.T) {
	tempDir := t.TempDir()

	canonical, err := CanonicalizePath(filepath.Join(tempDir, "gone.rs"), tempDir)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if canonical != "gone.rs" {
		t.Errorf("Expected gone.rs, got %s", canonical)
	}
}

func TestCanonicalizePath_Symlink(t *testing.T) {
	tempDir := t.TempDir()
	realDir := filepath.Join(tempDir, "real")
	writeFile(t, filepath.Join(realDir, "a.rs"))

	link := filepath.Join(tempDir, "link")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	canonical, err := CanonicalizePath(filepath.Join(link, "a.rs"), tempDir)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if canonical != "real/a.rs" {
		t.Errorf("Expected real/a.rs, got %s", canonical)
	}
}

func TestNormalizePath(t *testing.T) {
	result := NormalizePath("path/to/file.rs")
	expected := "path/to/file.rs"
	if result != expected {
		t.Errorf("NormalizePath(path/to/file.rs): expected %s, got %s", expected, result)
	}
}

func TestIsWithin(t *testing.T) {
	tempDir := t.TempDir()
	inside := filepath.Join(tempDir, "crate", "src", "main.rs")
	writeFile(t, inside)

	if !IsWithin(inside, tempDir) {
		t.Error("Expected file to be within base")
	}

	if IsWithin(filepath.Dir(tempDir), tempDir) {
		t.Error("Expected parent directory to be outside base")
	}

	// A sibling whose name starts with two dots is still inside
	dotted := filepath.Join(tempDir, "..hidden.rs")
	writeFile(t, dotted)
	if !IsWithin(dotted, tempDir) {
		t.Error("Expected ..hidden.rs to be within base")
	}
}

func TestDisplay(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "src", "lib.rs")
	writeFile(t, inside)
	outside := filepath.Join(t.TempDir(), "other.rs")
	writeFile(t, outside)

	tests := []struct {
		name string
		path string
		base string
		want string
	}{
		{"inside base", inside, base, "src/lib.rs"},
		{"outside base", outside, base, filepath.ToSlash(outside)},
		{"no base", filepath.Join("src", "lib.rs"), "", "src/lib.rs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.path, tt.base); got != tt.want {
				t.Errorf("Display(%q, %q) = %q, want %q", tt.path, tt.base, got, tt.want)
			}
		})
	}
}
