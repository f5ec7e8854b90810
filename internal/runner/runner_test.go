package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sderrors "sortderives/internal/errors"
)

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_Write(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.rs"), "#[derive(Debug, Clone)]\nstruct A;\n", 0o640)
	writeFile(t, filepath.Join(root, "b.rs"), "#[derive(Clone, Debug)]\nstruct B;\n", 0o644)
	writeFile(t, filepath.Join(root, "c.rs"), "struct C;\n", 0o644)

	summary, err := New(nil).Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, ModeWrite, summary.Mode)
	assert.Equal(t, 2, summary.Matched, "c.rs has no candidate lines")
	assert.Equal(t, 1, summary.Changed)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.HasDiff())
	assert.False(t, summary.HasErrors())

	require.Len(t, summary.Files, 2)
	a := summary.Files[0]
	assert.Equal(t, filepath.Join(root, "a.rs"), a.Path)
	assert.True(t, a.Written)
	assert.Equal(t, []Change{{Line: 1, Old: "#[derive(Debug, Clone)]", New: "#[derive(Clone, Debug)]"}}, a.Changes)
	assert.False(t, summary.Files[1].Written)

	assert.Equal(t, "#[derive(Clone, Debug)]\nstruct A;\n", readFile(t, filepath.Join(root, "a.rs")))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, "a.rs"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	}
}

func TestRun_Check(t *testing.T) {
	root := t.TempDir()
	src := "#[derive(Debug, Clone)]\nstruct A;\n"
	writeFile(t, filepath.Join(root, "a.rs"), src, 0o644)

	summary, err := New(nil).Run(context.Background(), Options{Root: root, Check: true})
	require.NoError(t, err)

	assert.Equal(t, ModeCheck, summary.Mode)
	assert.True(t, summary.HasDiff())
	assert.False(t, summary.Files[0].Written)
	assert.Equal(t, src, readFile(t, filepath.Join(root, "a.rs")), "check mode must not modify files")
	assert.Equal(t, []string{"#[derive(Debug, Clone)]\n", "struct A;\n"}, summary.Files[0].Old)
	assert.Equal(t, []string{"#[derive(Clone, Debug)]\n", "struct A;\n"}, summary.Files[0].New)
}

func TestRun_OrderAndPreserve(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.rs")
	writeFile(t, path, "#[derive(Eq, Default, PartialEq, Clone, Debug, Hash, Copy)]\n", 0o644)

	_, err := New(nil).Run(context.Background(), Options{
		Root:     root,
		Order:    []string{"Default", "Debug"},
		Preserve: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "#[derive(Default, Debug, Eq, PartialEq, Clone, Hash, Copy)]\n", readFile(t, path))
}

func TestRun_MalformedOrderTouchesNothing(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.rs")
	src := "#[derive(Debug, Clone)]\n"
	writeFile(t, path, src, 0o644)

	_, err := New(nil).Run(context.Background(), Options{
		Root:  root,
		Order: []string{"...", "Debug", "..."},
	})

	require.Error(t, err)
	assert.Equal(t, sderrors.MalformedOrderSpec, sderrors.CodeOf(err))
	assert.Equal(t, src, readFile(t, path))
}

func TestRun_SinglePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.rs"), "#[derive(B, A)]\n", 0o644)
	writeFile(t, filepath.Join(root, "b.rs"), "#[derive(B, A)]\n", 0o644)

	summary, err := New(nil).Run(context.Background(), Options{Path: filepath.Join(root, "b.rs")})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, "#[derive(B, A)]\n", readFile(t, filepath.Join(root, "a.rs")))
	assert.Equal(t, "#[derive(A, B)]\n", readFile(t, filepath.Join(root, "b.rs")))
}

func TestRun_InvalidPath(t *testing.T) {
	_, err := New(nil).Run(context.Background(), Options{Path: t.TempDir()})
	require.Error(t, err)
	assert.Equal(t, sderrors.InvalidPath, sderrors.CodeOf(err))
}

func TestRun_PerFileFailureIsIsolated(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("file permissions are not enforced")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "a.rs")
	writeFile(t, locked, "#[derive(B, A)]\n", 0o444)
	writeFile(t, filepath.Join(root, "b.rs"), "#[derive(B, A)]\n", 0o644)

	summary, err := New(nil).Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Changed)
	assert.True(t, summary.HasErrors())
	assert.Equal(t, sderrors.IOFailure, sderrors.CodeOf(summary.Files[0].Err))
	assert.NotEmpty(t, summary.Files[0].Error)
	assert.Equal(t, "#[derive(A, B)]\n", readFile(t, filepath.Join(root, "b.rs")))
}

func TestRun_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.rs"), "#[derive(B, A)]\n", 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Run(ctx, Options{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}
