package locate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sderrors "sortderives/internal/errors"
)

const withDerives = `
#[derive(Debug)]
struct A;

#[cfg_attr(test, derive(Clone, Copy))]
struct B;
`

const withoutDerives = `
struct A;
`

var withDerivesLines = []int{2, 5}

type file struct {
	path    string
	content string
	match   bool
}

func setup(t *testing.T, files []file) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		write(t, filepath.Join(root, f.path), f.content)
	}
	return root
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func expected(root string, files []file) []FileMatches {
	var want []FileMatches
	for _, f := range files {
		if f.match {
			want = append(want, FileMatches{Path: filepath.Join(root, f.path), Lines: withDerivesLines})
		}
	}
	if want == nil {
		want = []FileMatches{}
	}
	return want
}

func find(t *testing.T, opts Options) []FileMatches {
	t.Helper()
	got, err := NewLocator(nil).Find(context.Background(), opts)
	require.NoError(t, err)
	return got
}

func TestFind_AllFiles(t *testing.T) {
	files := []file{
		{"a.rs", withDerives, true},
		{"b.rs", withDerives, true},
		{"c.rs", withoutDerives, false},
		{"x/xa.rs", withDerives, true},
		{"x/xb.txt", withDerives, false},
		{"x/y/ya.rs", withDerives, true},
		{"x/z/za.rs", withDerives, true},
		{".hidden/h.rs", withDerives, false},
		{"x/.h.rs", withDerives, false},
	}
	root := setup(t, files)

	got := find(t, Options{Root: root, Jobs: 2})

	assert.Equal(t, expected(root, files), got)
}

func TestFind_Exclude(t *testing.T) {
	files := []file{
		{"a.rs", withDerives, true},
		{"b.rs", withDerives, false},
		{"x/xa.rs", withDerives, false},
		{"x/xb.rs", withDerives, false},
		{"x/y/ya.rs", withDerives, false},
		{"x/z/za.rs", withDerives, false},
		{"o/oa.rs", withDerives, true},
		{"o/p/pa.rs", withDerives, false},
		{"o/p/pb.rs", withDerives, true},
		{"k/l/m/n/na.rs", withDerives, false},
	}
	root := setup(t, files)

	got := find(t, Options{
		Root:    root,
		Exclude: []string{"b.rs", "x/*", "pa.rs", "k/**/na.rs"},
	})

	assert.Equal(t, expected(root, files), got)
}

func TestFind_IgnoreFiles(t *testing.T) {
	files := []file{
		{"a.rs", withDerives, true},
		{"b.rs", withDerives, false},
		{"x/xa.rs", withDerives, true},
		{"x/xb.rs", withDerives, true},
		{"x/y/ya.rs", withDerives, false},
		{"x/z/za.rs", withDerives, true},
		{"x/z/zb.rs", withDerives, false},
		{"target/debug/t.rs", withDerives, false},
	}
	root := setup(t, files)
	write(t, filepath.Join(root, ".ignore"), "b.rs\nx/y/*\n")
	write(t, filepath.Join(root, ".gitignore"), "/target/\n")
	write(t, filepath.Join(root, "x", "z", ".gitignore"), "zb.rs\n")

	got := find(t, Options{Root: root})

	assert.Equal(t, expected(root, files), got)
}

func TestFind_NestedIgnoreIsScoped(t *testing.T) {
	files := []file{
		{"a.rs", withDerives, true},
		{"x/a.rs", withDerives, false},
	}
	root := setup(t, files)
	write(t, filepath.Join(root, "x", ".ignore"), "/a.rs\n")

	got := find(t, Options{Root: root})

	assert.Equal(t, expected(root, files), got)
}

func TestFind_SingleFile(t *testing.T) {
	files := []file{
		{"a.rs", withDerives, false},
		{"x/xa.rs", withDerives, true},
		{"x/xb.rs", withDerives, false},
	}
	root := setup(t, files)
	// Ignore files do not apply to an explicit path.
	write(t, filepath.Join(root, ".ignore"), "x/xa.rs\n")

	got := find(t, Options{Root: root, Path: filepath.Join(root, "x", "xa.rs")})

	assert.Equal(t, expected(root, files), got)
}

func TestFind_SingleFileErrors(t *testing.T) {
	root := setup(t, []file{
		{"x/xa.rs", withDerives, true},
		{"x/xa.txt", withDerives, false},
	})

	for name, path := range map[string]string{
		"directory": filepath.Join(root, "x"),
		"not rust":  filepath.Join(root, "x", "xa.txt"),
		"missing":   filepath.Join(root, "x", "nope.rs"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewLocator(nil).Find(context.Background(), Options{Path: path})
			require.Error(t, err)
			assert.Equal(t, sderrors.InvalidPath, sderrors.CodeOf(err))
		})
	}
}

func TestFind_NoMatches(t *testing.T) {
	root := setup(t, []file{{"c.rs", withoutDerives, false}})
	assert.Empty(t, find(t, Options{Root: root}))
}

func TestFind_Cancelled(t *testing.T) {
	root := setup(t, []file{{"a.rs", withDerives, true}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocator(nil).Find(ctx, Options{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileMatchesCandidates(t *testing.T) {
	fm := FileMatches{Lines: []int{2, 5}}
	assert.Equal(t, map[int]bool{2: true, 5: true}, fm.Candidates())
}
