// Package locate finds Rust source files and the lines in them that may hold
// a derive list.
package locate

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	sderrors "sortderives/internal/errors"
	"sortderives/internal/slogutil"
)

// CandidatePattern is the coarse per-line pre-filter. Lines it selects are
// parsed properly later; it only needs to avoid missing real lists.
const CandidatePattern = `#\[(?:cfg_attr\(.*)?derive\(`

// SourceExt is the extension of files considered in a walk.
const SourceExt = ".rs"

// IgnoreFiles are read in every directory of a walk.
var IgnoreFiles = []string{".gitignore", ".ignore"}

// Options controls what Find searches.
type Options struct {
	// Root is the directory walked when Path is empty. Defaults to ".".
	Root string
	// Path selects a single file. Ignore files and Exclude do not apply.
	Path string
	// Exclude holds gitignore-style globs relative to Root.
	Exclude []string
	// Jobs bounds the number of files read at once. Defaults to GOMAXPROCS.
	Jobs int
}

// FileMatches lists the candidate lines of one file.
type FileMatches struct {
	Path string
	// Lines are 1-based and ascending.
	Lines []int
	// Err is set when the file could not be read. Other files are unaffected.
	Err error
}

// Candidates returns Lines as a set.
func (f FileMatches) Candidates() map[int]bool {
	set := make(map[int]bool, len(f.Lines))
	for _, n := range f.Lines {
		set[n] = true
	}
	return set
}

// Locator walks source trees and greps files for candidate lines.
type Locator struct {
	logger  *slog.Logger
	pattern *regexp.Regexp
}

// NewLocator creates a locator.
func NewLocator(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Locator{
		logger:  logger,
		pattern: regexp.MustCompile(CandidatePattern),
	}
}

// Find returns the files holding at least one candidate line, sorted by path.
// Files that fail to read are included with Err set.
func (l *Locator) Find(ctx context.Context, opts Options) ([]FileMatches, error) {
	start := time.Now()

	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}

	var files []string
	if opts.Path != "" {
		if err := checkSingleFile(opts.Path); err != nil {
			return nil, err
		}
		files = []string{opts.Path}
	} else {
		walked, err := l.walk(ctx, opts)
		if err != nil {
			return nil, err
		}
		files = walked
	}

	results := make([]FileMatches, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lines, err := l.grepFile(path)
			if err != nil {
				l.logger.Warn("Failed to read file", "file", path, "error", err)
				err = sderrors.New(sderrors.IOFailure, "cannot read "+path, err)
			}
			results[i] = FileMatches{Path: path, Lines: lines, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]FileMatches, 0, len(results))
	for _, r := range results {
		if r.Err != nil || len(r.Lines) > 0 {
			matches = append(matches, r)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})

	l.logger.Debug("Locate complete",
		"files", len(files),
		"matches", len(matches),
		"duration", time.Since(start).String())

	return matches, nil
}

func checkSingleFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return sderrors.New(sderrors.InvalidPath, path+" cannot be opened", err)
	}
	if info.IsDir() {
		return sderrors.New(sderrors.InvalidPath, path+" is a directory", nil)
	}
	if filepath.Ext(path) != SourceExt {
		return sderrors.New(sderrors.InvalidPath, path+" is not a Rust source file", nil)
	}
	return nil
}

// ignoreScope is a compiled ignore file together with the directory its
// patterns are relative to.
type ignoreScope struct {
	dir     string
	matcher *ignore.GitIgnore
}

func (s ignoreScope) matches(rel string, isDir bool) bool {
	sub := rel
	if s.dir != "." {
		var ok bool
		sub, ok = strings.CutPrefix(rel, s.dir+"/")
		if !ok {
			return false
		}
	}
	if isDir {
		sub += "/"
	}
	return s.matcher.MatchesPath(sub)
}

// walk collects the .rs files below opts.Root, skipping hidden entries,
// paths matched by ignore files at any level and user excludes.
func (l *Locator) walk(ctx context.Context, opts Options) ([]string, error) {
	var excludes *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		excludes = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	scopes := map[string][]ignoreScope{}
	var files []string

	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Debug("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		parent := filepath.ToSlash(filepath.Dir(rel))

		if rel == "." {
			scopes["."] = l.loadIgnores(path, ".", nil)
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		inherited := scopes[parent]
		if ignored(inherited, excludes, rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			scopes[rel] = l.loadIgnores(path, rel, inherited)
			return nil
		}

		if d.Type().IsRegular() && filepath.Ext(path) == SourceExt {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func ignored(scopes []ignoreScope, excludes *ignore.GitIgnore, rel string, isDir bool) bool {
	if excludes != nil {
		p := rel
		if isDir {
			p += "/"
		}
		if excludes.MatchesPath(p) {
			return true
		}
	}
	for _, s := range scopes {
		if s.matches(rel, isDir) {
			return true
		}
	}
	return false
}

// loadIgnores returns the scopes in effect inside dir: the inherited ones
// plus any ignore files found in dir itself.
func (l *Locator) loadIgnores(dir, rel string, inherited []ignoreScope) []ignoreScope {
	scopes := inherited
	for _, name := range IgnoreFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		m, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			l.logger.Warn("Failed to read ignore file", "file", path, "error", err)
			continue
		}
		scopes = append(scopes[:len(scopes):len(scopes)], ignoreScope{dir: rel, matcher: m})
	}
	return scopes
}

// grepFile returns the 1-based numbers of lines matching the candidate pattern.
func (l *Locator) grepFile(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lines []int
	for i, line := range bytes.SplitAfter(data, []byte("\n")) {
		if l.pattern.Match(line) {
			lines = append(lines, i+1)
		}
	}
	return lines, nil
}
