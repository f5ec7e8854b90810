// Package runner drives a whole sort-derives invocation: it validates the
// custom order, locates candidate files and processes them concurrently.
package runner

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sortderives/internal/derive"
	sderrors "sortderives/internal/errors"
	"sortderives/internal/locate"
	"sortderives/internal/order"
	"sortderives/internal/rewrite"
	"sortderives/internal/slogutil"
)

// Mode says whether files are rewritten or only compared.
type Mode string

const (
	ModeWrite Mode = "write"
	ModeCheck Mode = "check"
)

// Options configures one run.
type Options struct {
	Root     string
	Path     string
	Exclude  []string
	Order    []string
	Preserve bool
	Check    bool
	Jobs     int
}

// Change is one rewritten line, without its terminator.
type Change struct {
	Line int    `json:"line" yaml:"line"`
	Old  string `json:"old" yaml:"old"`
	New  string `json:"new" yaml:"new"`
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path    string   `json:"path" yaml:"path"`
	Changes []Change `json:"changes,omitempty" yaml:"changes,omitempty"`
	Written bool     `json:"written,omitempty" yaml:"written,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`

	// Old and New are the full line sequences, kept for diff rendering.
	Old []string `json:"-" yaml:"-"`
	New []string `json:"-" yaml:"-"`
	Err error    `json:"-" yaml:"-"`
}

// Changed reports whether any line of the file was rewritten.
func (f *FileResult) Changed() bool {
	return len(f.Changes) > 0
}

// Summary aggregates a run.
type Summary struct {
	Mode     Mode         `json:"mode" yaml:"mode"`
	Files    []FileResult `json:"files" yaml:"files"`
	// Matched counts files holding at least one candidate line.
	Matched  int          `json:"matched" yaml:"matched"`
	Changed  int          `json:"changed" yaml:"changed"`
	Failed   int          `json:"failed" yaml:"failed"`
	Duration string       `json:"duration" yaml:"duration"`
}

// HasDiff reports whether check mode found unsorted lists.
func (s *Summary) HasDiff() bool {
	return s.Mode == ModeCheck && s.Changed > 0
}

// HasErrors reports whether any file failed.
func (s *Summary) HasErrors() bool {
	return s.Failed > 0
}

// Runner runs invocations. It is safe to reuse across runs.
type Runner struct {
	logger  *slog.Logger
	locator *locate.Locator
	matcher *derive.Matcher
}

// New creates a runner.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Runner{
		logger:  logger,
		locator: locate.NewLocator(logger),
		matcher: derive.NewMatcher(),
	}
}

// Run sorts the derive lists of every located file. A malformed order or an
// invalid path is returned as an error before any file is read. Failures on
// individual files are recorded in their FileResult and do not stop the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	table, err := order.Build(opts.Order)
	if err != nil {
		return nil, err
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}

	mode := ModeWrite
	if opts.Check {
		mode = ModeCheck
	}

	r.logger.Debug("Starting run",
		"mode", mode,
		"root", opts.Root,
		"path", opts.Path,
		"order", opts.Order,
		"preserve", opts.Preserve,
		"exclude", opts.Exclude)

	matches, err := r.locator.Find(ctx, locate.Options{
		Root:    opts.Root,
		Path:    opts.Path,
		Exclude: opts.Exclude,
		Jobs:    opts.Jobs,
	})
	if err != nil {
		return nil, err
	}

	proc := &rewrite.Processor{Matcher: r.matcher, Table: table, Preserve: opts.Preserve}

	results := make([]FileResult, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, m := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processFile(proc, m, opts.Check)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Mode: mode, Files: results, Matched: len(results)}
	for i := range results {
		switch {
		case results[i].Err != nil:
			summary.Failed++
		case results[i].Changed():
			summary.Changed++
		}
	}
	summary.Duration = time.Since(start).String()

	r.logger.Info("Run complete",
		"mode", mode,
		"matched", summary.Matched,
		"changed", summary.Changed,
		"failed", summary.Failed,
		"duration", summary.Duration)

	return summary, nil
}

func (r *Runner) processFile(proc *rewrite.Processor, m locate.FileMatches, check bool) FileResult {
	res := FileResult{Path: m.Path}
	fail := func(err error) FileResult {
		r.logger.Warn("Failed to process file", "file", m.Path, "error", err)
		res.Err = err
		res.Error = err.Error()
		return res
	}

	if m.Err != nil {
		return fail(m.Err)
	}

	info, err := os.Stat(m.Path)
	if err != nil {
		return fail(sderrors.New(sderrors.IOFailure, "cannot stat "+m.Path, err))
	}
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return fail(sderrors.New(sderrors.IOFailure, "cannot read "+m.Path, err))
	}

	out := proc.Process(string(data), m.Candidates())
	res.Old, res.New = out.Old, out.New
	for _, n := range out.Changed {
		res.Changes = append(res.Changes, Change{
			Line: n,
			Old:  trimEOL(out.Old[n-1]),
			New:  trimEOL(out.New[n-1]),
		})
	}

	if check || !out.HasChanges() {
		return res
	}

	if err := os.WriteFile(m.Path, []byte(out.Text()), info.Mode().Perm()); err != nil {
		return fail(sderrors.New(sderrors.IOFailure, "cannot write "+m.Path, err))
	}
	res.Written = true
	r.logger.Debug("Rewrote file", "file", m.Path, "lines", out.Changed)

	return res
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}
