// Package report renders the results of a run: diffs for check mode and
// machine-readable summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"sortderives/internal/paths"
	"sortderives/internal/runner"
)

// Format is the output format of a report.
type Format string

const (
	FormatHuman   Format = "human"
	FormatUnified Format = "unified"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatHuman, FormatUnified, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatHuman, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Reporter writes run results to one writer.
type Reporter struct {
	w      io.Writer
	format Format
	styles Styles
	base   string
}

// New creates a reporter.
func New(w io.Writer, format Format, color ColorMode) *Reporter {
	return &Reporter{
		w:      w,
		format: format,
		styles: NewStyles(w, color.Enabled(w)),
	}
}

// WithBase makes diff headers show paths relative to dir.
func (r *Reporter) WithBase(dir string) *Reporter {
	r.base = dir
	return r
}

// Write renders s. Diff formats print only in check mode; summary formats
// always print.
func (r *Reporter) Write(s *runner.Summary) error {
	switch r.format {
	case FormatJSON:
		data, err := json.MarshalIndent(r.displayed(s), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(r.w, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(r.displayed(s)); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	}

	if s.Mode != runner.ModeCheck {
		return nil
	}
	for i := range s.Files {
		f := &s.Files[i]
		if f.Err != nil || !f.Changed() {
			continue
		}
		path := paths.Display(f.Path, r.base)
		var err error
		if r.format == FormatUnified {
			err = WriteUnified(r.w, path, f.Old, f.New)
		} else {
			err = WriteHuman(r.w, path, f.Old, f.New, r.styles)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// displayed returns a copy of s with paths in display form.
func (r *Reporter) displayed(s *runner.Summary) *runner.Summary {
	out := *s
	out.Files = make([]runner.FileResult, len(s.Files))
	for i, f := range s.Files {
		f.Path = paths.Display(f.Path, r.base)
		out.Files[i] = f
	}
	return &out
}

// WriteHuman prints every replaced line as
//
//	--- path:line
//	- old
//	+ new
//
// with removals of a block listed before its insertions.
func WriteHuman(w io.Writer, path string, before, after []string, styles Styles) error {
	var b strings.Builder
	m := difflib.NewMatcherWithJunk(before, after, false, nil)
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		for i := op.I1; i < op.I2; i++ {
			b.WriteString(styles.paint(styles.File, fmt.Sprintf("--- %s:%d", path, i+1)))
			b.WriteByte('\n')
			b.WriteString(styles.paint(styles.Del, "- "+trimEOL(before[i])))
			b.WriteByte('\n')
		}
		for j := op.J1; j < op.J2; j++ {
			b.WriteString(styles.paint(styles.Ins, "+ "+trimEOL(after[j])))
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteUnified prints a standard unified diff with three lines of context.
func WriteUnified(w io.Writer, path string, before, after []string) error {
	return difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
		A:        terminated(before),
		B:        terminated(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// terminated returns lines with a final newline added where missing.
func terminated(lines []string) []string {
	if len(lines) == 0 || strings.HasSuffix(lines[len(lines)-1], "\n") {
		return lines
	}
	out := append([]string(nil), lines...)
	out[len(out)-1] += "\n"
	return out
}
