// Package rewrite runs the per-file line pipeline: suppression tracking,
// derive list parsing, sorting and rewriting.
package rewrite

import (
	"strings"

	"sortderives/internal/derive"
	"sortderives/internal/order"
	"sortderives/internal/suppress"
)

// SplitLines splits text into lines that keep their terminators, so that
// concatenating the result gives back text unchanged. A final line without
// a terminator is kept as is.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

// Processor sorts the derive lists of one file at a time. A Processor holds
// only read-only state and may be shared by concurrent workers.
type Processor struct {
	Matcher  *derive.Matcher
	Table    *order.Table
	Preserve bool
}

// Result is the outcome of processing one file. Old and New always have the
// same length.
type Result struct {
	Old []string
	New []string
	// Changed lists the 1-based numbers of lines where Old and New differ.
	Changed []int
}

// HasChanges reports whether any line was rewritten.
func (r *Result) HasChanges() bool {
	return len(r.Changed) > 0
}

// Text returns the rewritten file contents.
func (r *Result) Text() string {
	return strings.Join(r.New, "")
}

// Process walks every line of text in order. Lines whose 1-based number is in
// candidates are parsed and rewritten unless a suppression marker applies.
func (p *Processor) Process(text string, candidates map[int]bool) *Result {
	lines := SplitLines(text)
	res := &Result{
		Old: lines,
		New: make([]string, len(lines)),
	}

	tracker := suppress.New()
	for i, line := range lines {
		n := i + 1
		res.New[i] = line

		if tracker.Next(line) || !candidates[n] {
			continue
		}

		if rewritten := p.Line(line); rewritten != line {
			res.New[i] = rewritten
			res.Changed = append(res.Changed, n)
		}
	}

	return res
}

// Line sorts the derive list on a single line. Lines without a recognised
// list are returned unchanged.
func (p *Processor) Line(line string) string {
	m, ok := p.Matcher.Parse(line)
	if !ok {
		return line
	}
	return m.Rewrite(order.Sort(m.Entries, p.Table, p.Preserve))
}
