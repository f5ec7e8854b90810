// Package suppress tracks the comment markers that switch sorting off for
// single lines or whole ranges of a file.
package suppress

import "strings"

// Marker strings recognised anywhere in a line.
const (
	DisableNextLine = "sort-derives-disable-next-line"
	DisableStart    = "sort-derives-disable-start"
	DisableEnd      = "sort-derives-disable-end"
)

// State is the tracker state that applies to the next line fed in.
type State int

const (
	Normal State = iota
	SkipNext
	RangeSuppressed
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case SkipNext:
		return "skip-next"
	case RangeSuppressed:
		return "range-suppressed"
	default:
		return "unknown"
	}
}

// Tracker is a per-file automaton over lines in ascending order.
// It must not be shared between files or goroutines.
type Tracker struct {
	state State
}

// New returns a tracker in the Normal state.
func New() *Tracker {
	return &Tracker{}
}

// State returns the state that will apply to the next line.
func (t *Tracker) State() State {
	return t.state
}

// Next consumes one line and reports whether that line must pass through
// untouched. The markers on the line only affect the lines after it. Inside
// a range only the end marker is recognised. Outside one, a start marker
// wins over a next-line marker unless the same line also ends the range.
func (t *Tracker) Next(line string) bool {
	suppressed := t.state != Normal

	if t.state == SkipNext {
		t.state = Normal
	}

	switch t.state {
	case RangeSuppressed:
		if strings.Contains(line, DisableEnd) {
			t.state = Normal
		}
	default:
		// A range opened and closed on the same line suppresses nothing after
		// it; a next-line marker on that line still applies.
		if strings.Contains(line, DisableStart) && !strings.Contains(line, DisableEnd) {
			t.state = RangeSuppressed
		} else if strings.Contains(line, DisableNextLine) {
			t.state = SkipNext
		}
	}

	return suppressed
}
