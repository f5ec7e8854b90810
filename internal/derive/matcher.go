package derive

import "regexp"

// Form identifies which attribute shape a line matched.
type Form int

const (
	// Direct is #[derive(A, B)].
	Direct Form = iota
	// Conditional is #[cfg_attr(<condition>, derive(A, B))].
	Conditional
)

// String returns the form name used in reports.
func (f Form) String() string {
	switch f {
	case Direct:
		return "derive"
	case Conditional:
		return "cfg_attr"
	default:
		return "unknown"
	}
}

const (
	directPattern = `#\[derive\(\s*([^)]*?)\s*\)\]`
	// The greedy condition group anchors on the last ", derive(" so that
	// conditions containing commas and parentheses are captured whole.
	conditionalPattern = `#\[cfg_attr\((.*),\s*derive\(\s*([^)]*?)\s*\)\)\]`
)

// Matcher holds the compiled attribute patterns. It is immutable after
// construction and safe for concurrent use by many file workers.
type Matcher struct {
	direct      *regexp.Regexp
	conditional *regexp.Regexp
}

// NewMatcher compiles the attribute patterns.
func NewMatcher() *Matcher {
	return &Matcher{
		direct:      regexp.MustCompile(directPattern),
		conditional: regexp.MustCompile(conditionalPattern),
	}
}

// Match is a derive list located on one line.
type Match struct {
	Form Form
	// Condition is the cfg_attr condition exactly as written. Empty for Direct.
	Condition string
	// Entries are in the order written on the line.
	Entries []Entry

	line       string
	start, end int
}

// Parse locates a derive list on line. It reports false when the line holds
// neither shape; callers then keep the line unchanged. Only one list per line
// is located: the first direct list, otherwise the last cfg_attr list.
func (m *Matcher) Parse(line string) (*Match, bool) {
	if loc := m.direct.FindStringSubmatchIndex(line); loc != nil {
		return &Match{
			Form:    Direct,
			Entries: ParseEntries(line[loc[2]:loc[3]]),
			line:    line,
			start:   loc[0],
			end:     loc[1],
		}, true
	}

	if loc := m.conditional.FindStringSubmatchIndex(line); loc != nil {
		return &Match{
			Form:      Conditional,
			Condition: line[loc[2]:loc[3]],
			Entries:   ParseEntries(line[loc[4]:loc[5]]),
			line:      line,
			start:     loc[0],
			end:       loc[1],
		}, true
	}

	return nil, false
}

// Rewrite returns the original line with the matched attribute replaced by
// one listing sorted. Bytes outside the matched span are kept as they were.
func (m *Match) Rewrite(sorted []Entry) string {
	var attr string
	switch m.Form {
	case Conditional:
		attr = "#[cfg_attr(" + m.Condition + ", derive(" + Join(sorted) + "))]"
	default:
		attr = "#[derive(" + Join(sorted) + ")]"
	}
	return m.line[:m.start] + attr + m.line[m.end:]
}
