// Package derive recognizes derive attribute lists on a single source line,
// splits them into entries and writes a reordered list back into the line.
package derive

import "strings"

// PathSeparator separates the segments of a qualified path such as std::fmt::Debug.
const PathSeparator = "::"

// Entry is one item of a derive list as written in the source.
type Entry struct {
	// Text is the trimmed literal text, e.g. "std::fmt::Debug".
	Text string
	// Key is the last path segment of Text, e.g. "Debug".
	// It is used to look up custom order ranks and for alphabetical ordering.
	Key string
}

// NewEntry builds an entry from its literal text.
func NewEntry(text string) Entry {
	text = strings.TrimSpace(text)
	key := text
	if i := strings.LastIndex(text, PathSeparator); i >= 0 {
		key = strings.TrimSpace(text[i+len(PathSeparator):])
	}
	return Entry{Text: text, Key: key}
}

// ParseEntries splits a comma-separated derive list into entries.
// Blank segments (an empty list or a trailing comma) produce no entry.
func ParseEntries(list string) []Entry {
	parts := strings.Split(list, ",")
	entries := make([]Entry, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		entries = append(entries, NewEntry(part))
	}
	return entries
}

// Texts returns the literal texts of entries in order.
func Texts(entries []Entry) []string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return texts
}

// Join renders entries the way they are written back into a derive list.
func Join(entries []Entry) string {
	return strings.Join(Texts(entries), ", ")
}
