package order

import (
	"slices"
	"strings"

	"sortderives/internal/derive"
)

// Sort returns entries ordered by rank, then comparison key, then literal
// text. When preserveUnranked is set, two unranked entries compare equal and
// keep their original relative order. The input slice is not modified.
func Sort(entries []derive.Entry, table *Table, preserveUnranked bool) []derive.Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b derive.Entry) int {
		return compare(a, b, table, preserveUnranked)
	})
	return sorted
}

func compare(a, b derive.Entry, table *Table, preserveUnranked bool) int {
	ra, rb := table.Rank(a.Key), table.Rank(b.Key)
	if c := ra.Compare(rb); c != 0 {
		return c
	}
	if preserveUnranked && ra.IsUnranked() {
		return 0
	}
	if c := strings.Compare(a.Key, b.Key); c != 0 {
		return c
	}
	return strings.Compare(a.Text, b.Text)
}
