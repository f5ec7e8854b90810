// Package order builds rank tables from a user supplied custom order and
// sorts derive entries against them.
package order

import (
	"fmt"
	"strings"

	sderrors "sortderives/internal/errors"
)

// Wildcard stands for every name not listed in a custom order.
const Wildcard = "..."

// Tier places a rank in one of three bands. Head sorts first, Tail last.
type Tier int

const (
	// Head holds names listed before the wildcard (or all names without one).
	Head Tier = iota
	// Unranked holds every key absent from the table.
	Unranked
	// Tail holds names listed after the wildcard.
	Tail
)

// Rank is the sort priority of a comparison key.
type Rank struct {
	Tier  Tier
	Index int
}

// UnrankedRank is assigned to keys that are not in the table.
var UnrankedRank = Rank{Tier: Unranked}

// Compare orders ranks by tier, then by index within the tier.
func (r Rank) Compare(o Rank) int {
	if r.Tier != o.Tier {
		if r.Tier < o.Tier {
			return -1
		}
		return 1
	}
	switch {
	case r.Index < o.Index:
		return -1
	case r.Index > o.Index:
		return 1
	default:
		return 0
	}
}

// IsUnranked reports whether r is the unranked sentinel.
func (r Rank) IsUnranked() bool {
	return r.Tier == Unranked
}

func (r Rank) String() string {
	switch r.Tier {
	case Head:
		return fmt.Sprintf("head(%d)", r.Index)
	case Tail:
		return fmt.Sprintf("tail(%d)", r.Index)
	default:
		return "unranked"
	}
}

// Table maps comparison keys to ranks. The zero value and nil are empty
// tables in which every key is unranked. A Table is read-only once built.
type Table struct {
	ranks map[string]Rank
}

// Build turns a custom order into a rank table.
//
// Names before the wildcard get Head ranks in listed order, names after it get
// Tail ranks. Without a wildcard every name is Head. Blank names are skipped
// and the first occurrence of a repeated name wins. More than one wildcard is
// a MalformedOrderSpec error.
func Build(custom []string) (*Table, error) {
	t := &Table{ranks: make(map[string]Rank, len(custom))}

	wildcards := 0
	for _, name := range custom {
		if strings.TrimSpace(name) == Wildcard {
			wildcards++
		}
	}
	if wildcards > 1 {
		return nil, sderrors.New(sderrors.MalformedOrderSpec,
			"at most one wildcard permitted in custom order", nil).
			WithDetails(map[string]interface{}{
				"order":     custom,
				"wildcards": wildcards,
			})
	}

	tier := Head
	index := 0
	for _, name := range custom {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == Wildcard {
			tier = Tail
			index = 0
			continue
		}
		if _, seen := t.ranks[name]; !seen {
			t.ranks[name] = Rank{Tier: tier, Index: index}
		}
		index++
	}

	return t, nil
}

// Rank returns the rank of key, or UnrankedRank if the key is not listed.
func (t *Table) Rank(key string) Rank {
	if t == nil {
		return UnrankedRank
	}
	if r, ok := t.ranks[key]; ok {
		return r
	}
	return UnrankedRank
}

// Len returns the number of ranked names.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ranks)
}

// ParseList splits a comma-separated custom order such as "Debug, Clone, ..."
// into trimmed names. An empty string yields nil.
func ParseList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, strings.TrimSpace(p))
	}
	return names
}
