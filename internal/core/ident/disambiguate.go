package ident

import (
	"fmt"
	"sort"
	"strings"
)

// Candidate is one possible resolution of a partial numeric input.
type Candidate struct {
	Kind     Kind
	Ref      string // "26" for a category, "26.01" for an ID
	Label    string // full display name
	Category int
	Sequence int // meaningful only for KindID
}

// Disambiguate resolves a partial numeric input against a known set of
// categories and IDs, for interactive use (tab completion, resolve-path).
// Ordering is stable: each category precedes its own IDs, numeric order
// within each group.
func Disambiguate(partial string, categories []Category, ids []ID) []Candidate {
	byCat := make(map[int][]ID)
	for _, id := range ids {
		byCat[id.Category] = append(byCat[id.Category], id)
	}

	sorted := make([]Category, len(categories))
	copy(sorted, categories)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	var out []Candidate
	known := make(map[int]bool, len(sorted))
	for _, cat := range sorted {
		known[cat.Number] = true
		ref := fmt.Sprintf("%02d", cat.Number)
		if strings.HasPrefix(ref, partial) {
			out = append(out, Candidate{
				Kind:     KindCategory,
				Ref:      ref,
				Label:    cat.String(),
				Category: cat.Number,
			})
		}
		out = appendIDMatches(out, partial, byCat[cat.Number])
	}

	// IDs whose number has no matching category directory (a mismatched
	// prefix) still resolve; they trail the known categories.
	var strays []int
	for num := range byCat {
		if !known[num] {
			strays = append(strays, num)
		}
	}
	sort.Ints(strays)
	for _, num := range strays {
		out = appendIDMatches(out, partial, byCat[num])
	}
	return out
}

func appendIDMatches(out []Candidate, partial string, members []ID) []Candidate {
	sort.Slice(members, func(i, j int) bool { return members[i].Sequence < members[j].Sequence })
	for _, id := range members {
		if strings.HasPrefix(id.Ref(), partial) {
			out = append(out, Candidate{
				Kind:     KindID,
				Ref:      id.Ref(),
				Label:    id.String(),
				Category: id.Category,
				Sequence: id.Sequence,
			})
		}
	}
	return out
}

// Ambiguous reports whether a partial input matches more than one candidate.
func Ambiguous(candidates []Candidate) bool {
	return len(candidates) > 1
}
