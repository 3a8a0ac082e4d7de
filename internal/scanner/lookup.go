package scanner

import (
	"github.com/nelsonlove/jd/internal/core/ident"
)

// FindID resolves a dotted reference like "26.01" to its index entry,
// or nil when absent.
func (s *System) FindID(ref string) *IDEntry {
	cat, seq, err := ident.ParseIDRef(ref)
	if err != nil {
		return nil
	}
	c := s.FindCategory(cat)
	if c == nil {
		return nil
	}
	return c.FindID(seq)
}

// FindCategory resolves a category number anywhere in the tree.
func (s *System) FindCategory(number int) *CategoryEntry {
	for _, area := range s.Areas {
		for _, cat := range area.Categories {
			if cat.Category.Number == number {
				return cat
			}
		}
	}
	return nil
}

// AreaFor returns the area whose declared range contains the category
// number, whether or not such a category exists yet.
func (s *System) AreaFor(catNum int) *AreaEntry {
	for _, area := range s.Areas {
		if area.Area.Contains(catNum) {
			return area
		}
	}
	return nil
}

// CategoryParent returns the area entry a category sits under.
func (s *System) CategoryParent(cat *CategoryEntry) *AreaEntry {
	for _, area := range s.Areas {
		for _, c := range area.Categories {
			if c == cat {
				return area
			}
		}
	}
	return nil
}

// CategoryOf returns the category entry an ID sits under, which for a
// mismatched prefix is not the category its number names.
func (s *System) CategoryOf(id *IDEntry) *CategoryEntry {
	for _, area := range s.Areas {
		for _, cat := range area.Categories {
			for _, member := range cat.IDs {
				if member == id {
					return cat
				}
			}
		}
	}
	return nil
}

// AllCategories lists every category in area order.
func (s *System) AllCategories() []*CategoryEntry {
	var out []*CategoryEntry
	for _, area := range s.Areas {
		out = append(out, area.Categories...)
	}
	return out
}

// AllIDs lists every ID in the system in tree order.
func (s *System) AllIDs() []*IDEntry {
	var out []*IDEntry
	for _, area := range s.Areas {
		for _, cat := range area.Categories {
			out = append(out, cat.IDs...)
		}
	}
	return out
}

// DuplicateID is a pair of entries occupying the same NN.MM slot.
type DuplicateID struct {
	Ref    string
	First  *IDEntry
	Second *IDEntry
}

// DuplicateIDs finds entries sharing one dotted reference anywhere in
// the tree.
func (s *System) DuplicateIDs() []DuplicateID {
	seen := make(map[string]*IDEntry)
	var dupes []DuplicateID
	for _, id := range s.AllIDs() {
		ref := id.ID.Ref()
		if prev, ok := seen[ref]; ok {
			dupes = append(dupes, DuplicateID{Ref: ref, First: prev, Second: id})
			continue
		}
		seen[ref] = id
	}
	return dupes
}

// DuplicateCategory is a pair of category directories sharing a number.
type DuplicateCategory struct {
	Number int
	First  *CategoryEntry
	Second *CategoryEntry
}

// DuplicateCategories finds category numbers used more than once across
// the whole tree; category numbers must be globally unique.
func (s *System) DuplicateCategories() []DuplicateCategory {
	seen := make(map[int]*CategoryEntry)
	var dupes []DuplicateCategory
	for _, cat := range s.AllCategories() {
		n := cat.Category.Number
		if prev, ok := seen[n]; ok {
			dupes = append(dupes, DuplicateCategory{Number: n, First: prev, Second: cat})
			continue
		}
		seen[n] = cat
	}
	return dupes
}

// Disambiguate resolves a partial numeric input against the index with
// the identifier model's stable ordering.
func (s *System) Disambiguate(partial string) []ident.Candidate {
	var cats []ident.Category
	var ids []ident.ID
	for _, c := range s.AllCategories() {
		cats = append(cats, c.Category)
	}
	for _, id := range s.AllIDs() {
		ids = append(ids, id.ID)
	}
	return ident.Disambiguate(partial, cats, ids)
}
