// Package ident contains the pure identifier model for the Johnny Decimal
// naming grammar. Parsing and classification work on directory names only,
// independent of filesystem content.
//
// Grammar (bit-exact):
//
//	Area     ^\d{2}[-–]\d{2} .+$
//	Category ^\d{2} .+$        (must not also match Area or ID)
//	ID       ^\d{2}\.\d{2}( .+)?$  (suffix-less form reserved for sequence 00)
package ident

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reserved sequence numbers within a category.
const (
	SeqMeta     = 0  // NN.00 category meta
	SeqUnsorted = 1  // NN.01 Unsorted inbox
	SeqArchive  = 99 // NN.99 Archive
)

// Kind classifies a directory name against the JD grammar.
type Kind int

const (
	KindUnmanaged Kind = iota
	KindArea
	KindCategory
	KindID
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindArea:
		return "area"
	case KindCategory:
		return "category"
	case KindID:
		return "id"
	default:
		return "unmanaged"
	}
}

// ParseError reports a name that does not conform to the JD grammar.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

var (
	// Both hyphen and en-dash are accepted in area ranges; the original
	// rendering is preserved because names are never silently rewritten.
	areaRe     = regexp.MustCompile(`^(\d{2})([-–])(\d{2}) (.+)$`)
	categoryRe = regexp.MustCompile(`^(\d{2}) (.+)$`)
	idRe       = regexp.MustCompile(`^(\d{2})\.(\d{2})(?: (.+))?$`)
	idRefRe    = regexp.MustCompile(`^(\d{2})\.(\d{2})$`)
	catRefRe   = regexp.MustCompile(`^(\d{2})$`)
	rangeRefRe = regexp.MustCompile(`^(\d{2})[-–](\d{2})$`)
)

// Area is a top-level range grouping, e.g. "20-29 Family".
type Area struct {
	Start int
	End   int
	Name  string
	Dash  string // "-" or "–", as written on disk
}

// String renders the area exactly as it appears on disk.
func (a Area) String() string {
	dash := a.Dash
	if dash == "" {
		dash = "-"
	}
	return fmt.Sprintf("%02d%s%02d %s", a.Start, dash, a.End, a.Name)
}

// Contains reports whether a category number falls in this area's range.
func (a Area) Contains(catNum int) bool {
	return catNum >= a.Start && catNum <= a.End
}

// MetaCategory returns the reserved x0 meta category number for this area.
func (a Area) MetaCategory() int {
	return a.Start
}

// Category is a two-digit grouping within an area, e.g. "26 Recipes".
type Category struct {
	Number int
	Name   string
}

func (c Category) String() string {
	return fmt.Sprintf("%02d %s", c.Number, c.Name)
}

// ID is a category.sequence addressed filing unit, e.g. "26.01 Unsorted".
// Name may be empty only for sequence 00 (category meta).
type ID struct {
	Category int
	Sequence int
	Name     string
}

// String renders the ID exactly as it appears on disk. Parse then String
// yields the identical input for every valid ID name.
func (id ID) String() string {
	if id.Name == "" {
		return id.Ref()
	}
	return fmt.Sprintf("%s %s", id.Ref(), id.Name)
}

// Ref returns the dotted numeric reference, e.g. "26.01".
func (id ID) Ref() string {
	return FormatID(id.Category, id.Sequence)
}

// IsMeta reports whether this is the reserved NN.00 category meta slot.
func (id ID) IsMeta() bool { return id.Sequence == SeqMeta }

// IsUnsorted reports whether this is the reserved NN.01 inbox slot.
func (id ID) IsUnsorted() bool { return id.Sequence == SeqUnsorted }

// IsArchive reports whether this is the reserved NN.99 archive slot.
func (id ID) IsArchive() bool { return id.Sequence == SeqArchive }

// FormatID formats a category/sequence pair as a dotted reference.
func FormatID(category, sequence int) string {
	return fmt.Sprintf("%02d.%02d", category, sequence)
}

// ParseArea parses an area directory name like "20-29 Family".
func ParseArea(name string) (Area, error) {
	m := areaRe.FindStringSubmatch(name)
	if m == nil {
		return Area{}, &ParseError{Input: name, Reason: "expected NN-MM Name"}
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[3])
	if start > end {
		return Area{}, &ParseError{Input: name, Reason: fmt.Sprintf("range start %02d exceeds end %02d", start, end)}
	}
	return Area{Start: start, End: end, Name: m[4], Dash: m[2]}, nil
}

// ParseCategory parses a category directory name like "26 Recipes".
// Names that also match the area or ID grammar are rejected.
func ParseCategory(name string) (Category, error) {
	if areaRe.MatchString(name) {
		return Category{}, &ParseError{Input: name, Reason: "matches area grammar (NN-MM Name)"}
	}
	if idRe.MatchString(name) {
		return Category{}, &ParseError{Input: name, Reason: "matches ID grammar (NN.MM Name)"}
	}
	m := categoryRe.FindStringSubmatch(name)
	if m == nil {
		return Category{}, &ParseError{Input: name, Reason: "expected NN Name"}
	}
	num, _ := strconv.Atoi(m[1])
	return Category{Number: num, Name: m[2]}, nil
}

// ParseID parses an ID directory name like "26.01 Unsorted" or "26.00".
// The category and sequence are two separate two-digit fields, never a
// single multi-digit number.
func ParseID(name string) (ID, error) {
	m := idRe.FindStringSubmatch(name)
	if m == nil {
		return ID{}, &ParseError{Input: name, Reason: "expected NN.MM Name"}
	}
	cat, _ := strconv.Atoi(m[1])
	seq, _ := strconv.Atoi(m[2])
	return ID{Category: cat, Sequence: seq, Name: m[3]}, nil
}

// ParseIDRef parses a bare dotted reference like "26.01" into its
// category and sequence fields.
func ParseIDRef(s string) (category, sequence int, err error) {
	m := idRefRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, &ParseError{Input: s, Reason: "expected NN.MM"}
	}
	category, _ = strconv.Atoi(m[1])
	sequence, _ = strconv.Atoi(m[2])
	return category, sequence, nil
}

// ParseCategoryRef parses a bare category reference like "26".
func ParseCategoryRef(s string) (int, error) {
	m := catRefRe.FindStringSubmatch(s)
	if m == nil {
		return 0, &ParseError{Input: s, Reason: "expected NN"}
	}
	n, _ := strconv.Atoi(m[1])
	return n, nil
}

// ParseRangeRef parses a bare area range reference like "20-29".
func ParseRangeRef(s string) (start, end int, err error) {
	m := rangeRefRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, &ParseError{Input: s, Reason: "expected NN-MM"}
	}
	start, _ = strconv.Atoi(m[1])
	end, _ = strconv.Atoi(m[2])
	return start, end, nil
}

// Classify inspects a directory name against the grammar. Area is checked
// first because "20-29 Family" would otherwise also satisfy the category
// pattern prefix, then ID, then category.
func Classify(name string) Kind {
	switch {
	case areaRe.MatchString(name):
		return KindArea
	case idRe.MatchString(name):
		return KindID
	case categoryRe.MatchString(name):
		return KindCategory
	default:
		return KindUnmanaged
	}
}

// Normalize prepares a name for comparison: trims surrounding whitespace
// and folds en-dashes to hyphens. It is never used to rewrite names on
// disk; an explicit fix operation owns that.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "–", "-")
}

// Equal compares two names under Normalize.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
