// Package scanner builds an in-memory index of a Johnny Decimal tree:
// areas, categories and IDs, plus everything that does not parse
// (orphans) and symlinks whose targets are unreachable. The scan never
// dereferences a link target beyond a reachability stat; resolution
// happens on demand when a specific entry is addressed, so an unmounted
// external volume flags its entry instead of stalling the walk.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nelsonlove/jd/internal/core/ident"
)

// Status marks whether an entry's backing path is usable.
type Status int

const (
	StatusOK Status = iota
	// StatusUnreachable marks a symlink whose target cannot be reached,
	// e.g. an unmounted external volume. The entry stays in the index
	// but is never descended into.
	StatusUnreachable
)

func (s Status) String() string {
	if s == StatusUnreachable {
		return "unreachable"
	}
	return "ok"
}

// DefaultIgnore is the glob set excluded from scanning and orphan
// detection. Patterns match base names via doublestar.
var DefaultIgnore = []string{
	".DS_Store",
	".git",
	"__pycache__",
	".Trash",
	"*.pyc",
	".jd",
	".jdpolicy.yaml",
	"jd.yaml",
}

// Options tunes a scan.
type Options struct {
	Ignore []string // defaults to DefaultIgnore when empty
}

// Entry is the filesystem identity common to every indexed node.
type Entry struct {
	Path      string
	Name      string
	Status    Status
	IsSymlink bool
	IsDir     bool
}

// ResolveTarget dereferences a symlink entry on demand. Non-symlinks
// resolve to their own path.
func (e *Entry) ResolveTarget() (string, error) {
	if !e.IsSymlink {
		return e.Path, nil
	}
	target, err := filepath.EvalSymlinks(e.Path)
	if err != nil {
		return "", fmt.Errorf("unreachable symlink %s: %w", e.Path, err)
	}
	return target, nil
}

// IDEntry is an indexed NN.MM unit. IsFile marks IDs that are plain
// files rather than directories (legal only under ids_as_files policy).
type IDEntry struct {
	Entry
	ID     ident.ID
	IsFile bool
}

// Mismatched reports whether the ID's category prefix disagrees with
// the category directory it sits in.
func (e *IDEntry) Mismatched(parent *CategoryEntry) bool {
	return e.ID.Category != parent.Category.Number
}

// CategoryEntry is an indexed NN directory with its member IDs.
type CategoryEntry struct {
	Entry
	Category ident.Category
	IDs      []*IDEntry
	Orphans  []Entry // children that parse as nothing
}

// FindID returns the member with the given sequence, or nil.
func (c *CategoryEntry) FindID(sequence int) *IDEntry {
	for _, id := range c.IDs {
		if id.ID.Sequence == sequence {
			return id
		}
	}
	return nil
}

// NextSequence returns the lowest unused sequence in 1..98. Sequence 99
// is reserved for the archive and never allocated.
func (c *CategoryEntry) NextSequence() (int, error) {
	used := make(map[int]bool, len(c.IDs))
	for _, id := range c.IDs {
		used[id.ID.Sequence] = true
	}
	for seq := 1; seq < ident.SeqArchive; seq++ {
		if !used[seq] {
			return seq, nil
		}
	}
	return 0, fmt.Errorf("category %02d is full", c.Category.Number)
}

// AreaEntry is an indexed NN-MM range with its member categories.
type AreaEntry struct {
	Entry
	Area       ident.Area
	Categories []*CategoryEntry
	Orphans    []Entry
}

// NextCategory returns the lowest unused category number in the area,
// skipping the reserved x0 meta slot.
func (a *AreaEntry) NextCategory() (int, error) {
	used := make(map[int]bool, len(a.Categories))
	for _, c := range a.Categories {
		used[c.Category.Number] = true
	}
	for n := a.Area.Start + 1; n <= a.Area.End; n++ {
		if !used[n] {
			return n, nil
		}
	}
	return 0, fmt.Errorf("area %s is full", a.Area)
}

// System is the in-memory index of one managed tree. It is rebuilt per
// invocation; a serialized form may be cached by an external caller but
// the engine itself always rescans before mutating.
type System struct {
	Root        string
	Areas       []*AreaEntry
	Orphans     []Entry // top-level children that parse as nothing
	Unreachable []Entry // broken symlinks found anywhere in the tree
}

// Scan walks root and builds the index. Broken symlinks are recorded
// and skipped, never a traversal failure.
func Scan(root string, opts Options) (*System, error) {
	ignore := opts.Ignore
	if len(ignore) == 0 {
		ignore = DefaultIgnore
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", absRoot, err)
	}

	sys := &System{Root: absRoot}
	children, err := readDirEntries(absRoot, ignore)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		if child.Status == StatusUnreachable {
			sys.Unreachable = append(sys.Unreachable, child)
			continue
		}
		if !child.IsDir {
			continue // loose files at the root are not index material
		}
		area, err := ident.ParseArea(child.Name)
		if err != nil {
			sys.Orphans = append(sys.Orphans, child)
			continue
		}
		areaEntry := &AreaEntry{Entry: child, Area: area}
		if err := sys.scanArea(areaEntry, ignore); err != nil {
			return nil, err
		}
		sys.Areas = append(sys.Areas, areaEntry)
	}

	sort.Slice(sys.Areas, func(i, j int) bool { return sys.Areas[i].Area.Start < sys.Areas[j].Area.Start })
	return sys, nil
}

func (s *System) scanArea(area *AreaEntry, ignore []string) error {
	children, err := readDirEntries(area.Path, ignore)
	if err != nil {
		return err
	}

	for _, child := range children {
		if child.Status == StatusUnreachable {
			s.Unreachable = append(s.Unreachable, child)
			continue
		}
		if !child.IsDir {
			continue
		}
		cat, err := ident.ParseCategory(child.Name)
		if err != nil {
			area.Orphans = append(area.Orphans, child)
			continue
		}
		catEntry := &CategoryEntry{Entry: child, Category: cat}
		if err := s.scanCategory(catEntry, ignore); err != nil {
			return err
		}
		area.Categories = append(area.Categories, catEntry)
	}

	sort.Slice(area.Categories, func(i, j int) bool {
		return area.Categories[i].Category.Number < area.Categories[j].Category.Number
	})
	return nil
}

func (s *System) scanCategory(cat *CategoryEntry, ignore []string) error {
	children, err := readDirEntries(cat.Path, ignore)
	if err != nil {
		return err
	}

	for _, child := range children {
		if child.Status == StatusUnreachable {
			s.Unreachable = append(s.Unreachable, child)
			continue
		}
		id, err := ident.ParseID(child.Name)
		if err != nil {
			if child.IsDir {
				cat.Orphans = append(cat.Orphans, child)
			}
			continue
		}
		cat.IDs = append(cat.IDs, &IDEntry{Entry: child, ID: id, IsFile: !child.IsDir})
	}

	sort.Slice(cat.IDs, func(i, j int) bool {
		a, b := cat.IDs[i].ID, cat.IDs[j].ID
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Sequence < b.Sequence
	})
	return nil
}

// readDirEntries lists a directory as Entry values, applying the ignore
// set and flagging broken symlinks without dereferencing them further.
func readDirEntries(dir string, ignore []string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		if ignored(name, ignore) {
			continue
		}
		path := filepath.Join(dir, name)
		e := Entry{Path: path, Name: name, IsDir: de.IsDir()}

		if de.Type()&os.ModeSymlink != 0 {
			e.IsSymlink = true
			// One stat to learn reachability and dir-ness; the target
			// path itself is not resolved here.
			info, err := os.Stat(path)
			if err != nil {
				e.Status = StatusUnreachable
			} else {
				e.IsDir = info.IsDir()
			}
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func ignored(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
