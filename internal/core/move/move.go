// Package move contains the pure dispatch and guard logic for move
// operations. A move is disambiguated purely by the shape of its
// destination: a full ID renumbers, a bare category number refiles, and
// free text renames in place. The classification happens once, here, and
// the resulting tagged intent is carried to the executor.
package move

import (
	"fmt"

	"github.com/nelsonlove/jd/internal/core/ident"
)

// Intent tags what a destination string means.
type Intent int

const (
	// IntentRenumber relocates the source to an exact NN.MM slot.
	IntentRenumber Intent = iota
	// IntentRefile moves the source into a category at its next free slot.
	IntentRefile
	// IntentRename keeps the number and changes only the display name.
	IntentRename
)

func (i Intent) String() string {
	switch i {
	case IntentRenumber:
		return "renumber"
	case IntentRefile:
		return "refile"
	default:
		return "rename"
	}
}

// Dispatch is the classified destination of a move.
type Dispatch struct {
	Intent   Intent
	Category int    // renumber and refile
	Sequence int    // renumber only
	Name     string // rename only
}

// ClassifyDest classifies a raw destination argument. "22.05" renumbers,
// "22" refiles, anything else renames.
func ClassifyDest(destination string) Dispatch {
	if cat, seq, err := ident.ParseIDRef(destination); err == nil {
		return Dispatch{Intent: IntentRenumber, Category: cat, Sequence: seq}
	}
	if cat, err := ident.ParseCategoryRef(destination); err == nil {
		return Dispatch{Intent: IntentRefile, Category: cat}
	}
	return Dispatch{Intent: IntentRename, Name: destination}
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// RenumberContext provides context for renumber guards.
type RenumberContext struct {
	SourceIsID     bool
	DestRef        string // "22.05"
	DestOccupied   bool
	OccupiedBy     string // path of the occupant, when occupied
	CategoryExists bool
}

// CanRenumber evaluates whether a source can be moved to an exact slot.
// Rules:
// - Only IDs can be renumbered to an ID slot
// - The destination category must exist
// - The destination slot must be free
func CanRenumber(ctx RenumberContext) GuardResult {
	if !ctx.SourceIsID {
		return GuardResult{
			Allowed: false,
			Reason:  "cannot renumber a category to an ID slot",
		}
	}
	if !ctx.CategoryExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("target category for %s not found", ctx.DestRef),
		}
	}
	if ctx.DestOccupied {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("slot %s already taken by %s", ctx.DestRef, ctx.OccupiedBy),
		}
	}
	return GuardResult{Allowed: true}
}

// RefileContext provides context for refile guards.
type RefileContext struct {
	SourceIsID     bool
	Category       int
	CategoryExists bool
	CategoryFull   bool
}

// CanRefile evaluates whether a source can be refiled into a category.
// Rules:
// - Only IDs can be refiled
// - The target category must exist and have a free sequence number
func CanRefile(ctx RefileContext) GuardResult {
	if !ctx.SourceIsID {
		return GuardResult{
			Allowed: false,
			Reason:  "cannot refile a category into another category",
		}
	}
	if !ctx.CategoryExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("category %02d not found", ctx.Category),
		}
	}
	if ctx.CategoryFull {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("category %02d has no free sequence numbers", ctx.Category),
		}
	}
	return GuardResult{Allowed: true}
}

// RenameContext provides context for rename guards.
type RenameContext struct {
	NewName    string
	PathExists bool
	NewPath    string
}

// CanRename evaluates whether an entry can be renamed in place.
// Rules:
// - The new name must be non-empty
// - No entry may already exist at the new path
func CanRename(ctx RenameContext) GuardResult {
	if ctx.NewName == "" {
		return GuardResult{
			Allowed: false,
			Reason:  "new name is empty",
		}
	}
	if ctx.PathExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("destination already exists: %s", ctx.NewPath),
		}
	}
	return GuardResult{Allowed: true}
}

// ArchiveContext provides context for archive guards.
type ArchiveContext struct {
	Target            string
	AlreadyInArchive  bool
	ArchiveEntryTaken bool
	ArchiveEntryPath  string
}

// CanArchive evaluates whether an entry can be moved into its archive.
// Rules:
// - The entry must not already live inside an archive
// - The archive must not already hold an entry with the same name
func CanArchive(ctx ArchiveContext) GuardResult {
	if ctx.AlreadyInArchive {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s is already archived", ctx.Target),
		}
	}
	if ctx.ArchiveEntryTaken {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("already exists in archive: %s", ctx.ArchiveEntryPath),
		}
	}
	return GuardResult{Allowed: true}
}

// RestoreContext provides context for restore guards.
type RestoreContext struct {
	Target       string
	SlotOccupied bool
	OccupiedBy   string
	Renumber     bool
	SlotsLeft    bool // a free sequence exists for renumbering
}

// CanRestore evaluates whether an archived entry can be restored.
// Rules:
// - A free original slot restores directly
// - An occupied slot requires renumber, and a free sequence must remain
func CanRestore(ctx RestoreContext) GuardResult {
	if !ctx.SlotOccupied {
		return GuardResult{Allowed: true}
	}
	if !ctx.Renumber {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot restore %s: slot occupied by %s (use renumber)", ctx.Target, ctx.OccupiedBy),
		}
	}
	if !ctx.SlotsLeft {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot restore %s: no free sequence numbers left", ctx.Target),
		}
	}
	return GuardResult{Allowed: true}
}
