package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nelsonlove/jd/internal/core/ident"
	"github.com/nelsonlove/jd/internal/core/move"
	"github.com/nelsonlove/jd/internal/scanner"
)

// Move relocates, refiles or renames an entry. The destination's shape
// alone decides which: a full ID renumbers to that exact slot, a bare
// category number refiles to the next free slot there, and anything
// else renames in place. The classification happens once, up front, and
// the rename is attempted only after every check has passed.
func (e *Engine) Move(source, destination string) (*Plan, error) {
	if err := e.authorize(source); err != nil {
		return nil, err
	}

	sys, err := e.scan()
	if err != nil {
		return nil, err
	}

	srcID := sys.FindID(source)
	var srcCat *scanner.CategoryEntry
	if srcID == nil {
		if n, err := ident.ParseCategoryRef(source); err == nil {
			srcCat = sys.FindCategory(n)
		}
	}
	if srcID == nil && srcCat == nil {
		return nil, &NotFoundError{Target: source}
	}

	dispatch := move.ClassifyDest(destination)
	switch dispatch.Intent {
	case move.IntentRenumber:
		return e.moveRenumber(sys, srcID, dispatch)
	case move.IntentRefile:
		return e.moveRefile(sys, srcID, dispatch)
	default:
		return e.moveRename(srcID, srcCat, dispatch)
	}
}

func (e *Engine) moveRenumber(sys *scanner.System, srcID *scanner.IDEntry, d move.Dispatch) (*Plan, error) {
	destRef := ident.FormatID(d.Category, d.Sequence)
	if err := e.authorize(destRef); err != nil {
		return nil, err
	}

	destCat := sys.FindCategory(d.Category)
	occupant := sys.FindID(destRef)
	if occupant != nil && occupant == srcID {
		occupant = nil // moving onto its own slot is a plain rename
	}

	ctx := move.RenumberContext{
		SourceIsID:     srcID != nil,
		DestRef:        destRef,
		CategoryExists: destCat != nil,
		DestOccupied:   occupant != nil,
	}
	if occupant != nil {
		ctx.OccupiedBy = occupant.Path
	}
	if res := move.CanRenumber(ctx); !res.Allowed {
		if ctx.DestOccupied && ctx.SourceIsID && ctx.CategoryExists {
			return nil, &ConflictError{Ref: destRef, Existing: occupant.Path}
		}
		return nil, res.Error()
	}

	newName := ident.ID{Category: d.Category, Sequence: d.Sequence, Name: srcID.ID.Name}.String()
	plan := e.newPlan("renumber")
	plan.Source = srcID.Path
	plan.Dest = filepath.Join(destCat.Path, newName)
	if srcID.ID.Category != d.Category {
		plan.note("refiled from category %02d to %02d", srcID.ID.Category, d.Category)
	}
	return plan, e.applyRename(plan)
}

func (e *Engine) moveRefile(sys *scanner.System, srcID *scanner.IDEntry, d move.Dispatch) (*Plan, error) {
	if err := e.authorize(fmt.Sprintf("%02d", d.Category)); err != nil {
		return nil, err
	}

	destCat := sys.FindCategory(d.Category)
	ctx := move.RefileContext{
		SourceIsID:     srcID != nil,
		Category:       d.Category,
		CategoryExists: destCat != nil,
	}
	var seq int
	if destCat != nil {
		var err error
		if seq, err = destCat.NextSequence(); err != nil {
			ctx.CategoryFull = true
		}
	}
	if res := move.CanRefile(ctx); !res.Allowed {
		return nil, res.Error()
	}

	newName := ident.ID{Category: d.Category, Sequence: seq, Name: srcID.ID.Name}.String()
	plan := e.newPlan("refile")
	plan.Source = srcID.Path
	plan.Dest = filepath.Join(destCat.Path, newName)
	plan.note("assigned %s", ident.FormatID(d.Category, seq))
	return plan, e.applyRename(plan)
}

func (e *Engine) moveRename(srcID *scanner.IDEntry, srcCat *scanner.CategoryEntry, d move.Dispatch) (*Plan, error) {
	var oldPath, newName string
	if srcID != nil {
		oldPath = srcID.Path
		newName = ident.ID{Category: srcID.ID.Category, Sequence: srcID.ID.Sequence, Name: d.Name}.String()
	} else {
		oldPath = srcCat.Path
		newName = fmt.Sprintf("%02d %s", srcCat.Category.Number, d.Name)
	}
	newPath := filepath.Join(filepath.Dir(oldPath), newName)

	ctx := move.RenameContext{NewName: d.Name, NewPath: newPath}
	if _, err := os.Lstat(newPath); err == nil {
		ctx.PathExists = true
	}
	if res := move.CanRename(ctx); !res.Allowed {
		if ctx.PathExists {
			return nil, &ConflictError{Ref: newName, Existing: newPath}
		}
		return nil, res.Error()
	}

	plan := e.newPlan("rename")
	plan.Source = oldPath
	plan.Dest = newPath
	return plan, e.applyRename(plan)
}

// applyRename performs the single filesystem mutation of a move-shaped
// plan, unless the engine is in dry-run mode.
func (e *Engine) applyRename(plan *Plan) error {
	if e.dryRun {
		return nil
	}
	if err := os.Rename(plan.Source, plan.Dest); err != nil {
		return fmt.Errorf("failed to rename %s: %w", plan.Source, err)
	}
	e.logger.Debug(plan.Op, "source", plan.Source, "dest", plan.Dest)
	return nil
}
