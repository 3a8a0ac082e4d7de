package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nelsonlove/jd/internal/core/ident"
	"github.com/nelsonlove/jd/internal/core/move"
	"github.com/nelsonlove/jd/internal/scanner"
)

// Archive soft-deletes an entry. An ID moves under its category's
// "NN.99 Archive", a whole category under its area's "N0.99 Archive" in
// the area meta category. The entry's full display name is preserved
// verbatim inside the archive, which is what makes restore able to
// reconstruct the original path without any side ledger.
func (e *Engine) Archive(target string) (*Plan, error) {
	if err := e.authorize(target); err != nil {
		return nil, err
	}

	sys, err := e.scan()
	if err != nil {
		return nil, err
	}

	if id := sys.FindID(target); id != nil {
		return e.archiveID(sys, id)
	}
	if n, err := ident.ParseCategoryRef(target); err == nil {
		if cat := sys.FindCategory(n); cat != nil {
			return e.archiveCategory(sys, cat)
		}
	}
	return nil, &NotFoundError{Target: target}
}

func (e *Engine) archiveID(sys *scanner.System, id *scanner.IDEntry) (*Plan, error) {
	if id.ID.IsArchive() {
		return nil, fmt.Errorf("%s is the archive itself", id.ID.Ref())
	}

	cat := sys.CategoryOf(id)
	plan := e.newPlan("archive")
	plan.Source = id.Path

	archDir, created := archivePath(cat)
	if created {
		plan.Created = append(plan.Created, archDir)
	}
	plan.Dest = filepath.Join(archDir, id.Entry.Name)

	if err := e.checkArchiveSlot(id.ID.Ref(), plan.Dest); err != nil {
		return nil, err
	}
	return plan, e.applyArchive(plan, created, archDir)
}

func (e *Engine) archiveCategory(sys *scanner.System, cat *scanner.CategoryEntry) (*Plan, error) {
	area := sys.CategoryParent(cat)
	metaCat := sys.FindCategory(area.Area.MetaCategory())
	if metaCat == nil {
		return nil, fmt.Errorf("area meta category %02d not found; create it before archiving categories",
			area.Area.MetaCategory())
	}
	if cat == metaCat {
		return nil, fmt.Errorf("cannot archive the area meta category %02d", cat.Category.Number)
	}
	// The entry lands inside the meta category, a separate write target.
	if err := e.authorize(fmt.Sprintf("%02d", metaCat.Category.Number)); err != nil {
		return nil, err
	}

	plan := e.newPlan("archive")
	plan.Source = cat.Path

	archDir, created := archivePath(metaCat)
	if created {
		plan.Created = append(plan.Created, archDir)
	}
	plan.Dest = filepath.Join(archDir, cat.Entry.Name)

	if err := e.checkArchiveSlot(fmt.Sprintf("%02d", cat.Category.Number), plan.Dest); err != nil {
		return nil, err
	}
	return plan, e.applyArchive(plan, created, archDir)
}

// archivePath locates a category's archive directory, or names the one
// to create.
func archivePath(cat *scanner.CategoryEntry) (path string, needsCreate bool) {
	if existing := cat.FindID(ident.SeqArchive); existing != nil {
		return existing.Path, false
	}
	name := fmt.Sprintf("%s Archive", ident.FormatID(cat.Category.Number, ident.SeqArchive))
	return filepath.Join(cat.Path, name), true
}

func (e *Engine) checkArchiveSlot(ref, dest string) error {
	ctx := move.ArchiveContext{Target: ref, ArchiveEntryPath: dest}
	if _, err := os.Lstat(dest); err == nil {
		ctx.ArchiveEntryTaken = true
	}
	return move.CanArchive(ctx).Error()
}

// applyArchive is the same rename primitive as a move, preceded by at
// most one mkdir. A failure between the two steps leaves only an empty
// archive directory, which is not an ID and is pruned on restore.
func (e *Engine) applyArchive(plan *Plan, created bool, archDir string) error {
	if e.dryRun {
		return nil
	}
	if created {
		if err := os.Mkdir(archDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", archDir, err)
		}
	}
	return e.applyRename(plan)
}

// Restore moves an archived entry back to the slot implied by the name
// it kept inside the archive. An occupied slot fails with a
// RestoreConflictError unless renumber is set, in which case the next
// free number in the same category (or area) is allocated. The archive
// directory is removed once its last entry leaves.
func (e *Engine) Restore(target string, renumber bool) (*Plan, error) {
	if err := e.authorize(target); err != nil {
		return nil, err
	}

	sys, err := e.scan()
	if err != nil {
		return nil, err
	}

	if catNum, seq, err := ident.ParseIDRef(target); err == nil {
		return e.restoreID(sys, target, catNum, seq, renumber)
	}
	if n, err := ident.ParseCategoryRef(target); err == nil {
		return e.restoreCategory(sys, n, renumber)
	}
	return nil, &NotFoundError{Target: target}
}

func (e *Engine) restoreID(sys *scanner.System, target string, catNum, seq int, renumber bool) (*Plan, error) {
	cat := sys.FindCategory(catNum)
	if cat == nil {
		return nil, &NotFoundError{Target: fmt.Sprintf("category %02d", catNum)}
	}
	archID := cat.FindID(ident.SeqArchive)
	if archID == nil {
		return nil, fmt.Errorf("category %02d has no archive (%s)",
			catNum, ident.FormatID(catNum, ident.SeqArchive))
	}

	// The archived entry is located by re-parsing the names stored in
	// the archive, not by prefix matching.
	entryName, err := findArchivedID(archID.Path, catNum, seq)
	if err != nil {
		return nil, err
	}

	occupant := cat.FindID(seq)
	ctx := move.RestoreContext{Target: target, Renumber: renumber, SlotOccupied: occupant != nil}
	if occupant != nil {
		ctx.OccupiedBy = occupant.Path
	}
	newSeq := seq
	if occupant != nil && renumber {
		if newSeq, err = cat.NextSequence(); err == nil {
			ctx.SlotsLeft = true
		}
	}
	if res := move.CanRestore(ctx); !res.Allowed {
		if ctx.SlotOccupied && !renumber {
			return nil, &RestoreConflictError{Ref: target, Existing: occupant.Path}
		}
		return nil, res.Error()
	}

	plan := e.newPlan("restore")
	plan.Source = filepath.Join(archID.Path, entryName)
	if newSeq == seq {
		// Round trip: the name kept verbatim in the archive rebuilds
		// the exact original path.
		plan.Dest = filepath.Join(cat.Path, entryName)
	} else {
		parsed, err := ident.ParseID(entryName)
		if err != nil {
			return nil, err
		}
		renamed := ident.ID{Category: catNum, Sequence: newSeq, Name: parsed.Name}
		plan.Dest = filepath.Join(cat.Path, renamed.String())
		plan.note("renumbered to %s", renamed.Ref())
	}

	return plan, e.applyRestore(plan, archID.Path)
}

func (e *Engine) restoreCategory(sys *scanner.System, catNum int, renumber bool) (*Plan, error) {
	area := sys.AreaFor(catNum)
	if area == nil {
		return nil, &NotFoundError{Target: fmt.Sprintf("area containing %02d", catNum)}
	}
	metaCat := sys.FindCategory(area.Area.MetaCategory())
	if metaCat == nil {
		return nil, fmt.Errorf("area meta category %02d not found", area.Area.MetaCategory())
	}
	// Restoring removes the entry from the meta category's archive.
	if err := e.authorize(fmt.Sprintf("%02d", metaCat.Category.Number)); err != nil {
		return nil, err
	}
	archID := metaCat.FindID(ident.SeqArchive)
	if archID == nil {
		return nil, fmt.Errorf("no archive (%s) in area %s",
			ident.FormatID(metaCat.Category.Number, ident.SeqArchive), area.Area)
	}

	entryName, err := findArchivedCategory(archID.Path, catNum)
	if err != nil {
		return nil, err
	}

	occupant := sys.FindCategory(catNum)
	ctx := move.RestoreContext{
		Target:       fmt.Sprintf("%02d", catNum),
		Renumber:     renumber,
		SlotOccupied: occupant != nil,
	}
	if occupant != nil {
		ctx.OccupiedBy = occupant.Path
	}
	newNum := catNum
	if occupant != nil && renumber {
		for n := area.Area.Start + 1; n <= area.Area.End; n++ {
			if sys.FindCategory(n) == nil {
				newNum = n
				ctx.SlotsLeft = true
				break
			}
		}
	}
	if res := move.CanRestore(ctx); !res.Allowed {
		if ctx.SlotOccupied && !renumber {
			return nil, &RestoreConflictError{Ref: fmt.Sprintf("%02d", catNum), Existing: occupant.Path}
		}
		return nil, res.Error()
	}

	plan := e.newPlan("restore")
	plan.Source = filepath.Join(archID.Path, entryName)
	if newNum == catNum {
		plan.Dest = filepath.Join(area.Path, entryName)
	} else {
		parsed, err := ident.ParseCategory(entryName)
		if err != nil {
			return nil, err
		}
		plan.Dest = filepath.Join(area.Path, fmt.Sprintf("%02d %s", newNum, parsed.Name))
		plan.note("renumbered to %02d", newNum)
	}

	return plan, e.applyRestore(plan, archID.Path)
}

func findArchivedID(archDir string, catNum, seq int) (string, error) {
	dirents, err := os.ReadDir(archDir)
	if err != nil {
		return "", fmt.Errorf("failed to read archive: %w", err)
	}
	for _, de := range dirents {
		id, err := ident.ParseID(de.Name())
		if err != nil {
			continue
		}
		if id.Category == catNum && id.Sequence == seq {
			return de.Name(), nil
		}
	}
	return "", &NotFoundError{Target: fmt.Sprintf("%s in %s", ident.FormatID(catNum, seq), archDir)}
}

func findArchivedCategory(archDir string, catNum int) (string, error) {
	dirents, err := os.ReadDir(archDir)
	if err != nil {
		return "", fmt.Errorf("failed to read archive: %w", err)
	}
	for _, de := range dirents {
		cat, err := ident.ParseCategory(de.Name())
		if err != nil {
			continue
		}
		if cat.Number == catNum {
			return de.Name(), nil
		}
	}
	return "", &NotFoundError{Target: fmt.Sprintf("category %02d in %s", catNum, archDir)}
}

// applyRestore renames the entry home, then prunes the archive
// directory if that was its last occupant. A failed prune leaves a
// valid tree and is only logged.
func (e *Engine) applyRestore(plan *Plan, archDir string) error {
	if e.dryRun {
		return nil
	}
	if err := e.applyRename(plan); err != nil {
		return err
	}
	if empty, err := isDirEmpty(archDir); err == nil && empty {
		if err := os.Remove(archDir); err != nil {
			e.logger.Debug("could not prune archive", "path", archDir, "err", err)
		} else {
			plan.note("removed empty %s", filepath.Base(archDir))
		}
	}
	return nil
}
