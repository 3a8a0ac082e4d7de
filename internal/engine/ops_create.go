package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nelsonlove/jd/internal/core/ident"
	"github.com/nelsonlove/jd/internal/scanner"
)

// AutoNumber requests automatic allocation of the next free number.
const AutoNumber = -1

// NewID creates a new ID inside a category. With AutoNumber the next
// free sequence is allocated; a pinned sequence fails with a
// ConflictError when already taken.
func (e *Engine) NewID(catNum int, name string, sequence int) (*Plan, error) {
	if err := e.authorize(fmt.Sprintf("%02d", catNum)); err != nil {
		return nil, err
	}

	sys, err := e.scan()
	if err != nil {
		return nil, err
	}
	cat := sys.FindCategory(catNum)
	if cat == nil {
		return nil, &NotFoundError{Target: fmt.Sprintf("category %02d", catNum)}
	}

	if sequence == AutoNumber {
		sequence, err = cat.NextSequence()
		if err != nil {
			return nil, err
		}
	} else if existing := cat.FindID(sequence); existing != nil {
		return nil, &ConflictError{Ref: ident.FormatID(catNum, sequence), Existing: existing.Path}
	}

	if name == "" && sequence != ident.SeqMeta {
		return nil, fmt.Errorf("a name is required for every sequence except %s",
			ident.FormatID(catNum, ident.SeqMeta))
	}

	id := ident.ID{Category: catNum, Sequence: sequence, Name: name}
	plan := e.newPlan("new-id")
	plan.Dest = filepath.Join(cat.Path, id.String())

	if sequence == ident.SeqUnsorted && !ident.Equal(name, "Unsorted") {
		plan.note("%s is conventionally \"Unsorted\"", ident.FormatID(catNum, ident.SeqUnsorted))
	}

	if e.dryRun {
		return plan, nil
	}
	if err := os.Mkdir(plan.Dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", plan.Dest, err)
	}
	e.logger.Debug("created id", "path", plan.Dest)
	return plan, nil
}

// NewCategory creates a new category in the area containing areaNum.
// With AutoNumber the lowest free number is allocated, skipping the
// reserved x0 meta slot and any number used elsewhere in the tree. With
// init, the reserved sub-entries required by policy are seeded too.
func (e *Engine) NewCategory(areaNum int, name string, number int, init bool) (*Plan, error) {
	if err := e.authorize(fmt.Sprintf("%02d", areaNum)); err != nil {
		return nil, err
	}

	sys, err := e.scan()
	if err != nil {
		return nil, err
	}
	area := sys.AreaFor(areaNum)
	if area == nil {
		return nil, &NotFoundError{Target: fmt.Sprintf("area containing %02d", areaNum)}
	}

	if number == AutoNumber {
		number = 0
		for n := area.Area.Start + 1; n <= area.Area.End; n++ {
			if sys.FindCategory(n) == nil {
				number = n
				break
			}
		}
		if number == 0 {
			return nil, fmt.Errorf("area %s has no free category numbers", area.Area)
		}
	} else {
		if !area.Area.Contains(number) {
			return nil, fmt.Errorf("category %02d is outside area %s", number, area.Area)
		}
		// Category numbers are unique across the whole tree, not just
		// within the area.
		if existing := sys.FindCategory(number); existing != nil {
			return nil, &ConflictError{Ref: fmt.Sprintf("%02d", number), Existing: existing.Path}
		}
	}

	// The write lands under the resolved number, which a scope listing
	// only the area number does not cover.
	if err := e.authorize(fmt.Sprintf("%02d", number)); err != nil {
		return nil, err
	}

	plan := e.newPlan("new-category")
	plan.Dest = filepath.Join(area.Path, fmt.Sprintf("%02d %s", number, name))

	pol, err := e.resolver.Resolve(plan.Dest)
	if err != nil {
		return nil, err
	}
	var seeds []string
	if init {
		if pol.MetaID() {
			seeds = append(seeds, ident.FormatID(number, ident.SeqMeta))
		}
		if pol.UnsortedID() {
			seeds = append(seeds, fmt.Sprintf("%s Unsorted", ident.FormatID(number, ident.SeqUnsorted)))
		}
	}
	for _, s := range seeds {
		plan.Created = append(plan.Created, filepath.Join(plan.Dest, s))
	}

	if e.dryRun {
		return plan, nil
	}
	if err := os.Mkdir(plan.Dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", plan.Dest, err)
	}
	for _, p := range plan.Created {
		if err := os.Mkdir(p, 0755); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", p, err)
		}
	}
	e.logger.Debug("created category", "path", plan.Dest)
	return plan, nil
}

// Init bootstraps a category's reserved sub-entries as the effective
// policy requires. Re-running is idempotent: present entries are noted,
// never duplicated and never an error.
func (e *Engine) Init(catNum int) (*Plan, error) {
	if err := e.authorize(fmt.Sprintf("%02d", catNum)); err != nil {
		return nil, err
	}

	sys, err := e.scan()
	if err != nil {
		return nil, err
	}
	cat := sys.FindCategory(catNum)
	if cat == nil {
		return nil, &NotFoundError{Target: fmt.Sprintf("category %02d", catNum)}
	}

	plan := e.newPlan("init")
	plan.Dest = cat.Path
	if err := e.planSeeds(cat, plan); err != nil {
		return nil, err
	}
	if e.dryRun {
		return plan, nil
	}
	return plan, e.applySeeds(plan)
}

// InitAll bootstraps every category in the tree. All seeds are planned
// and scope-checked before the first directory is created, so a scope
// violation aborts with no partial mutation.
func (e *Engine) InitAll() (*Plan, error) {
	sys, err := e.scan()
	if err != nil {
		return nil, err
	}

	plan := e.newPlan("init-all")
	plan.Dest = sys.Root
	for _, cat := range sys.AllCategories() {
		before := len(plan.Created)
		if err := e.planSeeds(cat, plan); err != nil {
			return nil, err
		}
		if len(plan.Created) > before {
			if err := e.authorize(fmt.Sprintf("%02d", cat.Category.Number)); err != nil {
				return nil, err
			}
		}
	}
	if e.dryRun {
		return plan, nil
	}
	return plan, e.applySeeds(plan)
}

// planSeeds appends the reserved entries a category still needs, per the
// effective policy at its path.
func (e *Engine) planSeeds(cat *scanner.CategoryEntry, plan *Plan) error {
	pol, err := e.resolver.Resolve(cat.Path)
	if err != nil {
		return err
	}

	var wanted []string
	if pol.MetaID() && cat.FindID(ident.SeqMeta) == nil {
		wanted = append(wanted, ident.FormatID(cat.Category.Number, ident.SeqMeta))
	}
	if pol.UnsortedID() && cat.FindID(ident.SeqUnsorted) == nil {
		wanted = append(wanted, fmt.Sprintf("%s Unsorted", ident.FormatID(cat.Category.Number, ident.SeqUnsorted)))
	}
	if len(wanted) == 0 {
		plan.note("category %02d already bootstrapped", cat.Category.Number)
		return nil
	}
	for _, name := range wanted {
		plan.Created = append(plan.Created, filepath.Join(cat.Path, name))
	}
	return nil
}

func (e *Engine) applySeeds(plan *Plan) error {
	for _, p := range plan.Created {
		if err := os.Mkdir(p, 0755); err != nil {
			return fmt.Errorf("failed to seed %s: %w", p, err)
		}
		e.logger.Debug("seeded", "path", p)
	}
	return nil
}
