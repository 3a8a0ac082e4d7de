package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nelsonlove/jd/internal/core/ident"
)

// Add brings an out-of-tree path into the next available slot of a
// category, either by deep copy or by symlink. The source is left
// untouched in both modes.
func (e *Engine) Add(externalPath string, catNum int, copyMode bool) (*Plan, error) {
	if err := e.authorize(fmt.Sprintf("%02d", catNum)); err != nil {
		return nil, err
	}

	src, err := filepath.Abs(externalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", externalPath, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source not found: %s", externalPath)
	}

	sys, err := e.scan()
	if err != nil {
		return nil, err
	}
	cat := sys.FindCategory(catNum)
	if cat == nil {
		return nil, &NotFoundError{Target: fmt.Sprintf("category %02d", catNum)}
	}

	pol, err := e.resolver.Resolve(cat.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() && !pol.IDsAsFiles() {
		return nil, fmt.Errorf("%s is a file, and ids_as_files is disabled for category %02d", src, catNum)
	}

	seq, err := cat.NextSequence()
	if err != nil {
		return nil, err
	}

	id := ident.ID{Category: catNum, Sequence: seq, Name: filepath.Base(src)}
	plan := e.newPlan("add")
	plan.Source = src
	plan.Dest = filepath.Join(cat.Path, id.String())
	if copyMode {
		plan.note("copy")
	} else {
		plan.note("symlink")
	}

	if e.dryRun {
		return plan, nil
	}

	if copyMode {
		if err := copyTree(src, plan.Dest); err != nil {
			return nil, err
		}
	} else {
		if err := os.Symlink(src, plan.Dest); err != nil {
			return nil, fmt.Errorf("failed to link %s: %w", src, err)
		}
	}
	e.logger.Debug("added", "source", src, "dest", plan.Dest)
	return plan, nil
}
