package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nelsonlove/jd/internal/core/ident"
)

// minAreasForRoot is how many area directories a directory needs to be
// treated as a filing-system root. Non-JD clutter next to the areas is
// tolerated.
const minAreasForRoot = 3

// IsRoot reports whether a directory looks like the top of a managed
// tree.
func IsRoot(dir string) bool {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	areas := 0
	for _, de := range dirents {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if ident.Classify(de.Name()) == ident.KindArea {
			areas++
		}
	}
	return areas >= minAreasForRoot
}

// DiscoverRoot walks upward from start until it finds a directory that
// qualifies as a root.
func DiscoverRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	current := abs
	for {
		if IsRoot(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", fmt.Errorf("no filing-system root found above %s", abs)
}
