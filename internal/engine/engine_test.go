package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nelsonlove/jd/internal/core/scope"
	"github.com/nelsonlove/jd/internal/policy"
)

func mkTree(t *testing.T, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Join(root, p), 0755))
	}
	return root
}

// projectTree is the shared fixture: two areas, one with a meta
// category, categories with a couple of IDs each.
func projectTree(t *testing.T) string {
	t.Helper()
	return mkTree(t,
		"10-19 Admin/11 Finance/11.01 Budget",
		"10-19 Admin/11 Finance/11.02 Taxes",
		"20-29 Work/20 Meta - Work",
		"20-29 Work/22 Projects/22.01 Alpha",
		"20-29 Work/22 Projects/22.02 Beta",
	)
}

// listTree returns every path under root, relative and sorted, so two
// snapshots can be compared for exact equality.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if rel != "." {
			paths = append(paths, rel)
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestMoveRefile(t *testing.T) {
	root := projectTree(t)
	eng := New(root)

	plan, err := eng.Move("11.02", "22")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.03 Taxes"), plan.Dest)
	assert.DirExists(t, plan.Dest)
	assert.NoDirExists(t, filepath.Join(root, "10-19 Admin/11 Finance/11.02 Taxes"))
}

func TestMoveRenumber(t *testing.T) {
	t.Run("exact free slot", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		plan, err := eng.Move("22.01", "22.05")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.05 Alpha"), plan.Dest)
		assert.DirExists(t, plan.Dest)
	})

	t.Run("occupied slot conflicts", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		_, err := eng.Move("22.01", "22.02")
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "22.02", conflict.Ref)

		// Nothing moved.
		assert.DirExists(t, filepath.Join(root, "20-29 Work/22 Projects/22.01 Alpha"))
	})

	t.Run("own slot is not a conflict", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		plan, err := eng.Move("22.01", "22.01")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.01 Alpha"), plan.Dest)
	})

	t.Run("cross category keeps the name", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		plan, err := eng.Move("11.01", "22.07")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.07 Budget"), plan.Dest)
		assert.DirExists(t, plan.Dest)
		assert.NotEmpty(t, plan.Notes)
	})
}

func TestMoveRename(t *testing.T) {
	t.Run("id keeps its number", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		plan, err := eng.Move("22.01", "Alpha v2")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.01 Alpha v2"), plan.Dest)
		assert.DirExists(t, plan.Dest)
	})

	t.Run("category keeps its number", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		plan, err := eng.Move("22", "Client Work")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Client Work"), plan.Dest)
		assert.DirExists(t, filepath.Join(plan.Dest, "22.01 Alpha"))
	})

	t.Run("non-id digits are a name", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		// "221" parses as neither ID nor category, so it is a rename.
		plan, err := eng.Move("22.01", "221")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.01 221"), plan.Dest)
	})
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	root := projectTree(t)
	eng := New(root)
	original := filepath.Join(root, "20-29 Work/22 Projects/22.01 Alpha")

	plan, err := eng.Archive("22.01")
	require.NoError(t, err)

	archived := filepath.Join(root, "20-29 Work/22 Projects/22.99 Archive/22.01 Alpha")
	assert.Equal(t, archived, plan.Dest)
	assert.DirExists(t, archived)
	assert.NoDirExists(t, original)

	plan, err = eng.Restore("22.01", false)
	require.NoError(t, err)

	// The full display name kept inside the archive rebuilds the exact
	// original path.
	assert.Equal(t, original, plan.Dest)
	assert.DirExists(t, original)
	assert.NoDirExists(t, filepath.Join(root, "20-29 Work/22 Projects/22.99 Archive"))
}

func TestRestoreConflict(t *testing.T) {
	root := projectTree(t)
	eng := New(root)

	_, err := eng.Archive("22.01")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(root, "20-29 Work/22 Projects/22.01 Gamma"), 0755))

	_, err = eng.Restore("22.01", false)
	var conflict *RestoreConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "22.01", conflict.Ref)
	assert.Contains(t, conflict.Existing, "22.01 Gamma")

	plan, err := eng.Restore("22.01", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.03 Alpha"), plan.Dest)
	assert.DirExists(t, plan.Dest)
	assert.DirExists(t, filepath.Join(root, "20-29 Work/22 Projects/22.01 Gamma"))
}

func TestArchiveCategory(t *testing.T) {
	root := projectTree(t)
	eng := New(root)

	plan, err := eng.Archive("22")
	require.NoError(t, err)

	archived := filepath.Join(root, "20-29 Work/20 Meta - Work/20.99 Archive/22 Projects")
	assert.Equal(t, archived, plan.Dest)
	assert.DirExists(t, filepath.Join(archived, "22.01 Alpha"))
	assert.NoDirExists(t, filepath.Join(root, "20-29 Work/22 Projects"))

	plan, err = eng.Restore("22", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects"), plan.Dest)
	assert.DirExists(t, filepath.Join(plan.Dest, "22.01 Alpha"))
}

func TestArchiveCategoryWithoutMetaCategory(t *testing.T) {
	root := projectTree(t)
	eng := New(root)

	// Area 10-19 has no "10" meta category to host an archive.
	_, err := eng.Archive("11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta category")
}

func TestArchiveNameTaken(t *testing.T) {
	root := projectTree(t)
	eng := New(root)

	_, err := eng.Archive("22.01")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(root, "20-29 Work/22 Projects/22.01 Alpha"), 0755))

	_, err = eng.Archive("22.01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists in archive")
}

func TestDryRunLeavesTreeUntouched(t *testing.T) {
	ops := []struct {
		name string
		run  func(*Engine) (*Plan, error)
	}{
		{"renumber", func(e *Engine) (*Plan, error) { return e.Move("22.01", "22.05") }},
		{"refile", func(e *Engine) (*Plan, error) { return e.Move("11.02", "22") }},
		{"archive", func(e *Engine) (*Plan, error) { return e.Archive("22.01") }},
		{"new id", func(e *Engine) (*Plan, error) { return e.NewID(22, "Gamma", AutoNumber) }},
		{"init", func(e *Engine) (*Plan, error) { return e.Init(11) }},
	}

	rel := func(t *testing.T, root string, paths ...string) []string {
		t.Helper()
		var out []string
		for _, p := range paths {
			if p == "" {
				out = append(out, "")
				continue
			}
			r, err := filepath.Rel(root, p)
			require.NoError(t, err)
			out = append(out, r)
		}
		return out
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			dryRoot := projectTree(t)
			before := listTree(t, dryRoot)
			dryPlan, err := op.run(New(dryRoot, WithDryRun(true)))
			require.NoError(t, err)
			assert.True(t, dryPlan.DryRun)
			assert.NotEmpty(t, dryPlan.Dest)
			assert.Equal(t, before, listTree(t, dryRoot))

			// The dry-run plan and the real run compute the same result.
			wetRoot := projectTree(t)
			wetPlan, err := op.run(New(wetRoot))
			require.NoError(t, err)
			assert.Equal(t,
				rel(t, dryRoot, dryPlan.Source, dryPlan.Dest),
				rel(t, wetRoot, wetPlan.Source, wetPlan.Dest))
			assert.Equal(t,
				rel(t, dryRoot, dryPlan.Created...),
				rel(t, wetRoot, wetPlan.Created...))
		})
	}
}

func TestScopeCheckedBeforeFilesystem(t *testing.T) {
	root := projectTree(t)
	eng := New(root, WithScope(scope.Rule{Prefixes: []string{"30-39"}}))

	// The source does not even exist; the scope violation still wins.
	_, err := eng.Move("99.01", "22")
	var violation *scope.ViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "99.01", violation.Target)

	_, err = eng.Archive("22.01")
	require.ErrorAs(t, err, &violation)

	// In scope, operations proceed.
	scoped := New(root, WithScope(scope.Rule{Prefixes: []string{"20-29"}}))
	_, err = scoped.Move("22.01", "22.05")
	require.NoError(t, err)
}

func TestNewCategoryScopeCoversResolvedNumber(t *testing.T) {
	t.Run("pinned number outside scope", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root, WithScope(scope.Rule{Prefixes: []string{"20"}}))

		// The area argument (20) is in scope; the category being
		// created (25) is not.
		_, err := eng.NewCategory(20, "Sneaky", 25, false)
		var violation *scope.ViolationError
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "25", violation.Target)
		assert.NoDirExists(t, filepath.Join(root, "20-29 Work/25 Sneaky"))
	})

	t.Run("auto number outside scope", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root, WithScope(scope.Rule{Prefixes: []string{"20"}}))

		// Auto-allocation resolves to 21, which "20" does not cover.
		_, err := eng.NewCategory(20, "Sneaky", AutoNumber, false)
		var violation *scope.ViolationError
		require.ErrorAs(t, err, &violation)
		assert.NoDirExists(t, filepath.Join(root, "20-29 Work/21 Sneaky"))
	})

	t.Run("area-range scope covers the number", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root, WithScope(scope.Rule{Prefixes: []string{"20-29"}}))

		plan, err := eng.NewCategory(20, "Clients", 25, false)
		require.NoError(t, err)
		assert.DirExists(t, plan.Dest)
	})
}

func TestArchiveCategoryScopeCoversMetaCategory(t *testing.T) {
	root := projectTree(t)

	// Archiving category 22 writes into the area meta category 20.
	eng := New(root, WithScope(scope.Rule{Prefixes: []string{"22"}}))
	_, err := eng.Archive("22")
	var violation *scope.ViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "20", violation.Target)
	assert.DirExists(t, filepath.Join(root, "20-29 Work/22 Projects"))

	// Restoring removes from the meta archive: same requirement.
	_, err = New(root).Archive("22")
	require.NoError(t, err)
	_, err = eng.Restore("22", false)
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "20", violation.Target)
	assert.DirExists(t, filepath.Join(root, "20-29 Work/20 Meta - Work/20.99 Archive/22 Projects"))
}

func TestNewID(t *testing.T) {
	t.Run("auto allocates next free", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		plan, err := eng.NewID(22, "Gamma", AutoNumber)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.03 Gamma"), plan.Dest)
		assert.DirExists(t, plan.Dest)
	})

	t.Run("pinned taken slot conflicts", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		_, err := eng.NewID(22, "Gamma", 2)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "22.02", conflict.Ref)
	})

	t.Run("name required except meta", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)

		_, err := eng.NewID(22, "", 5)
		require.Error(t, err)

		plan, err := eng.NewID(22, "", 0)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.00"), plan.Dest)
	})
}

func TestNewCategory(t *testing.T) {
	root := projectTree(t)
	eng := New(root)

	// Auto skips the reserved x0 slot; 21 is the first free number.
	plan, err := eng.NewCategory(20, "Clients", AutoNumber, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "20-29 Work/21 Clients"), plan.Dest)
	assert.DirExists(t, filepath.Join(plan.Dest, "21.00"))
	assert.DirExists(t, filepath.Join(plan.Dest, "21.01 Unsorted"))

	// 11 is taken in another area; category numbers are global.
	_, err = eng.NewCategory(20, "Clash", 11, false)
	require.Error(t, err)

	_, err = eng.NewCategory(20, "Outside", 35, false)
	require.Error(t, err)
}

func TestInitIdempotent(t *testing.T) {
	root := projectTree(t)
	eng := New(root)

	plan, err := eng.Init(22)
	require.NoError(t, err)
	// 22.01 Alpha already holds the unsorted slot, so only the meta ID
	// is missing.
	require.Equal(t, []string{filepath.Join(root, "20-29 Work/22 Projects/22.00")}, plan.Created)
	assert.DirExists(t, plan.Created[0])

	plan, err = eng.Init(22)
	require.NoError(t, err)
	assert.Empty(t, plan.Created)
	assert.NotEmpty(t, plan.Notes)
}

func TestInitAllScopeAbortsBeforeMutation(t *testing.T) {
	root := projectTree(t)
	eng := New(root, WithScope(scope.Rule{Prefixes: []string{"10-19"}}))
	before := listTree(t, root)

	// Category 20 needs seeds but is out of scope; nothing is created,
	// not even the in-scope seeds planned first.
	_, err := eng.InitAll()
	var violation *scope.ViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, before, listTree(t, root))
}

func TestAdd(t *testing.T) {
	newExternal := func(t *testing.T) string {
		t.Helper()
		dir := filepath.Join(t.TempDir(), "FabFilter")
		require.NoError(t, os.Mkdir(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "license.txt"), []byte("key"), 0644))
		return dir
	}

	t.Run("copy", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)
		src := newExternal(t)

		plan, err := eng.Add(src, 22, true)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "20-29 Work/22 Projects/22.03 FabFilter"), plan.Dest)
		assert.FileExists(t, filepath.Join(plan.Dest, "license.txt"))
		assert.DirExists(t, src)
	})

	t.Run("symlink", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)
		src := newExternal(t)

		plan, err := eng.Add(src, 22, false)
		require.NoError(t, err)

		info, err := os.Lstat(plan.Dest)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeSymlink)
		target, err := os.Readlink(plan.Dest)
		require.NoError(t, err)
		assert.Equal(t, src, target)
	})

	t.Run("file source needs ids_as_files", func(t *testing.T) {
		root := projectTree(t)
		eng := New(root)
		file := filepath.Join(t.TempDir(), "notes.md")
		require.NoError(t, os.WriteFile(file, []byte("# notes"), 0644))

		_, err := eng.Add(file, 22, true)
		require.Error(t, err)

		catDir := filepath.Join(root, "20-29 Work/22 Projects")
		require.NoError(t, policy.Set(catDir, policy.KeyIDsAsFiles, true))

		plan, err := eng.Add(file, 22, true)
		require.NoError(t, err)
		assert.FileExists(t, plan.Dest)
	})
}
