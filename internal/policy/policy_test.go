package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root)

	p, err := r.Resolve(root)
	require.NoError(t, err)

	assert.False(t, p.IDsAsFiles())
	assert.False(t, p.IDsFilesOnly())
	assert.True(t, p.MetaCategory())
	assert.True(t, p.MetaID())
	assert.True(t, p.UnsortedID())
	assert.Equal(t, DefaultSource, p.Where(KeyIDsAsFiles))
}

func TestResolveCascade(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "80-89 Media", "86 Music")
	sibling := filepath.Join(root, "80-89 Media", "82 Film")
	require.NoError(t, os.MkdirAll(child, 0755))
	require.NoError(t, os.MkdirAll(sibling, 0755))

	rootFile := writePolicy(t, root, "ids_files_only: true\n")
	childFile := writePolicy(t, child, "ids_files_only: false\n")

	r := NewResolver(root)

	// At and below the descendant override, the descendant wins.
	p, err := r.Resolve(child)
	require.NoError(t, err)
	assert.False(t, p.IDsFilesOnly())
	assert.Equal(t, childFile, p.Where(KeyIDsFilesOnly))

	deeper := filepath.Join(child, "86.03 Live sets")
	require.NoError(t, os.MkdirAll(deeper, 0755))
	p, err = r.Resolve(deeper)
	require.NoError(t, err)
	assert.False(t, p.IDsFilesOnly())

	// At a sibling not below the override, the root value holds.
	p, err = r.Resolve(sibling)
	require.NoError(t, err)
	assert.True(t, p.IDsFilesOnly())
	assert.Equal(t, rootFile, p.Where(KeyIDsFilesOnly))
}

func TestResolveMergesPerKey(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "26 Recipes")
	require.NoError(t, os.MkdirAll(child, 0755))

	// The descendant file overrides one key; the ancestor's other key
	// must survive — files never replace the whole map.
	writePolicy(t, root, "ids_as_files: true\nunsorted_id: false\n")
	writePolicy(t, child, "ids_as_files: false\n")

	p, err := NewResolver(root).Resolve(child)
	require.NoError(t, err)
	assert.False(t, p.IDsAsFiles())
	assert.False(t, p.UnsortedID(), "ancestor-only key lost in merge")
}

func TestResolveMalformedFile(t *testing.T) {
	root := t.TempDir()

	t.Run("bad yaml", func(t *testing.T) {
		writePolicy(t, root, "ids_as_files: [broken\n")
		_, err := NewResolver(root).Resolve(root)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, filepath.Join(root, FileName), pe.Path)
	})

	t.Run("unknown key", func(t *testing.T) {
		writePolicy(t, root, "no_such_key: true\n")
		_, err := NewResolver(root).Resolve(root)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("non-bool value", func(t *testing.T) {
		writePolicy(t, root, "ids_as_files: sometimes\n")
		_, err := NewResolver(root).Resolve(root)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
	})
}

func TestGetReportsWhere(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "26 Recipes")
	require.NoError(t, os.MkdirAll(child, 0755))
	childFile := writePolicy(t, child, "meta_id: false\n")

	r := NewResolver(root)

	v, where, err := r.Get(child, KeyMetaID)
	require.NoError(t, err)
	assert.False(t, v)
	assert.Equal(t, childFile, where)

	v, where, err = r.Get(child, KeyUnsortedID)
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, DefaultSource, where)

	_, _, err = r.Get(child, Key("bogus"))
	assert.Error(t, err)
}

func TestSetAndUnset(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "26 Recipes")
	require.NoError(t, os.MkdirAll(child, 0755))
	r := NewResolver(root)

	// Set mutates only the file at the given level.
	require.NoError(t, Set(child, KeyIDsFilesOnly, true))
	assert.NoFileExists(t, filepath.Join(root, FileName))

	p, err := r.Resolve(child)
	require.NoError(t, err)
	assert.True(t, p.IDsFilesOnly())

	// Unset removes the key, reverting to the ancestor default.
	require.NoError(t, Unset(child, KeyIDsFilesOnly))
	p, err = r.Resolve(child)
	require.NoError(t, err)
	assert.False(t, p.IDsFilesOnly())

	// The emptied file is deleted, not left as a sentinel.
	assert.NoFileExists(t, filepath.Join(child, FileName))

	// Unsetting a key that is not set at this level is an error.
	require.NoError(t, Set(child, KeyMetaID, false))
	assert.Error(t, Unset(child, KeyUnsortedID))
}

func TestSetPreservesOtherKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Set(dir, KeyIDsAsFiles, true))
	require.NoError(t, Set(dir, KeyMetaID, false))

	overrides, err := LoadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, map[Key]bool{KeyIDsAsFiles: true, KeyMetaID: false}, overrides)
}
