package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nelsonlove/jd/internal/policy"
	"github.com/nelsonlove/jd/internal/scanner"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
}

func scanAndRun(t *testing.T, root string, opts Options) *Report {
	t.Helper()
	sys, err := scanner.Scan(root, scanner.Options{})
	require.NoError(t, err)
	report, err := Run(sys, policy.NewResolver(root), opts)
	require.NoError(t, err)
	return report
}

// cleanTree builds a tree that passes every default-policy rule.
func cleanTree(t *testing.T) string {
	root := t.TempDir()
	mkdirs(t, root,
		"20-29 Family/20 Meta - Family/20.00",
		"20-29 Family/20 Meta - Family/20.01 Unsorted",
		"20-29 Family/26 Recipes/26.00",
		"20-29 Family/26 Recipes/26.01 Unsorted",
		"20-29 Family/26 Recipes/26.03 Bread",
	)
	return root
}

func TestCleanTreePasses(t *testing.T) {
	report := scanAndRun(t, cleanTree(t), Options{})
	assert.True(t, report.OK(), "findings: %+v", report.Findings)
	assert.Empty(t, report.Findings)
}

func TestDuplicateCategoryReportsBothPaths(t *testing.T) {
	root := t.TempDir()
	// Two areas declaring the same range, each holding a category 13;
	// both prefixes are in range, so only the duplicate rule fires.
	mkdirs(t, root,
		"10-19 One/13 Files",
		"10-19 Two/13 Files again",
	)

	// meta/unsorted conventions off, to isolate the duplicate rule
	require.NoError(t, policy.Set(root, policy.KeyMetaCategory, false))
	require.NoError(t, policy.Set(root, policy.KeyMetaID, false))
	require.NoError(t, policy.Set(root, policy.KeyUnsortedID, false))

	report := scanAndRun(t, root, Options{})
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, RuleDuplicateCategory, errs[0].Rule)
	assert.Contains(t, errs[0].Message, "10-19 One/13 Files")
	assert.Contains(t, errs[0].Message, "10-19 Two/13 Files again")
	assert.False(t, report.OK())
}

func TestBrokenSymlinkIsSingleAdvisory(t *testing.T) {
	root := cleanTree(t)
	require.NoError(t, os.Symlink("/nonexistent/vol", filepath.Join(root, "20-29 Family", "27 External")))

	report := scanAndRun(t, root, Options{})
	advisories := report.Advisories()
	require.Len(t, advisories, 1)
	assert.Equal(t, RuleBrokenSymlink, advisories[0].Rule)
	// Advisories never fail validation.
	assert.True(t, report.OK())
}

func TestPrefixOutsideArea(t *testing.T) {
	root := cleanTree(t)
	mkdirs(t, root,
		"20-29 Family/64 Stray/64.00",
		"20-29 Family/64 Stray/64.01 Unsorted",
	)

	report := scanAndRun(t, root, Options{})
	var rules []string
	for _, f := range report.Errors() {
		rules = append(rules, f.Rule)
	}
	assert.Contains(t, rules, RulePrefixOutsideArea)
}

func TestMismatchedPrefix(t *testing.T) {
	root := cleanTree(t)
	mkdirs(t, root, "20-29 Family/26 Recipes/31.02 Wrong home")

	report := scanAndRun(t, root, Options{})
	found := false
	for _, f := range report.Errors() {
		if f.Rule == RuleMismatchedPrefix {
			found = true
			assert.Contains(t, f.Message, "31.02")
		}
	}
	assert.True(t, found)
}

func TestOrphanAdvisory(t *testing.T) {
	root := cleanTree(t)
	mkdirs(t, root, "FabFilter", "20-29 Family/Zoom")

	report := scanAndRun(t, root, Options{})
	require.Len(t, report.Advisories(), 2)
	assert.True(t, report.OK())
}

func TestConventionRulesFollowPolicy(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "20-29 Family/26 Recipes") // no meta, no unsorted

	t.Run("enabled by default", func(t *testing.T) {
		report := scanAndRun(t, root, Options{})
		var rules []string
		for _, f := range report.Errors() {
			rules = append(rules, f.Rule)
		}
		assert.Contains(t, rules, RuleMissingMetaID)
		assert.Contains(t, rules, RuleMissingUnsorted)
		assert.Contains(t, rules, RuleMetaCategoryName) // area has no 20 meta category
	})

	t.Run("disabled by policy", func(t *testing.T) {
		require.NoError(t, policy.Set(root, policy.KeyMetaCategory, false))
		require.NoError(t, policy.Set(root, policy.KeyMetaID, false))
		require.NoError(t, policy.Set(root, policy.KeyUnsortedID, false))

		report := scanAndRun(t, root, Options{})
		assert.True(t, report.OK(), "findings: %+v", report.Findings)
	})
}

func TestIDsFilesOnly(t *testing.T) {
	root := cleanTree(t)
	mkdirs(t, root, "20-29 Family/26 Recipes/26.03 Bread/Sourdough notes")

	// Without the key the subdirectory is fine.
	report := scanAndRun(t, root, Options{})
	assert.True(t, report.OK())

	// With the key enabled at the category, it is an error.
	require.NoError(t, policy.Set(filepath.Join(root, "20-29 Family", "26 Recipes"), policy.KeyIDsFilesOnly, true))
	report = scanAndRun(t, root, Options{})
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, RuleIDsFilesOnly, errs[0].Rule)
	assert.Contains(t, errs[0].Message, "Sourdough notes")
}

func TestIDAsFile(t *testing.T) {
	root := cleanTree(t)
	filePath := filepath.Join(root, "20-29 Family", "26 Recipes", "26.04 Shopping list.md")
	require.NoError(t, os.WriteFile(filePath, []byte("milk\n"), 0644))

	report := scanAndRun(t, root, Options{})
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, RuleIDAsFile, errs[0].Rule)

	// Permitted under ids_as_files.
	require.NoError(t, policy.Set(root, policy.KeyIDsAsFiles, true))
	report = scanAndRun(t, root, Options{})
	assert.True(t, report.OK())
}

func TestMalformedPolicyIsFatal(t *testing.T) {
	root := cleanTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, policy.FileName), []byte("ids_as_files: [oops\n"), 0644))

	sys, err := scanner.Scan(root, scanner.Options{})
	require.NoError(t, err)
	_, err = Run(sys, policy.NewResolver(root), Options{})
	var pe *policy.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestExternalRefs(t *testing.T) {
	root := cleanTree(t)

	report := scanAndRun(t, root, Options{Refs: []ExternalRef{
		{Source: "omnifocus:task-1", Ref: "26.03"},
		{Source: "omnifocus:task-2", Ref: "26.77"},
	}})

	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, RuleDanglingReference, errs[0].Rule)
	assert.Contains(t, errs[0].Message, "omnifocus:task-2")
	assert.Contains(t, errs[0].Message, "26.77")
}

func TestEnDashAdvisory(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"30–39 Admin/30 Meta - Admin/30.00",
		"30–39 Admin/30 Meta - Admin/30.01 Unsorted",
	)

	report := scanAndRun(t, root, Options{})
	found := false
	for _, f := range report.Advisories() {
		if f.Rule == RuleEnDash {
			found = true
		}
	}
	assert.True(t, found)
	assert.True(t, report.OK())
}
