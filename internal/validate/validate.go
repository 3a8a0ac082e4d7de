// Package validate runs the fixed consistency rule set over a scanned
// tree and the policies that apply to it. Rules are tagged error or
// advisory; advisories never abort a run and are reported separately.
package validate

import (
	"fmt"
	"os"
	"strings"

	"github.com/nelsonlove/jd/internal/core/ident"
	"github.com/nelsonlove/jd/internal/policy"
	"github.com/nelsonlove/jd/internal/scanner"
)

// Severity tags a finding.
type Severity int

const (
	SeverityError Severity = iota
	SeverityAdvisory
)

func (s Severity) String() string {
	if s == SeverityAdvisory {
		return "advisory"
	}
	return "error"
}

// Rule names, stable identifiers for the result contract.
const (
	RuleDuplicateSequence = "duplicate-sequence"
	RuleDuplicateCategory = "duplicate-category"
	RulePrefixOutsideArea = "prefix-outside-area"
	RuleMismatchedPrefix  = "mismatched-prefix"
	RuleBrokenSymlink     = "broken-symlink"
	RuleOrphan            = "orphan"
	RuleMissingUnsorted   = "missing-unsorted"
	RuleUnsortedNaming    = "unsorted-naming"
	RuleMetaCategoryName  = "meta-category-naming"
	RuleMissingMetaID     = "missing-meta-id"
	RuleIDsFilesOnly      = "ids-files-only"
	RuleIDAsFile          = "id-as-file"
	RuleEnDash            = "en-dash"
	RuleDanglingReference = "dangling-reference"
)

// Finding is one structured validation record.
type Finding struct {
	Rule     string
	Severity Severity
	Path     string
	Message  string
}

// Report collects findings from one run.
type Report struct {
	Findings []Finding
}

// Errors returns the error-severity findings.
func (r *Report) Errors() []Finding { return r.filter(SeverityError) }

// Advisories returns the advisory findings.
func (r *Report) Advisories() []Finding { return r.filter(SeverityAdvisory) }

// OK reports overall success: no error-severity findings.
func (r *Report) OK() bool { return len(r.Errors()) == 0 }

func (r *Report) filter(sev Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) add(rule string, sev Severity, path, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{
		Rule:     rule,
		Severity: sev,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ExternalRef is a claim, supplied by an external application, that some
// record references the given dotted ID. The validator only checks that
// the claim resolves; it never queries the application itself.
type ExternalRef struct {
	Source string // e.g. "omnifocus:task-1234"
	Ref    string // e.g. "26.01"
}

// Options tunes a validation run.
type Options struct {
	Refs []ExternalRef
}

// Run evaluates every rule. A malformed policy file is fatal and returns
// an error; everything else accumulates into the report.
func Run(sys *scanner.System, resolver *policy.Resolver, opts Options) (*Report, error) {
	report := &Report{}

	checkDuplicates(sys, report)
	checkAreaRanges(sys, report)
	checkSymlinks(sys, report)
	checkOrphans(sys, report)
	checkStyle(sys, report)
	if err := checkConventions(sys, resolver, report); err != nil {
		return nil, err
	}
	if err := checkIDPolicies(sys, resolver, report); err != nil {
		return nil, err
	}
	checkExternalRefs(sys, opts.Refs, report)

	return report, nil
}

func checkDuplicates(sys *scanner.System, report *Report) {
	for _, d := range sys.DuplicateIDs() {
		report.add(RuleDuplicateSequence, SeverityError, d.Second.Path,
			"duplicate ID %s: %s and %s", d.Ref, d.First.Path, d.Second.Path)
	}
	for _, d := range sys.DuplicateCategories() {
		report.add(RuleDuplicateCategory, SeverityError, d.Second.Path,
			"duplicate category %02d: %s and %s", d.Number, d.First.Path, d.Second.Path)
	}
}

func checkAreaRanges(sys *scanner.System, report *Report) {
	for _, area := range sys.Areas {
		for _, cat := range area.Categories {
			if !area.Area.Contains(cat.Category.Number) {
				report.add(RulePrefixOutsideArea, SeverityError, cat.Path,
					"category %02d is outside area range %02d-%02d",
					cat.Category.Number, area.Area.Start, area.Area.End)
			}
			for _, id := range cat.IDs {
				if id.Mismatched(cat) {
					report.add(RuleMismatchedPrefix, SeverityError, id.Path,
						"ID %s is filed inside category %02d", id.ID.Ref(), cat.Category.Number)
				}
			}
		}
	}
}

func checkSymlinks(sys *scanner.System, report *Report) {
	for _, u := range sys.Unreachable {
		report.add(RuleBrokenSymlink, SeverityAdvisory, u.Path,
			"symlink target is unreachable")
	}
}

func checkOrphans(sys *scanner.System, report *Report) {
	for _, o := range sys.Orphans {
		report.add(RuleOrphan, SeverityAdvisory, o.Path,
			"%q does not parse as an area", o.Name)
	}
	for _, area := range sys.Areas {
		for _, o := range area.Orphans {
			report.add(RuleOrphan, SeverityAdvisory, o.Path,
				"%q does not parse as a category", o.Name)
		}
		for _, cat := range area.Categories {
			for _, o := range cat.Orphans {
				report.add(RuleOrphan, SeverityAdvisory, o.Path,
					"%q does not parse as an ID", o.Name)
			}
		}
	}
}

func checkStyle(sys *scanner.System, report *Report) {
	for _, area := range sys.Areas {
		if strings.Contains(area.Name, "–") {
			report.add(RuleEnDash, SeverityAdvisory, area.Path,
				"area name uses an en-dash instead of a hyphen")
		}
	}
}

// checkConventions enforces the reserved-slot conventions where the
// corresponding policy key is enabled at that point of the tree.
func checkConventions(sys *scanner.System, resolver *policy.Resolver, report *Report) error {
	for _, area := range sys.Areas {
		areaPolicy, err := resolver.Resolve(area.Path)
		if err != nil {
			return err
		}
		if areaPolicy.MetaCategory() && area.Area.Start != 0 {
			checkMetaCategory(sys, area, report)
		}

		for _, cat := range area.Categories {
			catPolicy, err := resolver.Resolve(cat.Path)
			if err != nil {
				return err
			}
			if catPolicy.MetaID() && cat.FindID(ident.SeqMeta) == nil {
				report.add(RuleMissingMetaID, SeverityError, cat.Path,
					"category %02d has no %s meta entry", cat.Category.Number,
					ident.FormatID(cat.Category.Number, ident.SeqMeta))
			}
			if catPolicy.UnsortedID() {
				checkUnsorted(cat, report)
			}
		}
	}
	return nil
}

func checkMetaCategory(sys *scanner.System, area *scanner.AreaEntry, report *Report) {
	meta := sys.FindCategory(area.Area.MetaCategory())
	if meta == nil {
		report.add(RuleMetaCategoryName, SeverityError, area.Path,
			"area %s has no meta category %02d", area.Area, area.Area.MetaCategory())
		return
	}
	want := "Meta - " + area.Area.Name
	if !ident.Equal(meta.Category.Name, want) {
		report.add(RuleMetaCategoryName, SeverityError, meta.Path,
			"category %02d should be named %q, found %q",
			meta.Category.Number, want, meta.Category.Name)
	}
}

func checkUnsorted(cat *scanner.CategoryEntry, report *Report) {
	unsorted := cat.FindID(ident.SeqUnsorted)
	if unsorted == nil {
		report.add(RuleMissingUnsorted, SeverityError, cat.Path,
			"category %02d is missing %s Unsorted", cat.Category.Number,
			ident.FormatID(cat.Category.Number, ident.SeqUnsorted))
		return
	}
	if !ident.Equal(unsorted.ID.Name, "Unsorted") {
		report.add(RuleUnsortedNaming, SeverityError, unsorted.Path,
			"%s should be named \"Unsorted\", found %q", unsorted.ID.Ref(), unsorted.ID.Name)
	}
}

// checkIDPolicies enforces ids_as_files and ids_files_only per ID.
func checkIDPolicies(sys *scanner.System, resolver *policy.Resolver, report *Report) error {
	for _, cat := range sys.AllCategories() {
		for _, id := range cat.IDs {
			p, err := resolver.Resolve(id.Path)
			if err != nil {
				return err
			}

			if id.IsFile {
				if !p.IDsAsFiles() {
					report.add(RuleIDAsFile, SeverityError, id.Path,
						"%s is a file, and ids_as_files is disabled here", id.ID.Ref())
				}
				continue
			}

			if p.IDsFilesOnly() {
				subdirs, err := subdirNames(id.Path)
				if err != nil {
					// Unreadable ID contents degrade to an advisory;
					// the scan itself already succeeded.
					report.add(RuleOrphan, SeverityAdvisory, id.Path, "cannot inspect contents: %v", err)
					continue
				}
				if len(subdirs) > 0 {
					report.add(RuleIDsFilesOnly, SeverityError, id.Path,
						"%s contains directories (%s), and ids_files_only is enabled here",
						id.ID.Ref(), strings.Join(subdirs, ", "))
				}
			}
		}
	}
	return nil
}

func checkExternalRefs(sys *scanner.System, refs []ExternalRef, report *Report) {
	for _, ref := range refs {
		if sys.FindID(ref.Ref) == nil {
			report.add(RuleDanglingReference, SeverityError, sys.Root,
				"%s references %s, which does not resolve in the index", ref.Source, ref.Ref)
		}
	}
}

func subdirNames(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, de := range dirents {
		if de.IsDir() && !strings.HasPrefix(de.Name(), ".") {
			names = append(names, de.Name())
		}
	}
	return names, nil
}
