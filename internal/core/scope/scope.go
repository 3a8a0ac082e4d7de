// Package scope resolves and enforces agent write scopes. A scope confines
// an agent to a set of area/category prefixes; reads are never restricted.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nelsonlove/jd/internal/core/ident"
)

// EnvScopeFile points at an explicit scope file and takes precedence over
// a jd.yaml in the working directory.
const EnvScopeFile = "JD_SCOPE"

// FileName is the scope file looked up in the working directory.
const FileName = "jd.yaml"

// Rule is either unrestricted or an ordered set of prefix strings: an area
// range ("20-29"), an area or category number ("42"), or an ID ("86.03").
type Rule struct {
	All      bool
	Prefixes []string
}

// Unrestricted is the rule applied when no scope file is present.
var Unrestricted = Rule{All: true}

func (r Rule) String() string {
	if r.All {
		return "all"
	}
	return strings.Join(r.Prefixes, ", ")
}

// ViolationError reports a write attempt outside the authorized scope.
// It is raised before any filesystem check is performed.
type ViolationError struct {
	Target string
	Rule   Rule
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("scope violation: %s is outside agent scope [%s]", e.Target, e.Rule)
}

// scopeFile is the on-disk shape: `scope: all` or an ordered list.
type scopeFile struct {
	Scope yaml.Node `yaml:"scope"`
}

// LoadFile reads a scope rule from a jd.yaml file.
func LoadFile(path string) (Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to read scope file: %w", err)
	}

	var f scopeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Rule{}, fmt.Errorf("failed to parse scope file %s: %w", path, err)
	}

	switch f.Scope.Kind {
	case 0: // no scope key at all
		return Unrestricted, nil
	case yaml.ScalarNode:
		if f.Scope.Value == "all" || f.Scope.Value == "" {
			return Unrestricted, nil
		}
		return Rule{Prefixes: []string{f.Scope.Value}}, nil
	case yaml.SequenceNode:
		var prefixes []string
		if err := f.Scope.Decode(&prefixes); err != nil {
			return Rule{}, fmt.Errorf("failed to parse scope file %s: %w", path, err)
		}
		return Rule{Prefixes: prefixes}, nil
	default:
		return Rule{}, fmt.Errorf("failed to parse scope file %s: scope must be \"all\" or a list of prefixes", path)
	}
}

// Resolve locates the effective scope rule, checked in order: the
// JD_SCOPE env var (path to a scope file), then jd.yaml in the working
// directory, then unrestricted. The returned source names the file the
// rule came from, or "" when unrestricted by absence.
func Resolve(workDir string) (Rule, string, error) {
	if envPath := os.Getenv(EnvScopeFile); envPath != "" {
		rule, err := LoadFile(envPath)
		if err != nil {
			return Rule{}, "", err
		}
		return rule, envPath, nil
	}

	cwdFile := filepath.Join(workDir, FileName)
	if _, err := os.Stat(cwdFile); err == nil {
		rule, err := LoadFile(cwdFile)
		if err != nil {
			return Rule{}, "", err
		}
		return rule, cwdFile, nil
	}

	return Unrestricted, "", nil
}

// Allows reports whether a numeric target ("20-29", "26", "26.01") falls
// within the rule's prefixes.
func (r Rule) Allows(target string) bool {
	if r.All {
		return true
	}
	target = ident.Normalize(target)
	for _, p := range r.Prefixes {
		if matchPrefix(ident.Normalize(p), target) {
			return true
		}
	}
	return false
}

// Authorize checks an operation against a rule. Reads always pass; writes
// pass only when the target matches the rule.
func Authorize(rule Rule, target string, write bool) error {
	if !write {
		return nil
	}
	if rule.Allows(target) {
		return nil
	}
	return &ViolationError{Target: target, Rule: rule}
}

func matchPrefix(pattern, target string) bool {
	// Area range pattern: "20-29" covers any target whose leading
	// category number falls in the range.
	if start, end, err := ident.ParseRangeRef(pattern); err == nil {
		if n, ok := leadingNumber(target); ok {
			return n >= start && n <= end
		}
		return false
	}

	// Category pattern: "42" covers the category itself and 42.xx IDs.
	if catNum, err := ident.ParseCategoryRef(pattern); err == nil {
		if n, err := ident.ParseCategoryRef(target); err == nil {
			return n == catNum
		}
		if c, _, err := ident.ParseIDRef(target); err == nil {
			return c == catNum
		}
		return false
	}

	// Exact ID pattern: "86.03".
	if pc, ps, err := ident.ParseIDRef(pattern); err == nil {
		if tc, ts, err := ident.ParseIDRef(target); err == nil {
			return pc == tc && ps == ts
		}
	}

	return false
}

// leadingNumber extracts the leading category/area number from a target.
func leadingNumber(target string) (int, bool) {
	if c, _, err := ident.ParseIDRef(target); err == nil {
		return c, true
	}
	if n, err := ident.ParseCategoryRef(target); err == nil {
		return n, true
	}
	if start, _, err := ident.ParseRangeRef(target); err == nil {
		return start, true
	}
	return 0, false
}
