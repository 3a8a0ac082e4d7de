// Package policy implements cascading per-directory convention overrides.
// A policy file may sit at any level of the managed tree; resolution for a
// path merges every file from the root down to the path, most specific
// file winning per key, never per file. Absence of a file means "inherit";
// a malformed file is an error surfaced to the caller, never skipped.
package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the per-directory override file.
const FileName = ".jdpolicy.yaml"

// Key names a recognized policy setting.
type Key string

const (
	// KeyIDsAsFiles permits an ID to be a plain file rather than a directory.
	KeyIDsAsFiles Key = "ids_as_files"
	// KeyIDsFilesOnly restricts ID directories to files only, no subdirectories.
	KeyIDsFilesOnly Key = "ids_files_only"
	// KeyMetaCategory enforces "N0 Meta - Area" naming for area meta categories.
	KeyMetaCategory Key = "meta_category"
	// KeyMetaID enforces NN.00 as the reserved category meta slot.
	KeyMetaID Key = "meta_id"
	// KeyUnsortedID enforces the presence of "NN.01 Unsorted".
	KeyUnsortedID Key = "unsorted_id"
)

// Defaults apply when no file in the cascade sets a key.
var Defaults = map[Key]bool{
	KeyIDsAsFiles:   false,
	KeyIDsFilesOnly: false,
	KeyMetaCategory: true,
	KeyMetaID:       true,
	KeyUnsortedID:   true,
}

// Keys lists the recognized keys in stable order.
func Keys() []Key {
	keys := make([]Key, 0, len(Defaults))
	for k := range Defaults {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// IsKnown reports whether a key is recognized.
func IsKnown(k Key) bool {
	_, ok := Defaults[k]
	return ok
}

// ParseError reports a malformed policy file. It is fatal at resolution
// time: a bad file is never silently ignored.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed policy file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Policy is the effective configuration for one path. Where records, per
// key, the file that set the effective value; DefaultSource marks keys
// resolved from the built-in defaults.
type Policy struct {
	values map[Key]bool
	where  map[Key]string
}

// DefaultSource is the Where value for keys no file overrides.
const DefaultSource = "(default)"

// Get returns the effective value for a key.
func (p *Policy) Get(k Key) bool { return p.values[k] }

// Where returns the path of the file that set a key, or DefaultSource.
func (p *Policy) Where(k Key) string {
	if w, ok := p.where[k]; ok {
		return w
	}
	return DefaultSource
}

// IDsAsFiles reports whether IDs may be plain files here.
func (p *Policy) IDsAsFiles() bool { return p.Get(KeyIDsAsFiles) }

// IDsFilesOnly reports whether ID directories may hold only files here.
func (p *Policy) IDsFilesOnly() bool { return p.Get(KeyIDsFilesOnly) }

// MetaCategory reports whether N0 meta category naming is enforced here.
func (p *Policy) MetaCategory() bool { return p.Get(KeyMetaCategory) }

// MetaID reports whether the NN.00 reserved meta slot is enforced here.
func (p *Policy) MetaID() bool { return p.Get(KeyMetaID) }

// UnsortedID reports whether "NN.01 Unsorted" is enforced here.
func (p *Policy) UnsortedID() bool { return p.Get(KeyUnsortedID) }

// Resolver resolves effective policy against an explicit tree root. The
// root is a parameter, not ambient state, so resolution is testable with
// a synthetic directory structure.
type Resolver struct {
	Root string
}

// NewResolver creates a resolver rooted at the managed tree's top.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// Resolve produces the effective policy for a path by merging override
// files from the root down to the path. Ancestor files load first;
// descendant files override individual keys.
func (r *Resolver) Resolve(path string) (*Policy, error) {
	p := &Policy{
		values: make(map[Key]bool, len(Defaults)),
		where:  make(map[Key]string),
	}
	for k, v := range Defaults {
		p.values[k] = v
	}

	for _, dir := range r.chain(path) {
		file := filepath.Join(dir, FileName)
		overrides, err := LoadFile(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for k, v := range overrides {
			p.values[k] = v
			p.where[k] = file
		}
	}
	return p, nil
}

// Get returns the effective value for one key at a path, together with
// the file that set it.
func (r *Resolver) Get(path string, k Key) (value bool, where string, err error) {
	if !IsKnown(k) {
		return false, "", fmt.Errorf("unknown policy key %q", k)
	}
	p, err := r.Resolve(path)
	if err != nil {
		return false, "", err
	}
	return p.Get(k), p.Where(k), nil
}

// chain lists the directories from the root to the target path, root
// first. A path outside the root resolves against the root alone.
func (r *Resolver) chain(path string) []string {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return []string{r.Root}
	}
	dirs := []string{r.Root}
	if rel == "." {
		return dirs
	}
	current := r.Root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}

// LoadFile reads one override file. A missing file returns os.ErrNotExist;
// anything unparseable, or an unrecognized key, is a *ParseError.
func LoadFile(path string) (map[Key]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]yaml.Node)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	overrides := make(map[Key]bool, len(raw))
	for name, node := range raw {
		k := Key(name)
		if !IsKnown(k) {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("unknown key %q", name)}
		}
		var v bool
		if err := node.Decode(&v); err != nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("key %q: expected true or false", name)}
		}
		overrides[k] = v
	}
	return overrides, nil
}

// Set writes one key into the override file at dir, touching no ancestor.
func Set(dir string, k Key, value bool) error {
	if !IsKnown(k) {
		return fmt.Errorf("unknown policy key %q", k)
	}

	file := filepath.Join(dir, FileName)
	overrides, err := LoadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		overrides = make(map[Key]bool)
	} else if err != nil {
		return err
	}

	overrides[k] = value
	return writeFile(file, overrides)
}

// Unset removes one key from the override file at dir, reverting that
// level to its ancestor's value. An emptied file is deleted. Unset is not
// a sentinel write: the key simply stops existing at this level.
func Unset(dir string, k Key) error {
	if !IsKnown(k) {
		return fmt.Errorf("unknown policy key %q", k)
	}

	file := filepath.Join(dir, FileName)
	overrides, err := LoadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no policy file at %s", dir)
	}
	if err != nil {
		return err
	}

	if _, ok := overrides[k]; !ok {
		return fmt.Errorf("key %q not set at %s", k, dir)
	}
	delete(overrides, k)

	if len(overrides) == 0 {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("failed to remove empty policy file: %w", err)
		}
		return nil
	}
	return writeFile(file, overrides)
}

func writeFile(path string, overrides map[Key]bool) error {
	// Stable key order keeps diffs quiet.
	out := make(map[string]bool, len(overrides))
	for k, v := range overrides {
		out[string(k)] = v
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write policy file: %w", err)
	}
	return nil
}
