// Package engine executes the mutating filing operations: create, move,
// archive, restore, add. Every operation follows the same shape: resolve
// current state, authorize against the agent scope before any filesystem
// check, compute a complete plan, then apply it as a single rename or an
// ordered sequence whose prefixes all leave a previously-valid tree. In
// dry-run mode the plan is computed and returned with no mutation at all.
package engine

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/nelsonlove/jd/internal/core/scope"
	"github.com/nelsonlove/jd/internal/logging"
	"github.com/nelsonlove/jd/internal/policy"
	"github.com/nelsonlove/jd/internal/scanner"
)

// ConflictError reports a requested slot that is already occupied. The
// operation aborts with no mutation.
type ConflictError struct {
	Ref      string // the slot that was pinned, e.g. "22.05"
	Existing string // path of the occupant
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s already exists: %s", e.Ref, e.Existing)
}

// RestoreConflictError reports an archived entry whose original slot is
// occupied and no renumber was requested.
type RestoreConflictError struct {
	Ref      string
	Existing string
}

func (e *RestoreConflictError) Error() string {
	return fmt.Sprintf("restore conflict: %s is occupied by %s (renumber to restore elsewhere)", e.Ref, e.Existing)
}

// NotFoundError reports a source or target that does not resolve in the
// index.
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Target)
}

// Plan is the computed outcome of one operation: every check passed and
// these are the resulting paths. In dry-run mode the plan is the entire
// result.
type Plan struct {
	Op      string
	Source  string   // original path, empty for pure creates
	Dest    string   // resulting path
	Created []string // additional paths created along the way
	DryRun  bool
	Notes   []string
}

func (p *Plan) note(format string, args ...any) {
	p.Notes = append(p.Notes, fmt.Sprintf(format, args...))
}

// Engine runs operations against one managed tree.
type Engine struct {
	root     string
	resolver *policy.Resolver
	rule     scope.Rule
	dryRun   bool
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDryRun plans every operation without touching the filesystem.
func WithDryRun(on bool) Option {
	return func(e *Engine) { e.dryRun = on }
}

// WithScope confines the engine's writes to the given rule.
func WithScope(rule scope.Rule) Option {
	return func(e *Engine) { e.rule = rule }
}

// New creates an engine rooted at a managed tree.
func New(root string, opts ...Option) *Engine {
	e := &Engine{
		root:     root,
		resolver: policy.NewResolver(root),
		rule:     scope.Unrestricted,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns the managed tree's root path.
func (e *Engine) Root() string { return e.root }

// scan rebuilds the index. Mutating operations never trust a cached
// index; the tree is rescanned on every call.
func (e *Engine) scan() (*scanner.System, error) {
	return scanner.Scan(e.root, scanner.Options{})
}

// authorize consults the scope guard for a write to the given numeric
// target. It runs before any filesystem check.
func (e *Engine) authorize(target string) error {
	return scope.Authorize(e.rule, target, true)
}

func (e *Engine) newPlan(op string) *Plan {
	return &Plan{Op: op, DryRun: e.dryRun}
}
