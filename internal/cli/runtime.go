// Package cli contains the jd command surface.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/config"
	"github.com/nelsonlove/jd/internal/core/ident"
	"github.com/nelsonlove/jd/internal/core/scope"
	"github.com/nelsonlove/jd/internal/engine"
	"github.com/nelsonlove/jd/internal/scanner"
)

// treeRoot resolves the managed tree root for a command invocation.
func treeRoot(cmd *cobra.Command) (string, error) {
	flagValue, _ := cmd.Flags().GetString("root")
	root, _, err := config.ResolveRoot(flagValue)
	return root, err
}

// loadTree resolves the root and scans it.
func loadTree(cmd *cobra.Command) (*scanner.System, error) {
	root, err := treeRoot(cmd)
	if err != nil {
		return nil, err
	}
	return scanner.Scan(root, scanner.Options{})
}

// newEngine builds an engine for a mutating command: resolved root,
// agent scope from the environment, dry-run from the flag.
func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	root, err := treeRoot(cmd)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	rule, _, err := scope.Resolve(cwd)
	if err != nil {
		return nil, err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return engine.New(root, engine.WithScope(rule), engine.WithDryRun(dryRun)), nil
}

// resolveRef turns an ID or category reference into its current path.
func resolveRef(sys *scanner.System, ref string) (string, error) {
	if id := sys.FindID(ref); id != nil {
		return id.Path, nil
	}
	if n, err := ident.ParseCategoryRef(ref); err == nil {
		if cat := sys.FindCategory(n); cat != nil {
			return cat.Path, nil
		}
	}
	return "", fmt.Errorf("%s not found", ref)
}

// printPlan reports what an operation did (or, in dry-run, would do).
func printPlan(plan *engine.Plan) {
	mark := color.New(color.FgGreen).Sprint("✓")
	if plan.DryRun {
		mark = color.New(color.FgCyan).Sprint("→ (dry-run)")
	}
	switch {
	case plan.Source != "" && plan.Dest != "":
		fmt.Printf("%s %s\n  %s\n", mark, plan.Source, plan.Dest)
	case plan.Dest != "":
		fmt.Printf("%s %s\n", mark, plan.Dest)
	}
	for _, p := range plan.Created {
		fmt.Printf("  + %s\n", p)
	}
	for _, n := range plan.Notes {
		fmt.Printf("  %s\n", color.New(color.FgYellow).Sprint(n))
	}
}
