package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and edit filing policies",
	Long:  "Policies cascade from the tree root down: each directory's override file adjusts individual keys for everything beneath it.",
}

// policyDir resolves the directory a policy command operates on: the
// optional path argument, else the working directory.
func policyDir(args []string) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}

var policyShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show every effective policy value at a path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := treeRoot(cmd)
		if err != nil {
			return err
		}
		dir, err := policyDir(args)
		if err != nil {
			return err
		}

		pol, err := policy.NewResolver(root).Resolve(dir)
		if err != nil {
			return err
		}
		for _, k := range policy.Keys() {
			fmt.Printf("%s\t%v\t%s\n", k, pol.Get(k), pol.Where(k))
		}
		return nil
	},
}

var policyGetCmd = &cobra.Command{
	Use:   "get [key] [path]",
	Short: "Show one effective policy value",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := treeRoot(cmd)
		if err != nil {
			return err
		}
		dir, err := policyDir(args[1:])
		if err != nil {
			return err
		}

		value, _, err := policy.NewResolver(root).Get(dir, policy.Key(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var policyWhereCmd = &cobra.Command{
	Use:   "where [key] [path]",
	Short: "Show which file sets a policy value",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := treeRoot(cmd)
		if err != nil {
			return err
		}
		dir, err := policyDir(args[1:])
		if err != nil {
			return err
		}

		_, where, err := policy.NewResolver(root).Get(dir, policy.Key(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(where)
		return nil
	},
}

var policySetCmd = &cobra.Command{
	Use:   "set [key] [true|false] [path]",
	Short: "Set a policy key at a directory",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid value %q: expected true or false", args[1])
		}
		dir, err := policyDir(args[2:])
		if err != nil {
			return err
		}

		if err := policy.Set(dir, policy.Key(args[0]), value); err != nil {
			return err
		}
		fmt.Printf("✓ %s = %v at %s\n", args[0], value, dir)
		return nil
	},
}

var policyUnsetCmd = &cobra.Command{
	Use:   "unset [key] [path]",
	Short: "Remove a policy key from a directory's override file",
	Long:  "The key reverts to whatever the nearest ancestor (or the default) says. An override file left empty is deleted.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := policyDir(args[1:])
		if err != nil {
			return err
		}

		if err := policy.Unset(dir, policy.Key(args[0])); err != nil {
			return err
		}
		fmt.Printf("✓ %s unset at %s\n", args[0], dir)
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyGetCmd)
	policyCmd.AddCommand(policyWhereCmd)
	policyCmd.AddCommand(policySetCmd)
	policyCmd.AddCommand(policyUnsetCmd)
}

func PolicyCmd() *cobra.Command {
	return policyCmd
}
