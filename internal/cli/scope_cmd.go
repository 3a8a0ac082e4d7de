package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/core/scope"
)

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Show the active agent scope",
	Long:  "Print the scope rule restricting this process's writes, and where it came from (JD_SCOPE, a jd.yaml in the working directory, or unrestricted).",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		rule, source, err := scope.Resolve(cwd)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t(%s)\n", rule, source)
		return nil
	},
}

var scopeCheckCmd = &cobra.Command{
	Use:   "check [ref]",
	Short: "Check whether a write to a reference is in scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		rule, _, err := scope.Resolve(cwd)
		if err != nil {
			return err
		}

		if err := scope.Authorize(rule, args[0], true); err != nil {
			fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("✗"), err)
			os.Exit(1)
		}
		fmt.Printf("%s %s is writable\n", color.New(color.FgGreen).Sprint("✓"), args[0])
		return nil
	},
}

func init() {
	scopeCmd.AddCommand(scopeCheckCmd)
}

func ScopeCmd() *cobra.Command {
	return scopeCmd
}
