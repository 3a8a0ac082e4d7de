package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/cli"
	"github.com/nelsonlove/jd/internal/logging"
	"github.com/nelsonlove/jd/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "jd",
		Short:   "jd - Johnny Decimal filing tree manager",
		Version: version.String(),
		Long: `jd manages a Johnny Decimal filing tree: areas (10-19), categories (11)
and IDs (11.01) laid out as plain directories. It indexes the tree,
validates it against the filing rules, and performs safe moves,
archives and restores.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logging.SetVerbose(true)
			}
		},
	}

	rootCmd.PersistentFlags().String("root", "", "Tree root (overrides JD_ROOT and the saved config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Reading the tree
	rootCmd.AddCommand(cli.IndexCmd())
	rootCmd.AddCommand(cli.LsCmd())
	rootCmd.AddCommand(cli.WhichCmd())
	rootCmd.AddCommand(cli.SearchCmd())
	rootCmd.AddCommand(cli.CompleteCmd())
	rootCmd.AddCommand(cli.RootCmd())
	rootCmd.AddCommand(cli.TriageCmd())

	// Changing it
	rootCmd.AddCommand(cli.NewCmd())
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.InitAllCmd())
	rootCmd.AddCommand(cli.MvCmd())
	rootCmd.AddCommand(cli.ArchiveCmd())
	rootCmd.AddCommand(cli.RestoreCmd())
	rootCmd.AddCommand(cli.AddCmd())

	// Rules and housekeeping
	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.PolicyCmd())
	rootCmd.AddCommand(cli.ScopeCmd())
	rootCmd.AddCommand(cli.CacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
