package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/config"
)

var rootPathCmd = &cobra.Command{
	Use:   "root",
	Short: "Show the resolved tree root",
	RunE: func(cmd *cobra.Command, args []string) error {
		flagValue, _ := cmd.Flags().GetString("root")
		root, source, err := config.ResolveRoot(flagValue)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t(%s)\n", root, source)
		return nil
	},
}

var rootSetCmd = &cobra.Command{
	Use:   "set [path]",
	Short: "Save the tree root in the user config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Root = args[0]
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("✓ root set to %s\n", args[0])
		return nil
	},
}

func init() {
	rootPathCmd.AddCommand(rootSetCmd)
}

func RootCmd() *cobra.Command {
	return rootPathCmd
}
