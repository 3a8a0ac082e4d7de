package cli

import (
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [ref]",
	Short: "Archive an ID or category",
	Long:  "Move an ID into its category's NN.99 Archive, or a category into its area's archive, keeping the full display name so it can be restored to the exact original slot.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		plan, err := eng.Archive(args[0])
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [ref]",
	Short: "Restore an archived ID or category",
	Long:  "Move an archived entry back to its original slot. If the slot has since been taken, --renumber assigns the next free number instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		renumber, _ := cmd.Flags().GetBool("renumber")
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		plan, err := eng.Restore(args[0], renumber)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

func init() {
	archiveCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
	restoreCmd.Flags().Bool("renumber", false, "Allocate a new number when the original slot is taken")
	restoreCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
}

func ArchiveCmd() *cobra.Command {
	return archiveCmd
}

func RestoreCmd() *cobra.Command {
	return restoreCmd
}
