package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [path] [category]",
	Short: "Bring an external path into the tree",
	Long:  "File an out-of-tree directory (or file, where the policy allows) into the next free slot of a category. By default a symlink is created; --copy makes a deep copy. The source is never modified.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		catNum, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid category number %q", args[1])
		}
		copyMode, _ := cmd.Flags().GetBool("copy")

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		plan, err := eng.Add(args[0], catNum, copyMode)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

func init() {
	addCmd.Flags().Bool("copy", false, "Copy instead of symlinking")
	addCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
}

func AddCmd() *cobra.Command {
	return addCmd
}
