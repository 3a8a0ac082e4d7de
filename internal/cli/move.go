package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:   "mv [source] [destination...]",
	Short: "Move, refile or rename an entry",
	Long: `The destination's shape decides what happens:
  jd mv 22.04 24.01     renumber to that exact slot
  jd mv 22.04 24        refile to the next free slot in category 24
  jd mv 22.04 New name  rename in place, keeping the number
With -a the entry is archived instead and no destination is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}

		if toArchive, _ := cmd.Flags().GetBool("archive"); toArchive {
			plan, err := eng.Archive(args[0])
			if err != nil {
				return err
			}
			printPlan(plan)
			return nil
		}

		if len(args) < 2 {
			return cmd.Usage()
		}
		plan, err := eng.Move(args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

func init() {
	mvCmd.Flags().BoolP("archive", "a", false, "Archive the entry instead of moving it")
	mvCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
}

func MvCmd() *cobra.Command {
	return mvCmd
}
