package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [category]",
	Short: "Bootstrap a category's reserved entries",
	Long:  "Create the meta and unsorted entries the effective policy requires. Already-present entries are left alone; re-running is safe.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catNum, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid category number %q", args[0])
		}
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		plan, err := eng.Init(catNum)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

var initAllCmd = &cobra.Command{
	Use:   "init-all",
	Short: "Bootstrap every category in the tree",
	Long:  "Plan the reserved entries every category still needs, check them all against the agent scope, then create them. A scope violation aborts before anything is created.",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		plan, err := eng.InitAll()
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
	initAllCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
}

func InitCmd() *cobra.Command {
	return initCmd
}

func InitAllCmd() *cobra.Command {
	return initAllCmd
}
