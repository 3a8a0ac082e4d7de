package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/engine"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new ID or category",
}

var newIDCmd = &cobra.Command{
	Use:   "id [category] [name...]",
	Short: "Create a new ID in a category",
	Long:  "Allocate the next free sequence number in a category, or pin one with --at.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catNum, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid category number %q", args[0])
		}
		name := strings.Join(args[1:], " ")

		seq := engine.AutoNumber
		if at, _ := cmd.Flags().GetString("at"); at != "" {
			if seq, err = strconv.Atoi(at); err != nil {
				return fmt.Errorf("invalid sequence %q", at)
			}
		}

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		plan, err := eng.NewID(catNum, name, seq)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

var newCategoryCmd = &cobra.Command{
	Use:   "category [area] [name...]",
	Short: "Create a new category in an area",
	Long:  "Allocate the lowest free category number in the area containing the given number, or pin one with --at. Category numbers are unique across the whole tree.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		areaNum, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid area number %q", args[0])
		}
		name := strings.Join(args[1:], " ")

		number := engine.AutoNumber
		if at, _ := cmd.Flags().GetString("at"); at != "" {
			if number, err = strconv.Atoi(at); err != nil {
				return fmt.Errorf("invalid category number %q", at)
			}
		}
		initSeeds, _ := cmd.Flags().GetBool("init")

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		plan, err := eng.NewCategory(areaNum, name, number, initSeeds)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

func init() {
	newIDCmd.Flags().String("at", "", "Pin an exact sequence number")
	newIDCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
	newCategoryCmd.Flags().String("at", "", "Pin an exact category number")
	newCategoryCmd.Flags().Bool("init", false, "Seed the reserved entries the policy requires")
	newCategoryCmd.Flags().BoolP("dry-run", "n", false, "Plan only, touch nothing")
	newCmd.AddCommand(newIDCmd)
	newCmd.AddCommand(newCategoryCmd)
}

func NewCmd() *cobra.Command {
	return newCmd
}
