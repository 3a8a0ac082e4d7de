package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/scanner"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Show the filing tree index",
	Long:  "Scan the managed tree and print areas, categories and IDs. With --json, emit the machine-readable snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := loadTree(cmd)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sys.Snapshot())
		}

		printTree(sys)
		return nil
	},
}

func printTree(sys *scanner.System) {
	areaColor := color.New(color.FgHiBlue, color.Bold)
	catColor := color.New(color.FgCyan)
	warn := color.New(color.FgYellow)

	for _, area := range sys.Areas {
		areaColor.Printf("%s\n", area.Entry.Name)
		for _, cat := range area.Categories {
			fmt.Printf("  %s %s\n", catColor.Sprintf("%02d", cat.Category.Number), cat.Category.Name)
			for _, id := range cat.IDs {
				marker := ""
				if id.Status == scanner.StatusUnreachable {
					marker = warn.Sprint(" [broken link]")
				} else if id.IsSymlink {
					marker = " @"
				}
				if id.Mismatched(cat) {
					marker += warn.Sprint(" [mismatched]")
				}
				fmt.Printf("    %s %s%s\n", id.ID.Ref(), id.ID.Name, marker)
			}
			for _, o := range cat.Orphans {
				fmt.Printf("    %s\n", warn.Sprintf("? %s", o.Name))
			}
		}
		for _, o := range area.Orphans {
			fmt.Printf("  %s\n", warn.Sprintf("? %s", o.Name))
		}
	}
	for _, o := range sys.Orphans {
		fmt.Printf("%s\n", warn.Sprintf("? %s", o.Name))
	}
	if len(sys.Unreachable) > 0 {
		warn.Printf("\n%d broken symlink(s)\n", len(sys.Unreachable))
	}
}

func init() {
	indexCmd.Flags().Bool("json", false, "Emit the snapshot as JSON")
}

func IndexCmd() *cobra.Command {
	return indexCmd
}
