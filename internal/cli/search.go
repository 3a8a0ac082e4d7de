package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search names across the tree",
	Long:  "Case-insensitive substring search over category and ID names. Archive contents are skipped unless --archived is set.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := loadTree(cmd)
		if err != nil {
			return err
		}
		includeArchived, _ := cmd.Flags().GetBool("archived")
		term := strings.ToLower(strings.Join(args, " "))

		matches := 0
		for _, cat := range sys.AllCategories() {
			if strings.Contains(strings.ToLower(cat.Category.Name), term) {
				fmt.Printf("%02d\t%s\n", cat.Category.Number, cat.Path)
				matches++
			}
			for _, id := range cat.IDs {
				if id.ID.IsArchive() && !includeArchived {
					continue
				}
				if strings.Contains(strings.ToLower(id.ID.Name), term) {
					fmt.Printf("%s\t%s\n", id.ID.Ref(), id.Path)
					matches++
				}
			}
		}
		if matches == 0 {
			return fmt.Errorf("no matches for %q", strings.Join(args, " "))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Bool("archived", false, "Include archive entries")
}

func SearchCmd() *cobra.Command {
	return searchCmd
}
