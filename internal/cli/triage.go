package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Point out where the tree needs attention",
	Long:  "Surface the unsorted entries with the biggest backlogs, categories with no real content, and IDs stored as plain files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := loadTree(cmd)
		if err != nil {
			return err
		}

		head := color.New(color.FgHiBlue, color.Bold)

		type backlog struct {
			ref   string
			path  string
			count int
		}
		var backlogs []backlog
		var empties []string
		var fileIDs []string

		for _, cat := range sys.AllCategories() {
			real := 0
			for _, id := range cat.IDs {
				if id.ID.IsUnsorted() {
					entries, err := os.ReadDir(id.Path)
					if err == nil && len(entries) > 0 {
						backlogs = append(backlogs, backlog{id.ID.Ref(), id.Path, len(entries)})
					}
					continue
				}
				if id.ID.IsMeta() || id.ID.IsArchive() {
					continue
				}
				real++
				if id.IsFile {
					fileIDs = append(fileIDs, fmt.Sprintf("%s\t%s", id.ID.Ref(), id.Path))
				}
			}
			if real == 0 && cat.Category.Number%10 != 0 {
				empties = append(empties, fmt.Sprintf("%02d\t%s", cat.Category.Number, cat.Path))
			}
		}

		sort.Slice(backlogs, func(i, j int) bool { return backlogs[i].count > backlogs[j].count })

		if len(backlogs) > 0 {
			head.Println("Unsorted backlogs")
			for _, b := range backlogs {
				fmt.Printf("  %s\t%d item(s)\t%s\n", b.ref, b.count, b.path)
			}
		}
		if len(empties) > 0 {
			head.Println("Empty categories")
			for _, e := range empties {
				fmt.Printf("  %s\n", e)
			}
		}
		if len(fileIDs) > 0 {
			head.Println("IDs stored as files")
			for _, f := range fileIDs {
				fmt.Printf("  %s\n", f)
			}
		}
		if len(backlogs)+len(empties)+len(fileIDs) == 0 {
			fmt.Println("✓ nothing to triage")
		}
		return nil
	},
}

func TriageCmd() *cobra.Command {
	return triageCmd
}
