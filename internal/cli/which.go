package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/core/ident"
)

var whichCmd = &cobra.Command{
	Use:   "which [ref]",
	Short: "Resolve a reference to its path",
	Long:  "Print the filesystem path for an ID (\"26.01\") or category (\"26\"). A partial reference lists the candidates instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := loadTree(cmd)
		if err != nil {
			return err
		}
		ref := args[0]

		if id := sys.FindID(ref); id != nil {
			fmt.Println(id.Path)
			return nil
		}
		if n, err := ident.ParseCategoryRef(ref); err == nil {
			if cat := sys.FindCategory(n); cat != nil {
				fmt.Println(cat.Path)
				return nil
			}
		}

		candidates := sys.Disambiguate(ref)
		if len(candidates) == 0 {
			return fmt.Errorf("%s not found", ref)
		}
		for _, c := range candidates {
			fmt.Printf("%s\t%s\n", c.Ref, c.Label)
		}
		return nil
	},
}

func WhichCmd() *cobra.Command {
	return whichCmd
}
