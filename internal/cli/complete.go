package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete [partial]",
	Short: "List completions for a partial reference",
	Long:  "Print the candidates a partial number could mean, categories before their IDs, for shell completion and agent disambiguation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := loadTree(cmd)
		if err != nil {
			return err
		}
		for _, c := range sys.Disambiguate(args[0]) {
			fmt.Printf("%s\t%s\n", c.Ref, c.Label)
		}
		return nil
	},
}

func CompleteCmd() *cobra.Command {
	return completeCmd
}
