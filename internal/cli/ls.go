package cli

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [ref]",
	Short: "List a directory of the tree",
	Long:  "Run the external tree utility (falling back to ls) on the root, or on the path an ID or category resolves to.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 0 {
			root, err := treeRoot(cmd)
			if err != nil {
				return err
			}
			path = root
		} else {
			sys, err := loadTree(cmd)
			if err != nil {
				return err
			}
			entry, err := resolveRef(sys, args[0])
			if err != nil {
				return err
			}
			path = entry
		}

		var external *exec.Cmd
		if _, err := exec.LookPath("tree"); err == nil {
			external = exec.Command("tree", "-L", "3", "--noreport", path)
		} else {
			external = exec.Command("ls", "-R", path)
		}
		external.Stdout = os.Stdout
		external.Stderr = os.Stderr
		return external.Run()
	},
}

func LsCmd() *cobra.Command {
	return lsCmd
}
