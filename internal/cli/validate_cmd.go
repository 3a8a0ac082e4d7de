package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/policy"
	"github.com/nelsonlove/jd/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the tree against the filing rules",
	Long: `Scan the tree and report every rule violation, grouped into errors
(structural problems) and advisories (things worth a look). External
reference claims can be checked with --ref source:id, repeated; a claim
that doesn't resolve in the index is an error.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := loadTree(cmd)
		if err != nil {
			return err
		}

		rawRefs, _ := cmd.Flags().GetStringArray("ref")
		var refs []validate.ExternalRef
		for _, raw := range rawRefs {
			source, ref, found := strings.Cut(raw, ":")
			if !found {
				return fmt.Errorf("invalid --ref %q: expected source:id", raw)
			}
			refs = append(refs, validate.ExternalRef{Source: source, Ref: ref})
		}

		report, err := validate.Run(sys, policy.NewResolver(sys.Root), validate.Options{Refs: refs})
		if err != nil {
			return err
		}

		errColor := color.New(color.FgRed, color.Bold)
		advColor := color.New(color.FgYellow)

		for _, f := range report.Errors() {
			fmt.Printf("%s %s: %s\n", errColor.Sprintf("[%s]", f.Rule), f.Path, f.Message)
		}
		for _, f := range report.Advisories() {
			fmt.Printf("%s %s: %s\n", advColor.Sprintf("[%s]", f.Rule), f.Path, f.Message)
		}

		if !report.OK() {
			return fmt.Errorf("%d error(s), %d advisory(ies)", len(report.Errors()), len(report.Advisories()))
		}
		if n := len(report.Advisories()); n > 0 {
			fmt.Printf("✓ no errors (%d advisory(ies))\n", n)
		} else {
			fmt.Println("✓ tree is valid")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringArray("ref", nil, "External reference claim to check, as source:id (repeatable)")
}

func ValidateCmd() *cobra.Command {
	return validateCmd
}
