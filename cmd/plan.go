package cmd

import (
	"fmt"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/plan"
	"github.com/spf13/cobra"
)

var (
	planKind   string
	planDiff   bool
	planStrict bool
	planJSON   bool
)

var planCmd = &cobra.Command{
	Use:   "plan <query>",
	Short: "Produce a JSON file plan for a project, component or refactor",
	Long: `Asks the generation model for a plan of file actions, checks every created or
modified file for content and sends incomplete plans back for repair.

Kinds:
  project    - Create a new project (default)
  component  - Generate a component in the existing project
  refactor   - Refactor existing code`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plan.ParseKind(planKind)
		if err != nil {
			return err
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		producer, err := s.producer(cmd.Context())
		if err != nil {
			return err
		}

		outcome, err := producer.Produce(cmd.Context(), kind, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if planJSON {
			err = printJSON(cmd.OutOrStdout(), outcome)
		} else {
			err = printOutcome(cmd.OutOrStdout(), outcome, planDiff)
		}
		if err != nil {
			return err
		}

		if planStrict && !outcome.Complete() {
			if outcome.Plan == nil {
				return fmt.Errorf("no plan was produced")
			}
			return fmt.Errorf("plan is incomplete: %d issue(s) remain", len(outcome.Remaining))
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planKind, "kind", "k", "project", "Plan kind: project, component or refactor")
	planCmd.Flags().BoolVar(&planDiff, "diff", false, "Show what refinement changed")
	planCmd.Flags().BoolVar(&planStrict, "strict", false, "Fail when the final plan still has issues")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the outcome as JSON")
}
