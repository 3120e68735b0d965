package cmd

import (
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/analysis"
	"github.com/spf13/cobra"
)

var analyzeType string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize the project's framework, API or database stack",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := analysis.ParseType(analyzeType)
		if err != nil {
			return err
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		analyzer, err := s.analyzer(cmd.Context())
		if err != nil {
			return err
		}

		summary, err := analyzer.Analyze(cmd.Context(), t)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeType, "type", "t", "framework", "Analysis type: framework, api or database")
}
