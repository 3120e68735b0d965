package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Route a query to project analysis or planning",
	Long: `Classifies the query against the intent taxonomy and runs the matching handler.
Analytics requests return a summary of the project's stack; generative requests
return a file plan. Queries below the confidence threshold get a notice instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		a, err := s.assistant(cmd.Context())
		if err != nil {
			return err
		}

		resp, err := a.HandleQuery(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if askJSON {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		return printResponse(cmd.OutOrStdout(), resp)
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full response as JSON")
}
