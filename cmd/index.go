package cmd

import (
	"fmt"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/workspace"
	"github.com/spf13/cobra"
)

var searchLimit int

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Refresh the embedding cache for project files",
	Long: `Embeds every sampled project file into the embedding cache. Files whose content
has not changed keep their cached embedding; entries for files that are no longer
sampled are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		p, err := s.openProject()
		if err != nil {
			return err
		}
		embedder, err := s.embedder(cmd.Context())
		if err != nil {
			return err
		}

		stats, err := workspace.IndexEmbeddings(cmd.Context(), p, s.store(), embedder, s.cfg.MaxConcurrentRequests, s.logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s: %s\n", p.Root, stats)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "List the indexed files most similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		embedder, err := s.embedder(cmd.Context())
		if err != nil {
			return err
		}

		hits, err := workspace.Search(cmd.Context(), s.store(), embedder, strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No indexed files. Run 'stackpilot index' first.")
			return nil
		}
		for _, hit := range hits {
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s\n", hit.Score, hit.Path)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 5, "Number of files to show")
}
