package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/intent"
	"github.com/spf13/cobra"
)

var (
	classifyFlat bool
	classifyJSON bool
	classifyList bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <query>",
	Short: "Show the intent detected for a query",
	Long: `Embeds the query and prints the most similar taxonomy entry with its cosine
similarity. No confidence threshold is applied. With --flat the two-way
analytics/generative taxonomy is used. With --list the taxonomy the classifier
was built from is printed instead.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if classifyList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		classifier, err := s.classifier(cmd.Context(), classifyFlat)
		if err != nil {
			return err
		}

		if classifyList {
			return printTaxonomy(cmd.OutOrStdout(), classifier)
		}

		c, err := classifier.Detect(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if classifyJSON {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintln(cmd.OutOrStdout(), c)
		return nil
	},
}

func printTaxonomy(w io.Writer, classifier *intent.Classifier) error {
	taxonomy := classifier.Taxonomy()
	mode := "flat"
	if classifier.Hierarchical() {
		mode = "hierarchical"
	}
	fmt.Fprintf(w, "%s taxonomy, %d intent(s)\n", mode, len(taxonomy))
	for _, e := range taxonomy {
		name := e.Main.String()
		if e.Sub != intent.SubNone {
			name += "/" + e.Sub.String()
		}
		fmt.Fprintf(w, "  %-40s %d phrase(s)\n", name, len(e.Examples))
	}
	return nil
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyFlat, "flat", false, "Use the flat analytics/generative taxonomy")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the classification as JSON")
	classifyCmd.Flags().BoolVar(&classifyList, "list", false, "List the taxonomy instead of classifying a query")
}
