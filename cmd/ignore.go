package cmd

import (
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/workspace"
	"github.com/spf13/cobra"
)

var ignoreCmd = &cobra.Command{
	Use:   "ignore <pattern>",
	Short: "Exclude a path from project indexing",
	Long: `Adds a gitignore-style pattern to .stackpilot/ignore in the project directory.
The file is read in addition to .gitignore when the project is indexed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := workspace.AddToIgnore(projectDir, args[0])
		if err != nil {
			return fmt.Errorf("could not update ignore file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added '%s' to %s\n", args[0], path)
		return nil
	},
}
