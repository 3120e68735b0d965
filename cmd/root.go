package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	projectDir string
	model      string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackpilot",
	Short: "Intent-routed assistant for understanding and scaffolding projects",
	Long: `Stackpilot classifies a natural-language request against a taxonomy of intents
and routes it to the matching handler: a summary of the project's framework, API
or database stack, or a JSON file plan for creating a project, generating a
component or refactoring code.

Available commands:
  ask       - Route a query to analysis or planning
  analyze   - Summarize the project's stack
  plan      - Produce a file plan
  classify  - Show the detected intent for a query
  index     - Refresh the embedding cache for project files
  search    - Find files similar to a query
  chat      - Answer one query per line
  serve     - Answer queries over a websocket
  ...and more

Try: stackpilot ask "what framework does this project use?"`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", ".", "Project directory to analyze")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Generation model to use (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not echo progress steps")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ignoreCmd)
}
