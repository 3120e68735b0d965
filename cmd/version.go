package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including:
• Application version
• Go runtime version
• Git commit hash (if available)`,
	Run: func(cmd *cobra.Command, args []string) {
		printVersionInfo(cmd.OutOrStdout())
	},
}

// These variables are set at build time using -ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = ""
	goVersion = runtime.Version()
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("stackpilot version {{.Version}}\n")
}

func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "stackpilot version %s\n", version)

	if buildDate != "unknown" {
		fmt.Fprintf(w, "Build date: %s\n", buildDate)
	}
	if gitCommit != "" {
		fmt.Fprintf(w, "Git commit: %s\n", gitCommit)
	}

	fmt.Fprintf(w, "Go version: %s\n", goVersion)

	if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(w, "Module: %s\n", info.Main.Path)
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			fmt.Fprintf(w, "Module version: %s\n", info.Main.Version)
		}
	}

	fmt.Fprintf(w, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
