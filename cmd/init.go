package cmd

import (
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration in the current directory",
	Long:  `Creates a .stackpilot/config.json file with default settings in the current working directory, allowing for project-specific settings.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.InitConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}
