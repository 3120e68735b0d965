package cmd

import (
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/webui"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer queries over a websocket",
	Long: `Starts a server on localhost. Clients send {"query": "..."} messages to /ws and
receive the response as JSON. Queries are handled one at a time. /health reports
the server status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		a, err := s.assistant(cmd.Context())
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = s.cfg.ServerPort
		}
		if !webui.CheckPortAvailable(port) {
			next := webui.FindAvailablePort(port + 1)
			s.logger.LogProcessStep(fmt.Sprintf("Port %d is busy, using %d", port, next))
			port = next
		}

		server := webui.NewServer(a, port, s.logger)
		if err := server.Start(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on ws://127.0.0.1:%d/ws (Ctrl+C to stop)\n", port)

		<-cmd.Context().Done()
		return server.Shutdown()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
}
