package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Answer queries one line at a time",
	Long: `Reads one query per line from standard input and answers each one fully before
reading the next. Type 'exit' or 'quit' (or send EOF) to stop.`,
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

		out := cmd.OutOrStdout()
		interactive := cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd()))
		if interactive {
			fmt.Fprintln(out, "Ask about this project, or describe what to build. Type 'exit' to quit.")
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			if interactive {
				fmt.Fprint(out, "\n> ")
			}
			if !scanner.Scan() {
				break
			}
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			if query == "exit" || query == "quit" {
				break
			}

			resp, err := a.HandleQuery(cmd.Context(), query)
			if err != nil {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				if errors.Is(err, llm.ErrTransportTimeout) {
					fmt.Fprintln(cmd.ErrOrStderr(), "The model took too long to answer. Try a shorter request or raise request_timeout_secs.")
				}
				continue
			}
			if err := printResponse(out, resp); err != nil {
				return err
			}
		}
		return scanner.Err()
	},
}
