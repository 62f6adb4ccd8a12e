package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/wire"
)

// TailCmd returns the tail command.
func TailCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:          "tail <ticket-key>",
		Short:        "Print the tail of the latest agent transcript for a ticket",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := wire.Store().GetTicket(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read ticket: %w", err)
			}
			if rec == nil || rec.LastRunID == "" {
				return fmt.Errorf("no run recorded for %s", args[0])
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			path := filepath.Join(home, ".t2p", "runs", rec.TicketKey, rec.LastRunID, "agent_transcript.log")
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("no transcript at %s", path)
			}

			all := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if lines > 0 && len(all) > lines {
				all = all[len(all)-lines:]
			}
			fmt.Println(strings.Join(all, "\n"))
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to print")
	return cmd
}
