package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/ports/secondary"
	"github.com/example/t2p/internal/wire"
)

// StatusCmd returns the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "status <ticket-key>",
		Short:        "Show the locally recorded state of a ticket",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := wire.Store().GetTicket(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read ticket: %w", err)
			}
			if rec == nil {
				fmt.Printf("No local state for %s\n", args[0])
				return nil
			}

			fmt.Printf("Ticket:   %s\n", rec.TicketKey)
			fmt.Printf("Status:   %s\n", colorStatus(rec.Status))
			if rec.Repo != "" {
				fmt.Printf("Repo:     %s\n", rec.Repo)
			}
			if rec.Branch != "" {
				fmt.Printf("Branch:   %s\n", rec.Branch)
			}
			if rec.PRURL != "" {
				fmt.Printf("PR:       %s\n", rec.PRURL)
			}
			if rec.LastRunID != "" {
				fmt.Printf("Last run: %s\n", rec.LastRunID)
			}
			if rec.LastError != "" {
				fmt.Printf("Error:    %s\n", rec.LastError)
			}
			fmt.Printf("Updated:  %s\n", rec.UpdatedAt)
			return nil
		},
	}
}

func colorStatus(status string) string {
	switch status {
	case secondary.StatusPROpened, secondary.StatusDone:
		return color.New(color.FgGreen).Sprint(status)
	case secondary.StatusNeedsHuman:
		return color.New(color.FgYellow).Sprint(status)
	case secondary.StatusFailed:
		return color.New(color.FgRed).Sprint(status)
	default:
		return status
	}
}
