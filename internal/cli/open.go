package cli

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/wire"
)

// OpenCmd returns the open command.
func OpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "open <ticket-key>",
		Short:        "Open the recorded PR for a ticket in the browser",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := wire.Store().GetTicket(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read ticket: %w", err)
			}
			if rec == nil || rec.PRURL == "" {
				return fmt.Errorf("no PR recorded for %s", args[0])
			}

			fmt.Println(rec.PRURL)
			opener := "xdg-open"
			if runtime.GOOS == "darwin" {
				opener = "open"
			}
			// Best effort; printing the URL above is the contract.
			exec.Command(opener, rec.PRURL).Start()
			return nil
		},
	}
}
