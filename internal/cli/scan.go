package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/wire"
)

// ScanCmd returns the scan command.
func ScanCmd() *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:          "scan",
		Short:        "List tickets matching the configured query with local status",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := wire.RunService().Scan(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			if len(items) == 0 {
				fmt.Println("No tickets found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSTATUS\tPR\tTITLE")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Key, item.Status, item.PRURL, item.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of tickets")
	return cmd
}
