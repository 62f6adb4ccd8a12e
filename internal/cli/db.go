package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/wire"
)

// DBCmd returns the db command for inspecting the state database.
func DBCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:          "db [tickets|runs|locks]",
		Short:        "Dump the state tables",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := []string{"tickets", "runs", "locks"}
			if len(args) == 1 {
				tables = args
			}

			for _, table := range tables {
				rows, err := wire.Store().DumpTable(context.Background(), table)
				if err != nil {
					return fmt.Errorf("failed to dump table: %w", err)
				}

				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					if err := enc.Encode(map[string]any{table: rows}); err != nil {
						return err
					}
					continue
				}

				fmt.Printf("== %s ==\n", table)
				if err := printRows(rows); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printRows(rows []map[string]any) error {
	if len(rows) == 0 {
		fmt.Println("(empty)")
		return nil
	}

	// Stable column order from the first row's sorted keys.
	columns := sortedKeys(rows[0])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, col := range columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, col := range columns {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			if row[col] != nil {
				fmt.Fprintf(w, "%v", row[col])
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func sortedKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
