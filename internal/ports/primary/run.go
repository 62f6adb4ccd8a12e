// Package primary defines the primary ports (driving interfaces) exposed by
// the application core to the CLI.
package primary

import "context"

// RunOptions tune one pipeline execution.
type RunOptions struct {
	// Force skips the required-fields gate and the clean-worktree gate.
	Force bool
	// Rerun ignores an already-recorded PR and runs the pipeline again.
	Rerun bool
	// NoComment suppresses the tracker comment after the PR is opened.
	NoComment bool
}

// ScanItem is one row of the ticket scan: tracker state joined with the
// locally persisted outcome.
type ScanItem struct {
	Key    string
	Title  string
	Status string
	PRURL  string
}

// RunOrchestrator defines the primary port for turning tickets into PRs.
type RunOrchestrator interface {
	// Run executes the full pipeline for one ticket and returns the PR URL.
	Run(ctx context.Context, ticketKey string, opts RunOptions) (string, error)

	// RunNext picks the first eligible ticket from the configured query and
	// runs it. Returns the chosen key and PR URL; an empty key means no
	// ticket was eligible.
	RunNext(ctx context.Context, opts RunOptions) (string, string, error)

	// Scan lists up to limit tickets matching the configured query with
	// their locally known status.
	Scan(ctx context.Context, limit int) ([]ScanItem, error)
}
