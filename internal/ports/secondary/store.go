// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the run pipeline
// drives external systems.
package secondary

import "context"

// Ticket and run statuses persisted by the state store.
const (
	StatusRunning    = "RUNNING"
	StatusPROpened   = "PR_OPENED"
	StatusNeedsHuman = "NEEDS_HUMAN"
	StatusFailed     = "FAILED"
	StatusDone       = "DONE"
)

// TicketRecord is the durable per-ticket state. One row per ticket key;
// always written whole via upsert, never by partial-field mutation.
type TicketRecord struct {
	TicketKey string
	Status    string
	Repo      string
	Branch    string
	PRURL     string
	LastRunID string
	LastError string
	UpdatedAt string
}

// RunRecord is the durable per-run state. Immutable once finished.
type RunRecord struct {
	RunID         string
	TicketKey     string
	Status        string
	Repo          string
	Branch        string
	PRURL         string
	ArtifactsDir  string
	AgentExitCode *int
	StartedAt     string
	FinishedAt    string
}

// LockRecord is a repo lock row. Existence means exclusive access is held.
type LockRecord struct {
	Repo     string
	RunID    string
	LockedAt string
}

// StateStore defines the secondary port for durable tickets/runs/locks state.
// All writes are atomic with respect to concurrent readers.
type StateStore interface {
	// UpsertTicket inserts or fully replaces the ticket row.
	UpsertTicket(ctx context.Context, ticket *TicketRecord) error

	// GetTicket returns the ticket row, or nil when none exists.
	GetTicket(ctx context.Context, key string) (*TicketRecord, error)

	// AddRun inserts a new run row with status RUNNING.
	AddRun(ctx context.Context, run *RunRecord) error

	// FinishRun records the terminal status of a run exactly once; a run
	// that has already finished is left untouched.
	FinishRun(ctx context.Context, runID, status, prURL string, agentExitCode *int) error

	// TryLock atomically claims the repo lock for runID. Returns false when
	// a different run already holds it; re-entry by the same run id
	// succeeds.
	TryLock(ctx context.Context, repo, runID string) (bool, error)

	// GetLock returns the holding run id, or "" when the repo is unlocked.
	GetLock(ctx context.Context, repo string) (string, error)

	// ClearLock unconditionally removes the lock row.
	ClearLock(ctx context.Context, repo string) error

	// ClearAllLocks removes every lock row and returns the count removed.
	// Administrative sweep for stale locks left by killed processes.
	ClearAllLocks(ctx context.Context) (int, error)

	// DumpTable returns all rows of an allow-listed table for inspection.
	DumpTable(ctx context.Context, name string) ([]map[string]any, error)
}
