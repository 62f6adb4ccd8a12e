// Package sqlite contains the SQLite implementation of the state store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/t2p/internal/ports/secondary"
)

// StateStore implements secondary.StateStore with SQLite.
type StateStore struct {
	db *sql.DB
}

// NewStateStore creates a new SQLite state store over an open database.
func NewStateStore(db *sql.DB) *StateStore {
	return &StateStore{db: db}
}

// UpsertTicket inserts or fully replaces the ticket row for its key.
func (s *StateStore) UpsertTicket(ctx context.Context, t *secondary.TicketRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (ticket_key, status, repo, branch, pr_url, last_run_id, last_error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(ticket_key) DO UPDATE SET
			status=excluded.status,
			repo=excluded.repo,
			branch=excluded.branch,
			pr_url=excluded.pr_url,
			last_run_id=excluded.last_run_id,
			last_error=excluded.last_error,
			updated_at=datetime('now')`,
		t.TicketKey, t.Status, nullable(t.Repo), nullable(t.Branch), nullable(t.PRURL),
		nullable(t.LastRunID), nullable(t.LastError),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves the ticket row, or nil when none exists.
func (s *StateStore) GetTicket(ctx context.Context, key string) (*secondary.TicketRecord, error) {
	var (
		repo, branch, prURL, lastRunID, lastError sql.NullString
		updatedAt                                 sql.NullString
	)

	record := &secondary.TicketRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT ticket_key, status, repo, branch, pr_url, last_run_id, last_error, updated_at
		 FROM tickets WHERE ticket_key = ?`,
		key,
	).Scan(&record.TicketKey, &record.Status, &repo, &branch, &prURL, &lastRunID, &lastError, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	record.Repo = repo.String
	record.Branch = branch.String
	record.PRURL = prURL.String
	record.LastRunID = lastRunID.String
	record.LastError = lastError.String
	record.UpdatedAt = updatedAt.String
	return record, nil
}

// AddRun inserts a new run row.
func (s *StateStore) AddRun(ctx context.Context, r *secondary.RunRecord) error {
	var exitCode sql.NullInt64
	if r.AgentExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*r.AgentExitCode), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, ticket_key, status, repo, branch, pr_url, artifacts_dir, agent_exit_code, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		r.RunID, r.TicketKey, r.Status, nullable(r.Repo), nullable(r.Branch),
		nullable(r.PRURL), nullable(r.ArtifactsDir), exitCode,
	)
	if err != nil {
		return fmt.Errorf("failed to add run: %w", err)
	}
	return nil
}

// FinishRun records the terminal status exactly once. A run that already
// has a finished_at timestamp is left untouched, keeping finished runs
// immutable.
func (s *StateStore) FinishRun(ctx context.Context, runID, status, prURL string, agentExitCode *int) error {
	var exitCode sql.NullInt64
	if agentExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*agentExitCode), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE runs
		 SET finished_at=datetime('now'), status=?, pr_url=?, agent_exit_code=?
		 WHERE run_id=? AND finished_at IS NULL`,
		status, nullable(prURL), exitCode, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// TryLock claims the repo lock for runID in a single conditional upsert:
// insert when free, refresh when already held by the same run, reject when
// a different run holds it.
func (s *StateStore) TryLock(ctx context.Context, repo, runID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO locks (repo, run_id, locked_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT(repo) DO UPDATE SET locked_at=datetime('now')
		 WHERE locks.run_id = excluded.run_id`,
		repo, runID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check lock acquisition: %w", err)
	}
	return affected > 0, nil
}

// GetLock returns the run id holding the repo lock, or "" when unlocked.
func (s *StateStore) GetLock(ctx context.Context, repo string) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, "SELECT run_id FROM locks WHERE repo = ?", repo).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get lock: %w", err)
	}
	return runID, nil
}

// ClearLock unconditionally removes the lock row.
func (s *StateStore) ClearLock(ctx context.Context, repo string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM locks WHERE repo = ?", repo); err != nil {
		return fmt.Errorf("failed to clear lock: %w", err)
	}
	return nil
}

// ClearAllLocks removes every lock row and returns the count removed.
func (s *StateStore) ClearAllLocks(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM locks")
	if err != nil {
		return 0, fmt.Errorf("failed to clear locks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared locks: %w", err)
	}
	return int(affected), nil
}

// dumpableTables allow-lists the tables DumpTable may read.
var dumpableTables = map[string]bool{
	"tickets": true,
	"runs":    true,
	"locks":   true,
}

// DumpTable returns every row of an allow-listed table as generic maps.
func (s *StateStore) DumpTable(ctx context.Context, name string) ([]map[string]any, error) {
	if !dumpableTables[name] {
		return nil, fmt.Errorf("unknown table: %s", name)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+name)
	if err != nil {
		return nil, fmt.Errorf("failed to dump table %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure StateStore implements the interface
var _ secondary.StateStore = (*StateStore)(nil)
