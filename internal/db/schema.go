package db

// SchemaSQL is the complete schema for a fresh t2p install.
//
// This is the single source of truth for the database schema. All tests use
// it via GetSchemaSQL() so test databases cannot drift from production: if
// store code references a column missing here, tests fail immediately with
// "no such column".
const SchemaSQL = `
-- Tickets (one row per ticket key, upsert target)
CREATE TABLE IF NOT EXISTS tickets (
	ticket_key TEXT PRIMARY KEY,
	status TEXT NOT NULL CHECK(status IN ('RUNNING', 'PR_OPENED', 'NEEDS_HUMAN', 'FAILED', 'DONE')),
	repo TEXT,
	branch TEXT,
	pr_url TEXT,
	last_run_id TEXT,
	last_error TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Runs (one row per run attempt, immutable once finished)
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	ticket_key TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('RUNNING', 'PR_OPENED', 'NEEDS_HUMAN', 'FAILED')),
	repo TEXT,
	branch TEXT,
	pr_url TEXT,
	artifacts_dir TEXT,
	agent_exit_code INTEGER,
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME
);

-- Locks (row present while a run holds exclusive access to a repo)
CREATE TABLE IF NOT EXISTS locks (
	repo TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	locked_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_ticket_key ON runs(ticket_key);
`

// GetSchemaSQL returns the authoritative schema DDL.
func GetSchemaSQL() string {
	return SchemaSQL
}
