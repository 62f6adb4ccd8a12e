package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/t2p/internal/adapters/sqlite"
	"github.com/example/t2p/internal/ports/secondary"
)

func TestUpsertTicketIdempotent(t *testing.T) {
	store := sqlite.NewStateStore(setupTestDB(t))
	ctx := context.Background()

	first := &secondary.TicketRecord{
		TicketKey: "ABC-1",
		Status:    secondary.StatusPROpened,
		Repo:      "repo",
		Branch:    "branch",
		PRURL:     "http://pr",
		LastRunID: "run1",
	}
	if err := store.UpsertTicket(ctx, first); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	fetched, err := store.GetTicket(ctx, "ABC-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fetched == nil || fetched.PRURL != "http://pr" {
		t.Fatalf("unexpected ticket: %+v", fetched)
	}

	// Second upsert replaces the row whole, never appends.
	second := &secondary.TicketRecord{
		TicketKey: "ABC-1",
		Status:    secondary.StatusFailed,
		Repo:      "repo",
		LastRunID: "run2",
		LastError: "push failed",
	}
	if err := store.UpsertTicket(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	fetched, err = store.GetTicket(ctx, "ABC-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fetched.Status != secondary.StatusFailed {
		t.Errorf("status = %q, want FAILED", fetched.Status)
	}
	if fetched.PRURL != "" {
		t.Errorf("pr_url should be cleared by the whole-row upsert, got %q", fetched.PRURL)
	}
	if fetched.LastError != "push failed" {
		t.Errorf("last_error = %q", fetched.LastError)
	}

	rows, err := store.DumpTable(ctx, "tickets")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected exactly one row per ticket key, got %d", len(rows))
	}
}

func TestGetTicketMissing(t *testing.T) {
	store := sqlite.NewStateStore(setupTestDB(t))

	fetched, err := store.GetTicket(context.Background(), "NOPE-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fetched != nil {
		t.Errorf("expected nil for missing ticket, got %+v", fetched)
	}
}

func TestFinishRunExactlyOnce(t *testing.T) {
	store := sqlite.NewStateStore(setupTestDB(t))
	ctx := context.Background()

	run := &secondary.RunRecord{
		RunID:        "run1",
		TicketKey:    "ABC-1",
		Status:       secondary.StatusRunning,
		Repo:         "repo",
		ArtifactsDir: "/tmp/artifacts",
	}
	if err := store.AddRun(ctx, run); err != nil {
		t.Fatalf("add run failed: %v", err)
	}

	exitCode := 0
	if err := store.FinishRun(ctx, "run1", secondary.StatusPROpened, "http://pr", &exitCode); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	// A second finish must not overwrite the terminal state.
	if err := store.FinishRun(ctx, "run1", secondary.StatusFailed, "", nil); err != nil {
		t.Fatalf("second finish errored: %v", err)
	}

	rows, err := store.DumpTable(ctx, "runs")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one run row, got %d", len(rows))
	}
	if rows[0]["status"] != secondary.StatusPROpened {
		t.Errorf("status = %v, want PR_OPENED (finished runs are immutable)", rows[0]["status"])
	}
	if rows[0]["pr_url"] != "http://pr" {
		t.Errorf("pr_url = %v", rows[0]["pr_url"])
	}
}

func TestTryLockSemantics(t *testing.T) {
	store := sqlite.NewStateStore(setupTestDB(t))
	ctx := context.Background()

	ok, err := store.TryLock(ctx, "repo-a", "run1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	// Re-entry by the same run id is a no-op success.
	ok, err = store.TryLock(ctx, "repo-a", "run1")
	if err != nil || !ok {
		t.Fatalf("re-entry: ok=%v err=%v", ok, err)
	}

	// A different run is rejected while the lock is held.
	ok, err = store.TryLock(ctx, "repo-a", "run2")
	if err != nil {
		t.Fatalf("contending acquire errored: %v", err)
	}
	if ok {
		t.Error("expected contending acquire to be rejected")
	}

	holder, err := store.GetLock(ctx, "repo-a")
	if err != nil || holder != "run1" {
		t.Fatalf("holder = %q err=%v, want run1", holder, err)
	}

	// Independent repos lock independently.
	ok, err = store.TryLock(ctx, "repo-b", "run2")
	if err != nil || !ok {
		t.Fatalf("other repo acquire: ok=%v err=%v", ok, err)
	}

	if err := store.ClearLock(ctx, "repo-a"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	ok, err = store.TryLock(ctx, "repo-a", "run2")
	if err != nil || !ok {
		t.Fatalf("acquire after clear: ok=%v err=%v", ok, err)
	}
}

func TestGetLockUnlocked(t *testing.T) {
	store := sqlite.NewStateStore(setupTestDB(t))

	holder, err := store.GetLock(context.Background(), "repo-a")
	if err != nil {
		t.Fatalf("get lock failed: %v", err)
	}
	if holder != "" {
		t.Errorf("expected empty holder, got %q", holder)
	}
}

func TestClearAllLocks(t *testing.T) {
	store := sqlite.NewStateStore(setupTestDB(t))
	ctx := context.Background()

	for i, repo := range []string{"repo-a", "repo-b", "repo-c"} {
		if ok, err := store.TryLock(ctx, repo, "run"+string(rune('1'+i))); err != nil || !ok {
			t.Fatalf("acquire %s: ok=%v err=%v", repo, ok, err)
		}
	}

	count, err := store.ClearAllLocks(ctx)
	if err != nil {
		t.Fatalf("clear all failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	count, err = store.ClearAllLocks(ctx)
	if err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 on empty table", count)
	}
}

func TestDumpTableRejectsUnknownName(t *testing.T) {
	store := sqlite.NewStateStore(setupTestDB(t))

	if _, err := store.DumpTable(context.Background(), "sqlite_master"); err == nil {
		t.Error("expected error for non-allow-listed table")
	}
}
