package app

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/t2p/internal/adapters/sqlite"
	"github.com/example/t2p/internal/db"
)

func newLockService(t *testing.T) *LockService {
	t.Helper()
	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return NewLockService(sqlite.NewStateStore(testDB))
}

func TestAcquireAndRelease(t *testing.T) {
	l := newLockService(t)
	ctx := context.Background()

	ok, holder, err := l.Acquire(ctx, "billing", "run-1")
	if err != nil || !ok || holder != "" {
		t.Fatalf("acquire: ok=%v holder=%q err=%v", ok, holder, err)
	}

	ok, holder, err = l.Acquire(ctx, "billing", "run-2")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok || holder != "run-1" {
		t.Errorf("second acquire: ok=%v holder=%q", ok, holder)
	}

	if err := l.Release(ctx, "billing"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _, err = l.Acquire(ctx, "billing", "run-2")
	if err != nil || !ok {
		t.Errorf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestAcquireIsReentrant(t *testing.T) {
	l := newLockService(t)
	ctx := context.Background()

	if ok, _, _ := l.Acquire(ctx, "billing", "run-1"); !ok {
		t.Fatal("first acquire refused")
	}
	if ok, _, _ := l.Acquire(ctx, "billing", "run-1"); !ok {
		t.Error("re-entry by holder refused")
	}
}

func TestSweepClearsEverything(t *testing.T) {
	l := newLockService(t)
	ctx := context.Background()

	l.Acquire(ctx, "billing", "run-1")
	l.Acquire(ctx, "frontend", "run-2")

	n, err := l.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("swept = %d, want 2", n)
	}
	if ok, _, _ := l.Acquire(ctx, "billing", "run-3"); !ok {
		t.Error("lock still held after sweep")
	}
}
