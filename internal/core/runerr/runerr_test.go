package runerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if KindOf(NeedsHuman("worktree not clean")) != KindNeedsHuman {
		t.Error("expected KindNeedsHuman")
	}
	if KindOf(Failed("store unavailable", errors.New("disk"))) != KindFailed {
		t.Error("expected KindFailed")
	}
	if KindOf(Busy("repo-a", "run-1")) != KindBusy {
		t.Error("expected KindBusy")
	}
	if KindOf(errors.New("anything else")) != KindFailed {
		t.Error("untagged errors must classify as Failed")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", NeedsHuman("deny glob violation"))
	if KindOf(wrapped) != KindNeedsHuman {
		t.Error("classification must survive %w wrapping")
	}
}

func TestTicketStatus(t *testing.T) {
	if got := TicketStatus(NeedsHuman("tests failed")); got != "NEEDS_HUMAN" {
		t.Errorf("got %q", got)
	}
	if got := TicketStatus(errors.New("boom")); got != "FAILED" {
		t.Errorf("got %q", got)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("nil error must exit 0")
	}
	if ExitCode(NeedsHuman("x")) != 2 {
		t.Error("needs-human must exit 2")
	}
	if ExitCode(Busy("r", "id")) != 2 {
		t.Error("busy must exit 2")
	}
	if ExitCode(Failed("x", nil)) != 3 {
		t.Error("failed must exit 3")
	}
}

func TestErrorMessage(t *testing.T) {
	e := Failed("push failed", errors.New("remote hung up"))
	if e.Error() != "push failed: remote hung up" {
		t.Errorf("got %q", e.Error())
	}
	if NeedsHuman("worktree not clean").Error() != "worktree not clean" {
		t.Error("reason-only error must not append a cause")
	}
}
