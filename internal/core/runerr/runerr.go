// Package runerr defines the tagged error type used by every pipeline step.
// The classification travels with the error instead of being inferred later
// from message text, so terminal ticket statuses and process exit codes are
// derived mechanically.
package runerr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindFailed covers operational/infrastructure errors; rerunning the
	// whole pipeline is the remedy.
	KindFailed Kind = iota

	// KindNeedsHuman covers failures requiring human judgment: dirty
	// worktree, guardrail violations, missing footer, exhausted fix
	// attempts, ambiguous repo mapping, missing ticket fields.
	KindNeedsHuman

	// KindBusy means the repo lock is held by another run. Transient; not
	// persisted as a ticket failure.
	KindBusy
)

// Process exit codes observed by callers of the run pipeline.
const (
	ExitOK         = 0
	ExitNeedsHuman = 2
	ExitFailed     = 3
)

// Error is a pipeline failure carrying its classification.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// NeedsHuman builds a user-actionable failure.
func NeedsHuman(reason string) *Error {
	return &Error{Kind: KindNeedsHuman, Reason: reason}
}

// Failed builds an operational failure wrapping its cause.
func Failed(reason string, err error) *Error {
	return &Error{Kind: KindFailed, Reason: reason, Err: err}
}

// Busy builds the transient lock-held signal.
func Busy(repo, holder string) *Error {
	return &Error{Kind: KindBusy, Reason: fmt.Sprintf("repo %s locked by run %s", repo, holder)}
}

// KindOf extracts the classification; unexpected errors count as Failed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFailed
}

// TicketStatus maps a failure to the terminal ticket status it persists.
// Busy deliberately maps to no status change; callers skip persistence.
func TicketStatus(err error) string {
	switch KindOf(err) {
	case KindNeedsHuman:
		return "NEEDS_HUMAN"
	default:
		return "FAILED"
	}
}

// ExitCode maps a pipeline outcome to the process exit code contract:
// 0 = PR URL returned, 2 = needs human (and busy), 3 = failed.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindNeedsHuman, KindBusy:
		return ExitNeedsHuman
	default:
		return ExitFailed
	}
}
