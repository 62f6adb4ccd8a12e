package shell

import (
	"strings"
	"testing"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner()

	result, err := r.Run(t.TempDir(), "echo hello && echo oops >&2")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "hello") {
		t.Errorf("stdout = %q", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "oops") {
		t.Errorf("stderr = %q", result.Stderr)
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	r := NewRunner()

	result, err := r.Run(t.TempDir(), "exit 7")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", result.ExitCode)
	}
}
