// Package agent spawns the external headless coding agent and enforces its
// wall-clock budget. The agent runs in its own process group so a timeout
// can kill the entire subtree, grandchildren included, without the signal
// ever reaching the orchestrator.
package agent

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/example/t2p/internal/core/footer"
	"github.com/example/t2p/internal/ports/secondary"
)

// DefaultGrace is how long a terminated process group gets to exit before
// it is force-killed.
const DefaultGrace = 30 * time.Second

// Runner implements secondary.AgentRunner.
type Runner struct {
	// Grace bounds the wait between SIGTERM and SIGKILL on timeout.
	Grace time.Duration
}

// NewRunner creates a runner with the default grace period.
func NewRunner() *Runner {
	return &Runner{Grace: DefaultGrace}
}

// Invoke runs the agent once. The transcript (stdout + stderr) is written
// to req.TranscriptPath regardless of outcome. On timeout the whole
// process group is terminated and the result carries exit code -1 with no
// footer, which forces the caller into the missing-footer failure path.
func (r *Runner) Invoke(req secondary.InvokeRequest) (*secondary.AgentResult, error) {
	prompt, err := renderPrompt(req.TemplatePath, req.PromptVars)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(req.Command, "--print", prompt)
	cmd.Dir = req.RepoPath
	// New process group: the timeout kill must reach every descendant the
	// agent spawns, and must not reach us.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start agent: %w", err)
	}
	pgid := cmd.Process.Pid

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timedOut := false
	select {
	case <-done:
	case <-time.After(req.Timeout):
		timedOut = true
		r.killGroup(pgid, done)
	}

	transcript := stdout.String() + "\n" + stderr.String()
	if err := writeTranscript(req.TranscriptPath, transcript); err != nil {
		return nil, err
	}

	if timedOut {
		return &secondary.AgentResult{ExitCode: -1, Transcript: transcript}, nil
	}

	return &secondary.AgentResult{
		ExitCode:   cmd.ProcessState.ExitCode(),
		Footer:     footer.FindLast(transcript),
		Transcript: transcript,
	}, nil
}

// killGroup terminates the process group gracefully, then forcefully once
// the grace period lapses. Waits for the child reaper goroutine so the
// process table entry is gone before returning.
func (r *Runner) killGroup(pgid int, done <-chan error) {
	grace := r.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil {
		// Group already gone or unkillable; make sure the direct child dies.
		syscall.Kill(pgid, syscall.SIGKILL)
	}

	select {
	case <-done:
	case <-time.After(grace):
		syscall.Kill(-pgid, syscall.SIGKILL)
		<-done
	}
}

func writeTranscript(path, transcript string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(transcript), 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Ensure Runner implements the interface
var _ secondary.AgentRunner = (*Runner)(nil)
