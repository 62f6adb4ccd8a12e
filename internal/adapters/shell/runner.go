// Package shell runs configured test and format commands in a working tree.
package shell

import (
	"bytes"
	"os/exec"

	"github.com/example/t2p/internal/ports/secondary"
)

// Runner implements secondary.CommandRunner via `sh -c`.
type Runner struct{}

// NewRunner creates a new shell command runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes command in repoPath and captures its outcome. A non-zero
// exit is reported through ExitCode, not through the error return; the
// error is reserved for failures to start the process at all.
func (r *Runner) Run(repoPath, command string) (*secondary.CommandResult, error) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	result := &secondary.CommandResult{
		Command: []string{"sh", "-c", command},
		Stdout:  "",
		Stderr:  "",
	}

	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}
	result.ExitCode = 0
	return result, nil
}

// Ensure Runner implements the interface
var _ secondary.CommandRunner = (*Runner)(nil)
