// Package git shells out to the git binary for working-tree plumbing.
package git

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/t2p/internal/ports/secondary"
)

// Client implements secondary.GitClient by invoking the git binary.
type Client struct{}

// NewClient creates a new git client.
func NewClient() *Client {
	return &Client{}
}

// Status returns `git status --porcelain` output, trimmed.
func (c *Client) Status(repoPath string) (string, error) {
	out, err := c.output(repoPath, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// FetchAndResetToBase fetches from all remotes and resets the tree to a
// pristine copy of the base branch. Any uncommitted changes or untracked
// files left over from a previous run are discarded so the new ticket
// starts from a clean slate.
func (c *Client) FetchAndResetToBase(repoPath, baseBranch string) error {
	if err := c.run(repoPath, "fetch", "--all"); err != nil {
		return err
	}
	// Force the checkout so leftover changes cannot make it fail or carry
	// stale work into the new branch.
	if err := c.run(repoPath, "checkout", "--force", baseBranch); err != nil {
		return err
	}
	if err := c.run(repoPath, "reset", "--hard", "origin/"+baseBranch); err != nil {
		return err
	}
	return c.run(repoPath, "clean", "-fd")
}

// CreateOrResetBranch checkouts -B the working branch.
func (c *Client) CreateOrResetBranch(repoPath, branch string) error {
	return c.run(repoPath, "checkout", "-B", branch)
}

// ChangedFiles lists paths with uncommitted modifications.
func (c *Client) ChangedFiles(repoPath string) ([]string, error) {
	out, err := c.output(repoPath, "diff", "--name-only")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// DiffStats returns per-file added/removed line counts from --numstat.
// Binary files report "-" counts; those parse as zero.
func (c *Client) DiffStats(repoPath string) ([]secondary.DiffStat, error) {
	out, err := c.output(repoPath, "diff", "--numstat")
	if err != nil {
		return nil, err
	}
	var stats []secondary.DiffStat
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		added, _ := strconv.Atoi(parts[0])
		removed, _ := strconv.Atoi(parts[1])
		stats = append(stats, secondary.DiffStat{Added: added, Removed: removed, Path: parts[2]})
	}
	return stats, nil
}

// FullDiff returns the complete uncommitted diff as a patch.
func (c *Client) FullDiff(repoPath string) (string, error) {
	return c.output(repoPath, "diff")
}

// CommitAll stages every change and commits it with the given message.
func (c *Client) CommitAll(repoPath, message string) error {
	if err := c.run(repoPath, "add", "-A"); err != nil {
		return err
	}
	return c.run(repoPath, "commit", "-m", message)
}

// RemoteBranchExists reports whether origin already has the branch.
func (c *Client) RemoteBranchExists(repoPath, branch string) (bool, error) {
	out, err := c.output(repoPath, "ls-remote", "--heads", "origin", branch)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Push pushes the branch to origin with upstream tracking.
func (c *Client) Push(repoPath, branch string) error {
	return c.run(repoPath, "push", "-u", "origin", branch)
}

// DetectDefaultBranch asks the remote which branch HEAD points to
// (e.g. main, develop, master). Returns "" when it cannot be determined.
func (c *Client) DetectDefaultBranch(repoPath string) (string, error) {
	out, err := c.output(repoPath, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err == nil && strings.TrimSpace(out) != "" {
		// refs/remotes/origin/main -> main
		ref := strings.TrimSpace(out)
		return ref[strings.LastIndex(ref, "/")+1:], nil
	}

	// symbolic-ref can be unset; fall back to `git remote show origin`.
	out, err = c.output(repoPath, "remote", "show", "origin")
	if err != nil {
		return "", nil
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "HEAD branch") {
			return strings.TrimSpace(line[strings.LastIndex(line, ":")+1:]), nil
		}
	}
	return "", nil
}

// DetectTestCommand inspects build files to guess the test command.
// Detection order (first match wins): package.json, gradle, maven.
func (c *Client) DetectTestCommand(repoPath string) (string, error) {
	checks := []struct {
		file    string
		command string
	}{
		{"package.json", "npm test"},
		{"build.gradle", "./gradlew test"},
		{"build.gradle.kts", "./gradlew test"},
		{"pom.xml", "mvn test"},
	}
	for _, check := range checks {
		if _, err := os.Stat(filepath.Join(repoPath, check.file)); err == nil {
			return check.command, nil
		}
	}
	return "", nil
}

// run executes a git command and returns an error carrying stderr if it fails.
func (c *Client) run(repoPath string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, stderr.String())
	}
	return nil
}

// output executes a git command and returns its stdout.
func (c *Client) output(repoPath string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, stderr.String())
	}
	return stdout.String(), nil
}

// Ensure Client implements the interface
var _ secondary.GitClient = (*Client)(nil)
