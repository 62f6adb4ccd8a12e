// Package github implements the PR host port, either through the gh CLI
// or the GitHub REST API.
package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/t2p/internal/ports/secondary"
)

// CLIClient drives pull requests through the authenticated gh CLI.
type CLIClient struct {
	owner     string
	repoRoot  string
	reviewers []string
	labels    []string
}

// NewCLIClient creates a gh-backed PR host. repoRoot is the workspace
// directory containing local checkouts; gh commands run inside the
// repo's checkout so it resolves the right remote.
func NewCLIClient(owner, repoRoot string, reviewers, labels []string) *CLIClient {
	return &CLIClient{owner: owner, repoRoot: repoRoot, reviewers: reviewers, labels: labels}
}

// EnsureGh verifies the gh CLI is installed and on PATH.
func EnsureGh() error {
	if _, err := exec.LookPath("gh"); err != nil {
		return fmt.Errorf("gh CLI not found on PATH; install it or set use_gh_cli: false")
	}
	return nil
}

type prListEntry struct {
	URL string `json:"url"`
}

// FindPRByBranch returns the URL of an open PR with the given head branch.
func (c *CLIClient) FindPRByBranch(repo, branch string) (string, error) {
	out, err := c.run(repo, "pr", "list", "--state", "open", "--head", branch, "--json", "url")
	if err != nil {
		return "", err
	}
	return firstURL(out)
}

// FindPRByKeyword returns the URL of an open PR mentioning the keyword.
func (c *CLIClient) FindPRByKeyword(repo, keyword string) (string, error) {
	out, err := c.run(repo, "pr", "list", "--state", "open", "--search", keyword, "--json", "url")
	if err != nil {
		return "", err
	}
	return firstURL(out)
}

// CreatePR opens a pull request. gh prints the PR URL as the last line of
// its stdout.
func (c *CLIClient) CreatePR(req secondary.CreatePRRequest) (string, error) {
	args := []string{
		"pr", "create",
		"--title", req.Title,
		"--body", req.Body,
		"--base", req.Base,
		"--head", req.Head,
	}
	if req.Draft {
		args = append(args, "--draft")
	}
	for _, reviewer := range req.Reviewers {
		args = append(args, "--reviewer", reviewer)
	}
	for _, label := range req.Labels {
		args = append(args, "--label", label)
	}

	out, err := c.run(req.Repo, args...)
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	url := strings.TrimSpace(lines[len(lines)-1])
	if url == "" {
		return "", fmt.Errorf("gh pr create produced no URL")
	}
	return url, nil
}

func (c *CLIClient) run(repo string, args ...string) (string, error) {
	cmd := exec.Command("gh", args...)
	cmd.Dir = c.repoRoot + "/" + repo

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("gh %s failed: %s: %w", strings.Join(args[:2], " "), strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// firstURL extracts the first PR URL from gh's JSON list output.
func firstURL(out string) (string, error) {
	var entries []prListEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entries); err != nil {
		return "", fmt.Errorf("failed to parse gh output: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].URL, nil
}

// Ensure CLIClient implements the interface
var _ secondary.PRHost = (*CLIClient)(nil)
