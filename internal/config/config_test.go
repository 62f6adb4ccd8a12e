package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
jira:
  base_url: "https://example.atlassian.net"
  email: "bot@example.com"
  api_token: "${T2P_TEST_TOKEN}"
  jql: "project = TEST"
  fields: ["summary", "description"]
github:
  owner: "org"
  default_base_branch: "main"
  use_gh_cli: true
workspace:
  root_dir: "/tmp/repos"
  repo_allowlist: ["repo-a"]
guardrails:
  max_files_changed: 10
  max_diff_lines: 100
  test_command: "pytest"
agent:
  command: "cursor-agent"
  timeout_minutes: 45
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadInterpolatesEnv(t *testing.T) {
	t.Setenv("T2P_TEST_TOKEN", "abc123")

	cfg, errs := Load(writeConfig(t, validYAML))
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.Jira.APIToken != "abc123" {
		t.Errorf("expected interpolated token abc123, got %q", cfg.Jira.APIToken)
	}
}

func TestLoadUnsetEnvBecomesEmpty(t *testing.T) {
	os.Unsetenv("T2P_TEST_TOKEN")

	_, errs := Load(writeConfig(t, validYAML))
	if len(errs) == 0 {
		t.Fatal("expected validation error for empty api_token")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "jira.api_token") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected api_token error, got %v", errs)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("T2P_TEST_TOKEN", "x")

	cfg, errs := Load(writeConfig(t, validYAML))
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.Jira.APIVersion != 3 {
		t.Errorf("expected default api_version 3, got %d", cfg.Jira.APIVersion)
	}
	if !cfg.GitHub.DraftPR {
		t.Error("expected draft_pr to default to true")
	}
	if cfg.Guardrails.MaxFixAttempts != 1 {
		t.Errorf("expected default max_fix_attempts 1, got %d", cfg.Guardrails.MaxFixAttempts)
	}
	if cfg.Guardrails.MaxFilesChanged != 10 {
		t.Errorf("expected explicit max_files_changed 10, got %d", cfg.Guardrails.MaxFilesChanged)
	}
	if cfg.Workspace.RepoInference.MinScore != 3.0 {
		t.Errorf("expected default min_score 3.0, got %v", cfg.Workspace.RepoInference.MinScore)
	}
	if cfg.Agent.TimeoutMinutes != 45 {
		t.Errorf("expected timeout_minutes 45, got %d", cfg.Agent.TimeoutMinutes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if len(errs) != 1 || !strings.Contains(errs[0], "config not found") {
		t.Errorf("expected a single not-found error, got %v", errs)
	}
}

func TestLoadCollectsAllValidationErrors(t *testing.T) {
	path := writeConfig(t, "jira:\n  api_version: 3\n")

	_, errs := Load(path)
	if len(errs) < 5 {
		t.Errorf("expected several validation errors, got %v", errs)
	}
}

func TestRepoPathJoinsRoot(t *testing.T) {
	cfg := &Config{Workspace: WorkspaceConfig{RootDir: "/srv/repos"}}
	if got := cfg.RepoPath("repo-a"); got != "/srv/repos/repo-a" {
		t.Errorf("unexpected repo path %q", got)
	}
}
