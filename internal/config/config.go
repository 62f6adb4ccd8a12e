// Package config loads and validates the t2p YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that overrides the config path.
const EnvVar = "T2P_CONFIG"

var envPattern = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// JiraConfig holds ticket-tracker connection settings.
type JiraConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Email       string   `yaml:"email"`
	APIToken    string   `yaml:"api_token"`
	APIVersion  int      `yaml:"api_version"`
	JQL         string   `yaml:"jql"`
	Fields      []string `yaml:"fields"`
	CommentOnPR bool     `yaml:"comment_on_pr"`
}

// GitHubConfig holds PR-hosting settings.
type GitHubConfig struct {
	Owner             string   `yaml:"owner"`
	DefaultBaseBranch string   `yaml:"default_base_branch"`
	UseGhCLI          bool     `yaml:"use_gh_cli"`
	DraftPR           bool     `yaml:"draft_pr"`
	Token             string   `yaml:"token"`
	Reviewers         []string `yaml:"reviewers"`
	Labels            []string `yaml:"labels"`
}

// RepoInferenceConfig bounds the content-based repo inference scan.
type RepoInferenceConfig struct {
	Enabled         bool     `yaml:"enabled"`
	MinScore        float64  `yaml:"min_score"`
	MaxRepos        int      `yaml:"max_repos"`
	MaxFilesPerRepo int      `yaml:"max_files_per_repo"`
	MaxTotalFiles   int      `yaml:"max_total_files"`
	MaxBytesPerFile int      `yaml:"max_bytes_per_file"`
	MaxTokens       int      `yaml:"max_tokens"`
	MaxSeconds      int      `yaml:"max_seconds"`
	IgnoreDirs      []string `yaml:"ignore_dirs"`
	IgnoreExts      []string `yaml:"ignore_extensions"`
}

// WorkspaceConfig locates the local repositories a run may mutate.
type WorkspaceConfig struct {
	RootDir        string              `yaml:"root_dir"`
	RepoAllowlist  []string            `yaml:"repo_allowlist"`
	RepoMapping    map[string]string   `yaml:"repo_mapping"`
	SingleRepoOnly bool                `yaml:"single_repo_only"`
	RepoInference  RepoInferenceConfig `yaml:"repo_inference"`
}

// GuardrailsConfig holds the structural safety limits enforced after the
// agent has mutated the tree.
type GuardrailsConfig struct {
	DenyGlobs            []string `yaml:"deny_globs"`
	CommandDenylist      []string `yaml:"command_denylist"`
	MaxFilesChanged      int      `yaml:"max_files_changed"`
	MaxDiffLines         int      `yaml:"max_diff_lines"`
	RequireCleanWorktree bool     `yaml:"require_clean_worktree"`
	RequireTests         bool     `yaml:"require_tests"`
	TestCommand          string   `yaml:"test_command"`
	FormatCommand        string   `yaml:"format_command"`
	MaxFixAttempts       int      `yaml:"max_fix_attempts"`
}

// AgentConfig describes how to invoke the headless coding agent.
type AgentConfig struct {
	Command            string `yaml:"command"`
	Model              string `yaml:"model"`
	TimeoutMinutes     int    `yaml:"timeout_minutes"`
	PromptTemplatePath string `yaml:"prompt_template_path"`
}

// AuditConfig controls the passive per-run event log.
type AuditConfig struct {
	Enabled        bool     `yaml:"enabled"`
	OutputDir      string   `yaml:"output_dir"`
	RedactPatterns []string `yaml:"redact_patterns"`
}

// Config is the root t2p configuration.
type Config struct {
	Jira       JiraConfig       `yaml:"jira"`
	GitHub     GitHubConfig     `yaml:"github"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Guardrails GuardrailsConfig `yaml:"guardrails"`
	Agent      AgentConfig      `yaml:"agent"`
	Audit      AuditConfig      `yaml:"audit"`
}

// DefaultPath returns ~/.t2p/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".t2p", "config.yaml"), nil
}

// PathFromEnv returns the configured override path, or "" when unset.
func PathFromEnv() string {
	return os.Getenv(EnvVar)
}

// Load reads, interpolates and validates the config at path. When path is
// empty the T2P_CONFIG env var and then the default location are tried.
// Validation problems are returned together so the operator can fix the file
// in one pass.
func Load(path string) (*Config, []string) {
	if path == "" {
		path = PathFromEnv()
	}
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, []string{err.Error()}
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("config not found at %s", path)}
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, []string{fmt.Sprintf("failed to parse config: %v", err)}
	}

	if errs := cfg.validate(); len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

// defaultConfig carries the defaults applied before unmarshalling, so a
// sparse config file inherits them.
func defaultConfig() *Config {
	return &Config{
		Jira: JiraConfig{APIVersion: 3},
		GitHub: GitHubConfig{
			DefaultBaseBranch: "auto",
			UseGhCLI:          true,
			DraftPR:           true,
		},
		Workspace: WorkspaceConfig{
			SingleRepoOnly: true,
			RepoInference: RepoInferenceConfig{
				MinScore:        3.0,
				MaxFilesPerRepo: 400,
				MaxTotalFiles:   8000,
				MaxBytesPerFile: 200_000,
				MaxTokens:       80,
				MaxSeconds:      60,
				IgnoreDirs: []string{
					".git", ".venv", "venv", "node_modules", "dist", "build",
					".tox", ".mypy_cache", ".pytest_cache", "vendor",
				},
				IgnoreExts: []string{
					".png", ".jpg", ".jpeg", ".gif", ".svg", ".pdf",
					".zip", ".gz", ".tgz", ".bz2", ".xz", ".tar", ".7z",
					".mp3", ".mp4", ".mov", ".avi", ".wav", ".webm",
					".woff", ".woff2", ".ttf", ".otf",
				},
			},
		},
		Guardrails: GuardrailsConfig{
			MaxFilesChanged:      40,
			MaxDiffLines:         2000,
			RequireCleanWorktree: true,
			RequireTests:         true,
			TestCommand:          "auto",
			MaxFixAttempts:       1,
		},
		Agent: AgentConfig{TimeoutMinutes: 45},
		Audit: AuditConfig{
			RedactPatterns: []string{"token", "password", "secret", "api_key"},
		},
	}
}

// interpolateEnv substitutes ${NAME} references with environment values.
// Unset variables become empty strings, matching the behaviour operators
// expect from shell-style expansion.
func interpolateEnv(raw string) string {
	return envPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func (c *Config) validate() []string {
	var errs []string
	if c.Jira.BaseURL == "" {
		errs = append(errs, "jira.base_url is required")
	}
	if c.Jira.Email == "" {
		errs = append(errs, "jira.email is required")
	}
	if c.Jira.APIToken == "" {
		errs = append(errs, "jira.api_token is required")
	}
	if c.Jira.JQL == "" {
		errs = append(errs, "jira.jql is required")
	}
	if len(c.Jira.Fields) == 0 {
		errs = append(errs, "jira.fields must list at least one field")
	}
	if c.GitHub.Owner == "" {
		errs = append(errs, "github.owner is required")
	}
	if c.GitHub.DefaultBaseBranch == "" {
		errs = append(errs, "github.default_base_branch is required")
	}
	if !c.GitHub.UseGhCLI && c.GitHub.Token == "" && os.Getenv("GITHUB_TOKEN") == "" {
		errs = append(errs, "github.token (or GITHUB_TOKEN) is required when use_gh_cli is false")
	}
	if c.Workspace.RootDir == "" {
		errs = append(errs, "workspace.root_dir is required")
	}
	if c.Agent.Command == "" {
		errs = append(errs, "agent.command is required")
	}
	if c.Agent.TimeoutMinutes <= 0 {
		errs = append(errs, "agent.timeout_minutes must be positive")
	}
	if c.Guardrails.MaxFixAttempts < 0 {
		errs = append(errs, "guardrails.max_fix_attempts must not be negative")
	}
	return errs
}

// GitHubToken resolves the REST token from config or environment.
func (c *Config) GitHubToken() string {
	if c.GitHub.Token != "" {
		return c.GitHub.Token
	}
	return os.Getenv("GITHUB_TOKEN")
}

// WorkspaceRoot returns the workspace root with ~ expanded.
func (c *Config) WorkspaceRoot() string {
	root := c.Workspace.RootDir
	if len(root) > 1 && root[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, root[2:])
		}
	}
	return root
}

// RepoPath returns the local checkout path for a repo name.
func (c *Config) RepoPath(repo string) string {
	return filepath.Join(c.WorkspaceRoot(), repo)
}
