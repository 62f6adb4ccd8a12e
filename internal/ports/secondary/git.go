package secondary

// DiffStat is one --numstat entry for an uncommitted change.
type DiffStat struct {
	Added   int
	Removed int
	Path    string
}

// GitClient defines the secondary port for git plumbing against one
// working tree. All operations are blocking; the repo lock must be held
// before any mutating call.
type GitClient interface {
	// Status returns `git status --porcelain` output, trimmed.
	Status(repoPath string) (string, error)

	// FetchAndResetToBase fetches all remotes and hard-resets the tree to a
	// pristine origin/<base>, discarding untracked files.
	FetchAndResetToBase(repoPath, baseBranch string) error

	// CreateOrResetBranch checkouts -B the working branch.
	CreateOrResetBranch(repoPath, branch string) error

	// ChangedFiles lists paths with uncommitted modifications.
	ChangedFiles(repoPath string) ([]string, error)

	// DiffStats returns per-file added/removed line counts.
	DiffStats(repoPath string) ([]DiffStat, error)

	// FullDiff returns the complete uncommitted diff as a patch.
	FullDiff(repoPath string) (string, error)

	// CommitAll stages every change and commits it with the given message.
	CommitAll(repoPath, message string) error

	// RemoteBranchExists reports whether origin already has the branch.
	RemoteBranchExists(repoPath, branch string) (bool, error)

	// Push pushes the branch to origin with upstream tracking.
	Push(repoPath, branch string) error

	// DetectDefaultBranch asks the remote which branch HEAD points to.
	// Returns "" when it cannot be determined.
	DetectDefaultBranch(repoPath string) (string, error)

	// DetectTestCommand inspects build files to guess the test command.
	// Returns "" when nothing recognised is found.
	DetectTestCommand(repoPath string) (string, error)
}

// CommandResult captures one shell command run against the working tree.
type CommandResult struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner defines the secondary port for running configured test and
// format commands inside the working tree.
type CommandRunner interface {
	Run(repoPath, command string) (*CommandResult, error)
}
