package secondary

// CreatePRRequest describes the PR to open after guardrails pass.
type CreatePRRequest struct {
	Repo      string
	Title     string
	Body      string
	Base      string
	Head      string
	Draft     bool
	Reviewers []string
	Labels    []string
}

// PRHost defines the secondary port for the PR-hosting service.
type PRHost interface {
	// FindPRByBranch returns the URL of an open PR with the given head
	// branch, or "" when none exists.
	FindPRByBranch(repo, branch string) (string, error)

	// FindPRByKeyword returns the URL of an open PR whose title or body
	// mentions the keyword (ticket key), or "" when none exists.
	FindPRByKeyword(repo, keyword string) (string, error)

	// CreatePR opens a pull request and returns its URL.
	CreatePR(req CreatePRRequest) (string, error)
}
