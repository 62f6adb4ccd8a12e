package secondary

import (
	"time"

	"github.com/example/t2p/internal/core/footer"
)

// InvokeRequest describes one headless agent invocation.
type InvokeRequest struct {
	Command        string
	RepoPath       string
	PromptVars     map[string]string
	Timeout        time.Duration
	TranscriptPath string
	// TemplatePath overrides the built-in prompt template when set.
	TemplatePath string
}

// AgentResult is the outcome of one agent invocation. On timeout ExitCode
// is -1 and Footer is nil, forcing the caller into the missing-footer path.
type AgentResult struct {
	ExitCode   int
	Footer     *footer.Footer
	Transcript string
}

// AgentRunner defines the secondary port for the external coding agent.
type AgentRunner interface {
	// Invoke renders the prompt, runs the agent in its own process group,
	// enforces the timeout (killing the whole group), persists the
	// transcript to TranscriptPath regardless of outcome, and parses the
	// result footer from the transcript.
	Invoke(req InvokeRequest) (*AgentResult, error)
}
