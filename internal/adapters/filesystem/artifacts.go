// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/t2p/internal/ports/secondary"
)

// ArtifactStore implements secondary.ArtifactStore under a base directory,
// laid out as <base>/<ticket_key>/<run_id>/<artifact>.
type ArtifactStore struct {
	basePath string
}

// NewArtifactStore creates an artifact store rooted at basePath. An empty
// basePath defaults to ~/.t2p/runs.
func NewArtifactStore(basePath string) (*ArtifactStore, error) {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		basePath = filepath.Join(home, ".t2p", "runs")
	}
	return &ArtifactStore{basePath: basePath}, nil
}

// RunDir returns (creating if needed) the artifacts directory for a run.
func (a *ArtifactStore) RunDir(ticketKey, runID string) (string, error) {
	dir := filepath.Join(a.basePath, ticketKey, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return dir, nil
}

// WriteFile writes one named artifact into the run directory.
func (a *ArtifactStore) WriteFile(dir, name, content string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return nil
}

// WriteJSON marshals payload indented and writes it as a named artifact.
func (a *ArtifactStore) WriteJSON(dir, name string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %s: %w", name, err)
	}
	return a.WriteFile(dir, name, string(data))
}

// Ensure ArtifactStore implements the interface
var _ secondary.ArtifactStore = (*ArtifactStore)(nil)
