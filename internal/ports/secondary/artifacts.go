package secondary

// ArtifactStore defines the secondary port for per-run artifact files.
type ArtifactStore interface {
	// RunDir returns (creating if needed) the artifacts directory for a run.
	RunDir(ticketKey, runID string) (string, error)

	// WriteFile writes one named artifact into the run directory.
	WriteFile(dir, name, content string) error

	// WriteJSON marshals payload indented and writes it as a named artifact.
	WriteJSON(dir, name string, payload any) error
}
