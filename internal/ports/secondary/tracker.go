package secondary

// Issue is a ticket as returned by the tracker. Fields is an opaque mapping
// of unknown shape; extraction helpers fail soft rather than raising.
type Issue struct {
	Key    string
	Fields map[string]any
}

// TrackerClient defines the secondary port for the ticket tracker.
type TrackerClient interface {
	// Search returns up to limit issues matching the query.
	Search(query string, fields []string, limit int) ([]Issue, error)

	// AddComment posts a comment on the ticket.
	AddComment(ticketKey, text string) error
}
