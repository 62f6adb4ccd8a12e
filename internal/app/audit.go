package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/example/t2p/internal/config"
)

// AuditLogger appends structured events to a per-run events.jsonl file.
// Best-effort: audit failures never fail the run.
type AuditLogger struct {
	enabled bool
	path    string
	redact  []string
	start   time.Time

	mu sync.Mutex
}

// NewAuditLogger creates a logger writing into runDir, or into the
// configured output directory when one is set. A disabled logger swallows
// every event.
func NewAuditLogger(cfg config.AuditConfig, runDir string) *AuditLogger {
	dir := cfg.OutputDir
	if dir == "" {
		dir = runDir
	}
	return &AuditLogger{
		enabled: cfg.Enabled,
		path:    filepath.Join(dir, "events.jsonl"),
		redact:  cfg.RedactPatterns,
		start:   time.Now(),
	}
}

// Event appends one event line. Field values whose key matches a redact
// pattern are masked before writing.
func (l *AuditLogger) Event(name string, fields map[string]any) {
	if l == nil || !l.enabled {
		return
	}

	entry := map[string]any{
		"event":     name,
		"ts":        time.Now().UTC().Format(time.RFC3339),
		"elapsed_s": time.Since(l.start).Round(time.Millisecond).Seconds(),
	}
	for key, value := range fields {
		if l.redacted(key) {
			entry[key] = "[redacted]"
		} else {
			entry[key] = value
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	f.Write(append(line, '\n'))
}

func (l *AuditLogger) redacted(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range l.redact {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
