// Package footer parses the structured result contract the headless agent
// must emit as its last meaningful output line.
package footer

import (
	"encoding/json"
	"strings"
)

// Marker is the fixed prefix of the result line.
const Marker = "T2P_RESULT:"

// TestOutcome is the agent's own report of running the test command.
type TestOutcome struct {
	Command string `json:"command"`
	Result  string `json:"result"`
	Notes   string `json:"notes"`
}

// Footer is the structured record carried on the marker line.
type Footer struct {
	Decision         string      `json:"decision"`
	Summary          string      `json:"summary"`
	Changes          []string    `json:"changes"`
	Tests            TestOutcome `json:"tests"`
	Risk             string      `json:"risk"`
	Repo             string      `json:"repo"`
	Branch           string      `json:"branch"`
	CommitMessage    string      `json:"commit_message"`
	NotesForReviewer string      `json:"notes_for_reviewer"`
	BlockingReason   string      `json:"blocking_reason"`
}

// Parse returns the footer carried by line, or nil when the line does not
// start with the marker or its JSON payload is malformed.
func Parse(line string) *Footer {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Marker) {
		return nil
	}
	raw := strings.TrimSpace(strings.TrimPrefix(line, Marker))

	var f Footer
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil
	}
	return &f
}

// FindLast scans the transcript from the end and returns the last parseable
// marker line, or nil when the transcript carries none. The agent contract
// requires the footer to be the final meaningful line, so later lines win.
func FindLast(transcript string) *Footer {
	lines := strings.Split(transcript, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if f := Parse(lines[i]); f != nil {
			return f
		}
	}
	return nil
}
