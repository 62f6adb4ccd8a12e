// Package ticket extracts well-known values from the tracker's opaque field
// payloads. Fields arrive as loosely-typed JSON of unknown shape; every
// helper fails soft (empty string) rather than erroring on odd shapes.
package ticket

import (
	"encoding/json"
	"strings"
)

// Title returns the ticket summary, or "" when absent.
func Title(fields map[string]any) string {
	if s, ok := fields["summary"].(string); ok {
		return s
	}
	return ""
}

// Description returns the ticket description. Rich-document descriptions
// (a map with a "content" key) are passed through as their JSON encoding so
// the agent still sees the full text.
func Description(fields map[string]any) string {
	switch desc := fields["description"].(type) {
	case string:
		return desc
	case map[string]any:
		if _, ok := desc["content"]; ok {
			if data, err := json.Marshal(desc); err == nil {
				return string(data)
			}
		}
	}
	return ""
}

// Acceptance returns everything after the "Acceptance Criteria" marker in
// the description, or "" when the marker is absent.
func Acceptance(description string) string {
	const marker = "Acceptance Criteria"
	if idx := strings.Index(description, marker); idx >= 0 {
		return strings.TrimSpace(description[idx+len(marker):])
	}
	return ""
}

// HasRequiredFields reports whether the ticket carries enough substance to
// hand to an agent: a summary and a description.
func HasRequiredFields(fields map[string]any) bool {
	return Title(fields) != "" && Description(fields) != ""
}

// Slug converts text into a branch-name-safe fragment: lowercase
// alphanumerics with runs of anything else collapsed to single hyphens.
func Slug(text string, maxLen int) string {
	var sb strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		case !lastHyphen && sb.Len() > 0:
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	return slug
}
