// Package guardrails holds the pure structural safety checks run after the
// agent has mutated the working tree and before any PR is created.
// Violations are never auto-corrected; callers surface them for a human.
package guardrails

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/example/t2p/internal/ports/secondary"
)

// MatchesDenyGlob reports whether the path matches any deny pattern.
// Patterns use shell globs with ** crossing directory separators; a bare
// pattern without a separator is also tried against the basename, so
// "*.sql" blocks "migrations/001.sql".
func MatchesDenyGlob(filePath string, denyGlobs []string) bool {
	for _, pattern := range denyGlobs {
		if ok, err := doublestar.Match(pattern, filePath); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, path.Base(filePath)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// CheckDenyGlobs evaluates every changed file against the deny patterns.
// Returns ok=false with the full list of blocked paths.
func CheckDenyGlobs(changedFiles, denyGlobs []string) (bool, []string) {
	var blocked []string
	for _, name := range changedFiles {
		if MatchesDenyGlob(name, denyGlobs) {
			blocked = append(blocked, name)
		}
	}
	return len(blocked) == 0, blocked
}

// CheckDiffLimits verifies the diff stays within the configured size.
// The line count is the sum of added+removed across all files; exceeding
// either the file ceiling or the line ceiling is a violation.
func CheckDiffLimits(changedFiles []string, stats []secondary.DiffStat, maxFiles, maxLines int) (bool, int, int) {
	lines := 0
	for _, s := range stats {
		lines += s.Added + s.Removed
	}
	files := len(changedFiles)
	if files > maxFiles || lines > maxLines {
		return false, files, lines
	}
	return true, files, lines
}

// DenylistOK reports whether the joined executed-command log is free of
// every denied substring. An empty denylist always passes.
func DenylistOK(commands, denylist []string) bool {
	if len(denylist) == 0 {
		return true
	}
	joined := strings.Join(commands, " ; ")
	for _, denied := range denylist {
		if strings.Contains(joined, denied) {
			return false
		}
	}
	return true
}
