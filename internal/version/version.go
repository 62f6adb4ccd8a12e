// Package version carries the build metadata stamped into the binary.
package version

import "fmt"

// Stamped via -ldflags at release time; a plain `go build` keeps the
// defaults.
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String renders the line printed by `t2p --version`. Builds are tracked
// by commit hash, not semver.
func String() string {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("t2p %s (built %s)", commit, BuildTime)
}
