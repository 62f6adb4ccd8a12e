package guardrails

import (
	"testing"

	"github.com/example/t2p/internal/ports/secondary"
)

func TestMatchesDenyGlob(t *testing.T) {
	deny := []string{".github/workflows/**", "migrations/**"}

	cases := []struct {
		path string
		want bool
	}{
		{".github/workflows/ci.yml", true},
		{"migrations/001.sql", true},
		{"migrations/2024/001.sql", true},
		{"src/app.py", false},
		{"src/migrations.py", false},
	}
	for _, tc := range cases {
		if got := MatchesDenyGlob(tc.path, deny); got != tc.want {
			t.Errorf("MatchesDenyGlob(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestMatchesDenyGlobBasename(t *testing.T) {
	if !MatchesDenyGlob("migrations/001.sql", []string{"*.sql"}) {
		t.Error("bare pattern should match against the basename")
	}
	if MatchesDenyGlob("src/app.py", []string{"*.sql"}) {
		t.Error("*.sql must not match app.py")
	}
}

func TestCheckDenyGlobs(t *testing.T) {
	ok, blocked := CheckDenyGlobs(
		[]string{"migrations/001.sql", "src/app.py"},
		[]string{"migrations/**"},
	)
	if ok {
		t.Error("expected violation")
	}
	if len(blocked) != 1 || blocked[0] != "migrations/001.sql" {
		t.Errorf("blocked = %v", blocked)
	}

	ok, blocked = CheckDenyGlobs([]string{"src/app.py"}, []string{"migrations/**"})
	if !ok || len(blocked) != 0 {
		t.Errorf("expected pass, got blocked=%v", blocked)
	}
}

func TestCheckDiffLimitsFileCountExceeded(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}
	stats := []secondary.DiffStat{
		{Added: 5, Removed: 5, Path: "a"},
		{Added: 10, Removed: 0, Path: "b"},
		{Added: 10, Removed: 10, Path: "c"},
		{Added: 5, Removed: 0, Path: "d"},
		{Added: 5, Removed: 0, Path: "e"},
	}

	ok, fileCount, lineCount := CheckDiffLimits(files, stats, 3, 1000)
	if ok {
		t.Error("expected violation on file count")
	}
	if fileCount != 5 {
		t.Errorf("fileCount = %d, want 5", fileCount)
	}
	if lineCount != 50 {
		t.Errorf("lineCount = %d, want 50", lineCount)
	}
}

func TestCheckDiffLimitsLineCountExceeded(t *testing.T) {
	files := []string{"a"}
	stats := []secondary.DiffStat{{Added: 900, Removed: 200, Path: "a"}}

	ok, fileCount, lineCount := CheckDiffLimits(files, stats, 40, 1000)
	if ok {
		t.Error("expected violation on line count")
	}
	if fileCount != 1 || lineCount != 1100 {
		t.Errorf("counts = (%d, %d)", fileCount, lineCount)
	}
}

func TestCheckDiffLimitsWithinBudget(t *testing.T) {
	ok, files, lines := CheckDiffLimits(
		[]string{"a", "b"},
		[]secondary.DiffStat{{Added: 3, Removed: 1, Path: "a"}, {Added: 2, Removed: 0, Path: "b"}},
		40, 2000,
	)
	if !ok || files != 2 || lines != 6 {
		t.Errorf("got (%v, %d, %d)", ok, files, lines)
	}
}

func TestDenylistOK(t *testing.T) {
	commands := []string{"git fetch --all", "git push --force origin main"}

	if DenylistOK(commands, []string{"push --force"}) {
		t.Error("expected denylist hit on push --force")
	}
	if !DenylistOK(commands, []string{"rm -rf"}) {
		t.Error("expected pass when no denied substring present")
	}
	if !DenylistOK(commands, nil) {
		t.Error("empty denylist must always pass")
	}
}
