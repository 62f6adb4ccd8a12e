package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/t2p/internal/config"
)

const (
	nameMatchBonus    = 2.0
	contentMatchBonus = 1.0
	minTokenLength    = 3
)

// InferRepo scores every candidate repository under rootDir against the
// ticket's summary and description and returns the single best match, or ""
// when inference is disabled, no repo clears min_score, or the top score is
// tied (a tie is ambiguous and never auto-resolved).
//
// Per token: matching the repo name earns nameMatchBonus, appearing in any
// scanned file earns contentMatchBonus. The scan is bounded by the
// configured file, byte and wall-clock caps so a huge workspace cannot
// stall a run.
func InferRepo(fields map[string]any, rootDir string, allowlist []string, cfg config.RepoInferenceConfig) string {
	if !cfg.Enabled {
		return ""
	}

	tokens := tokenize(fields, cfg.MaxTokens)
	if len(tokens) == 0 {
		return ""
	}

	candidates := listRepos(rootDir, allowlist, cfg.MaxRepos)
	if len(candidates) == 0 {
		return ""
	}

	deadline := time.Now().Add(time.Duration(cfg.MaxSeconds) * time.Second)
	totalFiles := 0

	best := ""
	bestScore, runnerUpScore := 0.0, 0.0

	for _, repo := range candidates {
		score := scoreRepo(repo, rootDir, tokens, cfg, deadline, &totalFiles)
		switch {
		case score > bestScore:
			runnerUpScore = bestScore
			best, bestScore = repo, score
		case score > runnerUpScore:
			runnerUpScore = score
		}
	}

	if bestScore < cfg.MinScore {
		return ""
	}
	if bestScore == runnerUpScore {
		// Two repos at the top score: ambiguous, needs a human.
		return ""
	}
	return best
}

// tokenize extracts lowercase alphanumeric tokens from the summary and
// description fields, deduplicated, capped at maxTokens.
func tokenize(fields map[string]any, maxTokens int) []string {
	text := strings.ToLower(Stringify(fields["summary"]) + " " + Stringify(fields["description"]))

	var tokens []string
	seen := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(tok) < minTokenLength || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
		if maxTokens > 0 && len(tokens) >= maxTokens {
			break
		}
	}
	return tokens
}

// listRepos finds git checkouts directly under rootDir. A non-empty
// allowlist restricts the candidate set.
func listRepos(rootDir string, allowlist []string, maxRepos int) []string {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil
	}

	allowed := make(map[string]bool, len(allowlist))
	for _, name := range allowlist {
		allowed[name] = true
	}

	var repos []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if len(allowlist) > 0 && !allowed[entry.Name()] {
			continue
		}
		if _, err := os.Stat(filepath.Join(rootDir, entry.Name(), ".git")); err != nil {
			continue
		}
		repos = append(repos, entry.Name())
		if maxRepos > 0 && len(repos) >= maxRepos {
			break
		}
	}
	return repos
}

func scoreRepo(repo, rootDir string, tokens []string, cfg config.RepoInferenceConfig, deadline time.Time, totalFiles *int) float64 {
	repoName := strings.ToLower(repo)
	content := readRepoContent(filepath.Join(rootDir, repo), cfg, deadline, totalFiles)

	score := 0.0
	for _, tok := range tokens {
		if strings.Contains(repoName, tok) {
			score += nameMatchBonus
		}
		if strings.Contains(content, tok) {
			score += contentMatchBonus
		}
	}
	return score
}

// readRepoContent concatenates (lowercased) the text of scanned files,
// honouring the ignore lists and the per-repo/total/byte/time budgets.
func readRepoContent(repoPath string, cfg config.RepoInferenceConfig, deadline time.Time, totalFiles *int) string {
	ignoreDirs := make(map[string]bool, len(cfg.IgnoreDirs))
	for _, d := range cfg.IgnoreDirs {
		ignoreDirs[d] = true
	}
	ignoreExts := make(map[string]bool, len(cfg.IgnoreExts))
	for _, e := range cfg.IgnoreExts {
		ignoreExts[strings.ToLower(e)] = true
	}

	var sb strings.Builder
	filesRead := 0

	filepath.WalkDir(repoPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if time.Now().After(deadline) {
			return filepath.SkipAll
		}
		if d.IsDir() {
			if ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if cfg.MaxFilesPerRepo > 0 && filesRead >= cfg.MaxFilesPerRepo {
			return filepath.SkipAll
		}
		if cfg.MaxTotalFiles > 0 && *totalFiles >= cfg.MaxTotalFiles {
			return filepath.SkipAll
		}
		if ignoreExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil || (cfg.MaxBytesPerFile > 0 && info.Size() > int64(cfg.MaxBytesPerFile)) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		filesRead++
		*totalFiles++
		sb.WriteString(strings.ToLower(string(data)))
		sb.WriteByte('\n')
		return nil
	})

	return sb.String()
}
