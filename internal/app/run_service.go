// Package app contains the application services driving the run pipeline.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/t2p/internal/config"
	"github.com/example/t2p/internal/core/footer"
	"github.com/example/t2p/internal/core/guardrails"
	"github.com/example/t2p/internal/core/mapping"
	"github.com/example/t2p/internal/core/runerr"
	"github.com/example/t2p/internal/core/ticket"
	"github.com/example/t2p/internal/ports/primary"
	"github.com/example/t2p/internal/ports/secondary"
)

const branchSlugLen = 50

// RunService implements the primary RunOrchestrator port: it turns one
// ticket into one pull request, with all safety gates in between.
type RunService struct {
	cfg       *config.Config
	store     secondary.StateStore
	tracker   secondary.TrackerClient
	git       secondary.GitClient
	shell     secondary.CommandRunner
	agent     secondary.AgentRunner
	prs       secondary.PRHost
	artifacts secondary.ArtifactStore
	locks     *LockService

	// newRunID is swappable in tests.
	newRunID func() string
}

// NewRunService wires the pipeline from its ports.
func NewRunService(
	cfg *config.Config,
	store secondary.StateStore,
	tracker secondary.TrackerClient,
	git secondary.GitClient,
	shell secondary.CommandRunner,
	agent secondary.AgentRunner,
	prs secondary.PRHost,
	artifacts secondary.ArtifactStore,
) *RunService {
	return &RunService{
		cfg:       cfg,
		store:     store,
		tracker:   tracker,
		git:       git,
		shell:     shell,
		agent:     agent,
		prs:       prs,
		artifacts: artifacts,
		locks:     NewLockService(store),
		newRunID:  uuid.NewString,
	}
}

// runState accumulates what the pipeline learns about a run, so the
// terminal persistence writes the same values on success and failure.
type runState struct {
	key       string
	runID     string
	repo      string
	repoPath  string
	branch    string
	base      string
	dir       string
	testCmd   string
	commands  []string
	footer    *footer.Footer
	agentExit *int
	runAdded  bool
	audit     *AuditLogger
	dedupedPR bool
}

// Run executes the full pipeline for one ticket key. On success the PR URL
// is returned; failures carry their classification so callers derive the
// ticket status and exit code mechanically.
func (s *RunService) Run(ctx context.Context, ticketKey string, opts primary.RunOptions) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(ticketKey))
	if key == "" {
		return "", runerr.Failed("empty ticket key", nil)
	}

	existing, err := s.store.GetTicket(ctx, key)
	if err != nil {
		return "", runerr.Failed("state store unavailable", err)
	}
	if existing != nil && !opts.Rerun && existing.PRURL != "" &&
		(existing.Status == secondary.StatusPROpened || existing.Status == secondary.StatusDone) {
		return existing.PRURL, nil
	}

	issues, err := s.tracker.Search(fmt.Sprintf("key = %s", key), s.cfg.Jira.Fields, 1)
	if err != nil {
		return "", runerr.Failed("ticket lookup failed", err)
	}
	if len(issues) == 0 {
		return "", runerr.Failed(fmt.Sprintf("ticket %s not found", key), nil)
	}
	issue := issues[0]

	st := &runState{key: key, runID: s.newRunID()}

	if !opts.Force && !ticket.HasRequiredFields(issue.Fields) {
		rerr := runerr.NeedsHuman("Missing summary/description")
		s.persistFailure(ctx, st, rerr)
		return "", rerr
	}

	st.repo = s.resolveRepo(issue)
	if st.repo == "" || !s.repoAllowed(st.repo) {
		rerr := runerr.NeedsHuman("Repo mapping ambiguous or not allowed")
		s.persistFailure(ctx, st, rerr)
		return "", rerr
	}

	acquired, holder, err := s.locks.Acquire(ctx, st.repo, st.runID)
	if err != nil {
		return "", runerr.Failed("state store unavailable", err)
	}
	if !acquired {
		// Transient: not persisted as a ticket failure.
		return "", runerr.Busy(st.repo, holder)
	}

	// The lock is held from here on. A panic anywhere in the pipeline must
	// still leave a terminal trail and free the repo, so the cleanup is
	// scoped to the acquisition rather than to the happy path.
	defer func() {
		if r := recover(); r != nil {
			rerr := runerr.Failed(fmt.Sprintf("pipeline panic: %v", r), nil)
			s.persistFailure(ctx, st, rerr)
			s.locks.Release(ctx, st.repo)
			AppLog("run %s ticket=%s finished status=%s: %v", st.runID, st.key, runerr.TicketStatus(rerr), rerr)
			panic(r)
		}
	}()

	AppLog("run %s ticket=%s repo=%s started", st.runID, st.key, st.repo)
	prURL, err := s.execute(ctx, st, issue, opts)
	if err != nil {
		s.persistFailure(ctx, st, err)
		AppLog("run %s ticket=%s finished status=%s: %v", st.runID, st.key, runerr.TicketStatus(err), err)
	} else {
		s.persistSuccess(ctx, st, prURL)
		AppLog("run %s ticket=%s finished status=%s pr=%s", st.runID, st.key, secondary.StatusPROpened, prURL)
	}
	if lockErr := s.locks.Release(ctx, st.repo); lockErr != nil && err == nil {
		err = runerr.Failed("failed to release repo lock", lockErr)
	}
	if err != nil {
		return "", err
	}
	return prURL, nil
}

// execute runs everything between lock acquisition and terminal
// persistence. The caller owns the lock and the final store writes.
func (s *RunService) execute(ctx context.Context, st *runState, issue secondary.Issue, opts primary.RunOptions) (string, error) {
	gr := s.cfg.Guardrails

	st.repoPath = s.cfg.RepoPath(st.repo)
	if _, err := os.Stat(st.repoPath); err != nil {
		return "", runerr.Failed(fmt.Sprintf("repo path %s does not exist", st.repoPath), err)
	}

	st.testCmd = gr.TestCommand
	if st.testCmd == "auto" {
		detected, err := s.git.DetectTestCommand(st.repoPath)
		if err != nil {
			return "", runerr.Failed("test command detection failed", err)
		}
		st.testCmd = detected
	}
	if st.testCmd == "" && gr.RequireTests {
		return "", runerr.NeedsHuman("No test command configured or detected")
	}

	dir, err := s.artifacts.RunDir(st.key, st.runID)
	if err != nil {
		return "", runerr.Failed("failed to create artifacts directory", err)
	}
	st.dir = dir
	st.audit = NewAuditLogger(s.cfg.Audit, dir)
	st.audit.Event("run_started", map[string]any{"ticket": st.key, "run_id": st.runID, "repo": st.repo})

	title := ticket.Title(issue.Fields)
	description := ticket.Description(issue.Fields)
	st.branch = "t2p/" + st.key + "-" + ticket.Slug(title, branchSlugLen)

	if err := s.store.AddRun(ctx, &secondary.RunRecord{
		RunID:        st.runID,
		TicketKey:    st.key,
		Status:       secondary.StatusRunning,
		Repo:         st.repo,
		Branch:       st.branch,
		ArtifactsDir: st.dir,
	}); err != nil {
		return "", runerr.Failed("failed to record run", err)
	}
	st.runAdded = true
	if err := s.store.UpsertTicket(ctx, &secondary.TicketRecord{
		TicketKey: st.key,
		Status:    secondary.StatusRunning,
		Repo:      st.repo,
		Branch:    st.branch,
		LastRunID: st.runID,
	}); err != nil {
		return "", runerr.Failed("failed to record ticket", err)
	}

	s.artifacts.WriteJSON(st.dir, "ticket.json", map[string]any{"key": issue.Key, "fields": issue.Fields})

	if gr.RequireCleanWorktree {
		status, err := s.git.Status(st.repoPath)
		if err != nil {
			return "", runerr.Failed("git status failed", err)
		}
		s.artifacts.WriteFile(st.dir, "pre_git_status.txt", status)
		// The gate fires before any reset so human work in the tree is
		// never discarded.
		if status != "" && !opts.Force {
			return "", runerr.NeedsHuman("Worktree not clean")
		}
	}

	st.base = s.cfg.GitHub.DefaultBaseBranch
	if st.base == "auto" {
		detected, err := s.git.DetectDefaultBranch(st.repoPath)
		if err != nil {
			return "", runerr.Failed("default branch detection failed", err)
		}
		st.base = detected
		if st.base == "" {
			st.base = "main"
		}
	}

	if err := s.git.FetchAndResetToBase(st.repoPath, st.base); err != nil {
		return "", runerr.Failed("failed to reset to base branch", err)
	}
	if err := s.git.CreateOrResetBranch(st.repoPath, st.branch); err != nil {
		return "", runerr.Failed("failed to create working branch", err)
	}
	st.commands = append(st.commands,
		"git fetch --all",
		"git reset --hard origin/"+st.base,
		"git checkout -B "+st.branch,
	)
	if !guardrails.DenylistOK(st.commands, gr.CommandDenylist) {
		return "", runerr.NeedsHuman("Command denylist violation")
	}

	vars := map[string]string{
		"ticket_key":      st.key,
		"title":           title,
		"description":     description,
		"acceptance":      ticket.Acceptance(description),
		"repo_path":       st.repoPath,
		"base_branch":     st.base,
		"deny_globs":      strings.Join(gr.DenyGlobs, ", "),
		"max_files":       strconv.Itoa(gr.MaxFilesChanged),
		"max_lines":       strconv.Itoa(gr.MaxDiffLines),
		"test_command":    st.testCmd,
		"format_command":  gr.FormatCommand,
		"do_not_touch":    strings.Join(gr.DenyGlobs, "\n"),
		"notes_for_agent": "",
	}

	if err := s.agentLoop(st, vars, gr); err != nil {
		return "", err
	}

	changed, err := s.git.ChangedFiles(st.repoPath)
	if err != nil {
		return "", runerr.Failed("failed to list changed files", err)
	}
	if len(changed) == 0 {
		return "", runerr.NeedsHuman("Agent made no changes")
	}

	if ok, blocked := guardrails.CheckDenyGlobs(changed, gr.DenyGlobs); !ok {
		st.audit.Event("guardrail_violation", map[string]any{"kind": "deny_glob", "paths": blocked})
		return "", runerr.NeedsHuman("Deny glob violation: " + strings.Join(blocked, ", "))
	}
	stats, err := s.git.DiffStats(st.repoPath)
	if err != nil {
		return "", runerr.Failed("failed to compute diff stats", err)
	}
	if ok, files, lines := guardrails.CheckDiffLimits(changed, stats, gr.MaxFilesChanged, gr.MaxDiffLines); !ok {
		st.audit.Event("guardrail_violation", map[string]any{"kind": "diff_limits", "files": files, "lines": lines})
		return "", runerr.NeedsHuman(fmt.Sprintf("Diff limits exceeded: %d files, %d lines", files, lines))
	}
	st.audit.Event("guardrails_passed", map[string]any{"files": len(changed)})

	postStatus, err := s.git.Status(st.repoPath)
	if err == nil {
		s.artifacts.WriteFile(st.dir, "post_git_status.txt", postStatus)
	}
	if diff, err := s.git.FullDiff(st.repoPath); err == nil {
		s.artifacts.WriteFile(st.dir, "diff.patch", diff)
	}
	s.artifacts.WriteJSON(st.dir, "commands.json", st.commands)

	// Dedup before creating anything remote.
	if url, err := s.findExistingPR(st); err != nil {
		return "", err
	} else if url != "" {
		st.dedupedPR = true
		st.audit.Event("pr_adopted", map[string]any{"url": url})
		return url, nil
	}

	commitMessage := st.footer.CommitMessage
	if commitMessage == "" {
		commitMessage = fmt.Sprintf("[%s] %s", st.key, title)
	}
	if err := s.git.CommitAll(st.repoPath, commitMessage); err != nil {
		return "", runerr.Failed("failed to commit changes", err)
	}
	if err := s.git.Push(st.repoPath, st.branch); err != nil {
		return "", runerr.Failed("failed to push branch", err)
	}

	url, err := s.prs.CreatePR(secondary.CreatePRRequest{
		Repo:      st.repo,
		Title:     fmt.Sprintf("[%s] %s", st.key, title),
		Body:      prBody(st.footer),
		Base:      st.base,
		Head:      st.branch,
		Draft:     s.cfg.GitHub.DraftPR,
		Reviewers: s.cfg.GitHub.Reviewers,
		Labels:    s.cfg.GitHub.Labels,
	})
	if err != nil {
		return "", runerr.Failed("failed to create PR", err)
	}
	st.audit.Event("pr_opened", map[string]any{"url": url})

	if s.cfg.Jira.CommentOnPR && !opts.NoComment {
		// Comment failure never fails the run; the PR already exists.
		if err := s.tracker.AddComment(st.key, "PR opened: "+url); err != nil {
			st.audit.Event("comment_failed", map[string]any{"error": err.Error()})
		}
	}

	s.artifacts.WriteJSON(st.dir, "pr.json", map[string]any{
		"url": url, "base": st.base, "head": st.branch, "draft": s.cfg.GitHub.DraftPR,
	})
	return url, nil
}

// agentLoop invokes the agent, then (when tests are required) runs the test
// command and re-invokes the agent with an explicit retry hint until the
// tests pass or the fix budget is exhausted.
func (s *RunService) agentLoop(st *runState, vars map[string]string, gr config.GuardrailsConfig) error {
	attempts := 0
	for {
		result, err := s.agent.Invoke(secondary.InvokeRequest{
			Command:        s.cfg.Agent.Command,
			RepoPath:       st.repoPath,
			PromptVars:     vars,
			Timeout:        time.Duration(s.cfg.Agent.TimeoutMinutes) * time.Minute,
			TranscriptPath: filepath.Join(st.dir, "agent_transcript.log"),
			TemplatePath:   s.cfg.Agent.PromptTemplatePath,
		})
		if err != nil {
			return runerr.Failed("agent invocation failed", err)
		}
		exit := result.ExitCode
		st.agentExit = &exit
		st.commands = append(st.commands, s.cfg.Agent.Command)
		st.audit.Event("agent_finished", map[string]any{"exit_code": exit, "attempt": attempts})

		if result.Footer == nil {
			return runerr.NeedsHuman("Agent contract missing footer")
		}
		if result.Footer.Decision == "abort" {
			reason := result.Footer.BlockingReason
			if reason == "" {
				reason = "no reason given"
			}
			return runerr.NeedsHuman("Agent aborted: " + reason)
		}
		st.footer = result.Footer

		if gr.FormatCommand != "" {
			res, err := s.shell.Run(st.repoPath, gr.FormatCommand)
			if err != nil {
				return runerr.Failed("format command failed to run", err)
			}
			s.artifacts.WriteFile(st.dir, "format_output.log", res.Stdout+"\n"+res.Stderr)
			st.commands = append(st.commands, gr.FormatCommand)
			if !guardrails.DenylistOK(st.commands, gr.CommandDenylist) {
				return runerr.NeedsHuman("Command denylist violation")
			}
		}

		if !gr.RequireTests || st.testCmd == "" {
			return nil
		}
		res, err := s.shell.Run(st.repoPath, st.testCmd)
		if err != nil {
			return runerr.Failed("test command failed to run", err)
		}
		s.artifacts.WriteFile(st.dir, "test_output.log", res.Stdout+"\n"+res.Stderr)
		st.commands = append(st.commands, st.testCmd)
		if !guardrails.DenylistOK(st.commands, gr.CommandDenylist) {
			return runerr.NeedsHuman("Command denylist violation")
		}
		st.audit.Event("tests_run", map[string]any{"exit_code": res.ExitCode, "attempt": attempts})
		if res.ExitCode == 0 {
			return nil
		}

		attempts++
		if attempts > gr.MaxFixAttempts {
			return runerr.NeedsHuman("Tests failed")
		}
		vars["notes_for_agent"] = "Tests failed; please fix and re-run tests.\n\n" + tail(res.Stdout+"\n"+res.Stderr, 2000)
	}
}

// findExistingPR checks for a PR this run should adopt instead of opening a
// duplicate: first by head branch if the branch already exists on the
// remote, then by ticket key mentioned in open PRs.
func (s *RunService) findExistingPR(st *runState) (string, error) {
	exists, err := s.git.RemoteBranchExists(st.repoPath, st.branch)
	if err != nil {
		return "", runerr.Failed("remote branch check failed", err)
	}
	if exists {
		url, err := s.prs.FindPRByBranch(st.repo, st.branch)
		if err != nil {
			return "", runerr.Failed("PR lookup by branch failed", err)
		}
		if url != "" {
			return url, nil
		}
	}
	url, err := s.prs.FindPRByKeyword(st.repo, st.key)
	if err != nil {
		return "", runerr.Failed("PR lookup by keyword failed", err)
	}
	return url, nil
}

// resolveRepo applies explicit mapping rules, then content inference, then
// the single-repo convenience fallback.
func (s *RunService) resolveRepo(issue secondary.Issue) string {
	ws := s.cfg.Workspace
	if repo := mapping.MapRepo(issue.Fields, ws.RepoMapping); repo != "" {
		return repo
	}
	if ws.RepoInference.Enabled {
		if repo := mapping.InferRepo(issue.Fields, s.cfg.WorkspaceRoot(), ws.RepoAllowlist, ws.RepoInference); repo != "" {
			return repo
		}
	}
	if ws.SingleRepoOnly && len(ws.RepoAllowlist) == 1 {
		return ws.RepoAllowlist[0]
	}
	return ""
}

// repoAllowed enforces the allowlist; an empty allowlist allows any repo.
func (s *RunService) repoAllowed(repo string) bool {
	if len(s.cfg.Workspace.RepoAllowlist) == 0 {
		return true
	}
	for _, allowed := range s.cfg.Workspace.RepoAllowlist {
		if allowed == repo {
			return true
		}
	}
	return false
}

// persistFailure records the terminal state of a failed run. Busy is
// transient and deliberately leaves no trace on the ticket.
func (s *RunService) persistFailure(ctx context.Context, st *runState, runErr error) {
	if runerr.KindOf(runErr) == runerr.KindBusy {
		return
	}
	status := runerr.TicketStatus(runErr)
	if st.runAdded {
		s.store.FinishRun(ctx, st.runID, status, "", st.agentExit)
	}
	s.store.UpsertTicket(ctx, &secondary.TicketRecord{
		TicketKey: st.key,
		Status:    status,
		Repo:      st.repo,
		Branch:    st.branch,
		LastRunID: st.runID,
		LastError: runErr.Error(),
	})
	if st.audit != nil {
		st.audit.Event("run_finished", map[string]any{"status": status, "error": runErr.Error()})
	}
}

func (s *RunService) persistSuccess(ctx context.Context, st *runState, prURL string) {
	if st.runAdded {
		s.store.FinishRun(ctx, st.runID, secondary.StatusPROpened, prURL, st.agentExit)
	}
	s.store.UpsertTicket(ctx, &secondary.TicketRecord{
		TicketKey: st.key,
		Status:    secondary.StatusPROpened,
		Repo:      st.repo,
		Branch:    st.branch,
		PRURL:     prURL,
		LastRunID: st.runID,
	})
	if st.dir != "" {
		s.artifacts.WriteJSON(st.dir, "summary.json", map[string]any{
			"ticket":       st.key,
			"run_id":       st.runID,
			"repo":         st.repo,
			"branch":       st.branch,
			"pr_url":       prURL,
			"deduplicated": st.dedupedPR,
		})
	}
	if st.audit != nil {
		st.audit.Event("run_finished", map[string]any{"status": secondary.StatusPROpened, "pr_url": prURL})
	}
}

// RunNext picks the first ticket from the configured query that has no
// recorded terminal or in-flight state and runs it.
func (s *RunService) RunNext(ctx context.Context, opts primary.RunOptions) (string, string, error) {
	issues, err := s.tracker.Search(s.cfg.Jira.JQL, s.cfg.Jira.Fields, 10)
	if err != nil {
		return "", "", runerr.Failed("ticket search failed", err)
	}
	for _, issue := range issues {
		rec, err := s.store.GetTicket(ctx, issue.Key)
		if err != nil {
			return "", "", runerr.Failed("state store unavailable", err)
		}
		if rec != nil {
			switch rec.Status {
			case secondary.StatusPROpened, secondary.StatusDone, secondary.StatusRunning:
				continue
			}
		}
		url, err := s.Run(ctx, issue.Key, opts)
		return issue.Key, url, err
	}
	return "", "", nil
}

// Scan lists tickets matching the configured query joined with their
// locally persisted status.
func (s *RunService) Scan(ctx context.Context, limit int) ([]primary.ScanItem, error) {
	if limit <= 0 {
		limit = 50
	}
	issues, err := s.tracker.Search(s.cfg.Jira.JQL, s.cfg.Jira.Fields, limit)
	if err != nil {
		return nil, runerr.Failed("ticket search failed", err)
	}

	items := make([]primary.ScanItem, 0, len(issues))
	for _, issue := range issues {
		item := primary.ScanItem{Key: issue.Key, Title: ticket.Title(issue.Fields), Status: "NEW"}
		rec, err := s.store.GetTicket(ctx, issue.Key)
		if err != nil {
			return nil, runerr.Failed("state store unavailable", err)
		}
		if rec != nil {
			item.Status = rec.Status
			item.PRURL = rec.PRURL
		}
		items = append(items, item)
	}
	return items, nil
}

// prBody renders the PR description from the agent's result footer.
func prBody(f *footer.Footer) string {
	var sb strings.Builder
	sb.WriteString("## Summary\n")
	sb.WriteString(f.Summary + "\n")

	if len(f.Changes) > 0 {
		sb.WriteString("\n## Changes\n")
		for _, change := range f.Changes {
			sb.WriteString("- " + change + "\n")
		}
	}

	sb.WriteString("\n## How to Test\n")
	if f.Tests.Command != "" {
		sb.WriteString(fmt.Sprintf("`%s` -> %s\n", f.Tests.Command, f.Tests.Result))
	}
	if f.Tests.Notes != "" {
		sb.WriteString(f.Tests.Notes + "\n")
	}

	if f.Risk != "" {
		sb.WriteString("\n## Risk / Rollout Notes\n")
		sb.WriteString(f.Risk + "\n")
	}
	if f.NotesForReviewer != "" {
		sb.WriteString("\n## Notes for Reviewer\n")
		sb.WriteString(f.NotesForReviewer + "\n")
	}
	return sb.String()
}

// tail returns the last n bytes of s, for bounded retry hints.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Ensure RunService implements the primary port
var _ primary.RunOrchestrator = (*RunService)(nil)
