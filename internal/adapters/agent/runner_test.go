package agent

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/example/t2p/internal/ports/secondary"
)

// writeScript creates an executable fake agent. It receives "--print
// <prompt>" like the real one and may ignore both.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func baseRequest(t *testing.T, command string) secondary.InvokeRequest {
	t.Helper()
	return secondary.InvokeRequest{
		Command:        command,
		RepoPath:       t.TempDir(),
		PromptVars:     map[string]string{"ticket_key": "ABC-1"},
		Timeout:        5 * time.Second,
		TranscriptPath: filepath.Join(t.TempDir(), "transcript.log"),
	}
}

func TestInvokeParsesLastFooter(t *testing.T) {
	script := writeScript(t, `
echo 'working...'
echo 'T2P_RESULT: {"decision":"abort","summary":"first"}'
echo 'T2P_RESULT: {"decision":"proceed","summary":"final"}'
`)
	r := NewRunner()

	result, err := r.Invoke(baseRequest(t, script))
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d", result.ExitCode)
	}
	if result.Footer == nil {
		t.Fatal("expected footer")
	}
	if result.Footer.Summary != "final" {
		t.Errorf("summary = %q, want the last marker line", result.Footer.Summary)
	}
}

func TestInvokeMissingFooter(t *testing.T) {
	script := writeScript(t, "echo 'did some work, forgot the footer'")
	r := NewRunner()

	result, err := r.Invoke(baseRequest(t, script))
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if result.Footer != nil {
		t.Errorf("expected no footer, got %+v", result.Footer)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d", result.ExitCode)
	}
}

func TestInvokePersistsTranscript(t *testing.T) {
	script := writeScript(t, "echo out-line\necho err-line >&2\nexit 3")
	r := NewRunner()
	req := baseRequest(t, script)

	result, err := r.Invoke(req)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}

	data, err := os.ReadFile(req.TranscriptPath)
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	if !strings.Contains(string(data), "out-line") || !strings.Contains(string(data), "err-line") {
		t.Errorf("transcript missing streams: %q", string(data))
	}
}

func TestInvokeTimeoutKillsProcessGroup(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "grandchild.pid")
	// The script spawns a grandchild and blocks; only a group kill reaps
	// the grandchild.
	script := writeScript(t, `
sleep 300 &
echo $! > `+pidFile+`
wait
`)

	r := &Runner{Grace: 200 * time.Millisecond}
	req := baseRequest(t, script)
	req.Timeout = 200 * time.Millisecond

	result, err := r.Invoke(req)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if result.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1 on timeout", result.ExitCode)
	}
	if result.Footer != nil {
		t.Error("timeout must not yield a footer")
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("grandchild pid not recorded: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("bad pid %q: %v", data, err)
	}

	// The whole group must be gone shortly after Invoke returns.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if syscall.Kill(pid, 0) != nil {
			break // ESRCH: grandchild reaped
		}
		if time.Now().After(deadline) {
			syscall.Kill(pid, syscall.SIGKILL)
			t.Fatal("grandchild still alive after timeout kill")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestInvokeBadCommand(t *testing.T) {
	r := NewRunner()
	req := baseRequest(t, filepath.Join(t.TempDir(), "does-not-exist"))

	if _, err := r.Invoke(req); err == nil {
		t.Error("expected error for unstartable command")
	}
}

func TestRenderPromptSubstitutesVars(t *testing.T) {
	vars := map[string]string{
		"ticket_key":      "ABC-1",
		"title":           "Fix timeout",
		"description":     "desc",
		"acceptance":      "crit",
		"repo_path":       "/srv/repo",
		"base_branch":     "main",
		"deny_globs":      "migrations/**",
		"max_files":       "40",
		"max_lines":       "2000",
		"test_command":    "pytest",
		"format_command":  "",
		"do_not_touch":    "migrations/**",
		"notes_for_agent": "",
	}

	prompt, err := renderPrompt("", vars)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(prompt, "Ticket: ABC-1") {
		t.Error("ticket key not substituted")
	}
	if !strings.Contains(prompt, "Base Branch: main") {
		t.Error("base branch not substituted")
	}
	if !strings.Contains(prompt, "T2P_RESULT: {{...json...}}") {
		t.Error("footer instruction must survive rendering")
	}
	if strings.Contains(prompt, "{title}") {
		t.Error("unsubstituted placeholder left behind")
	}
}

func TestRenderPromptCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("do {ticket_key} now"), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	prompt, err := renderPrompt(path, map[string]string{"ticket_key": "ABC-2"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if prompt != "do ABC-2 now" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestRenderPromptMissingTemplate(t *testing.T) {
	if _, err := renderPrompt(filepath.Join(t.TempDir(), "nope.txt"), nil); err == nil {
		t.Error("expected error for missing template file")
	}
}
