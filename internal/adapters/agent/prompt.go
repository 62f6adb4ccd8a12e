package agent

import (
	"fmt"
	"os"
	"strings"
)

// DefaultPrompt is the built-in prompt template. Placeholders are named
// {vars} substituted from the invocation's PromptVars.
const DefaultPrompt = `You are a headless coding agent.

Ticket: {ticket_key}
Title: {title}
Description:
{description}

Acceptance Criteria:
{acceptance}

Repo Path: {repo_path}
Base Branch: {base_branch}

Guardrails:
- deny globs: {deny_globs}
- max files changed: {max_files}
- max diff lines: {max_lines}
- test command: {test_command}
- format command: {format_command}

Do not touch:
{do_not_touch}

Instructions:
- Stay within repo.
- Minimal change bias.
- No dependency upgrades unless required for the ticket and small.
- Must add/update tests if change is logic.
- Must run the provided test command locally and report result in footer.
- Never open/merge PR yourself unless explicitly configured.
- If ambiguous requirements, choose safest interpretation and note it.

Required footer (single line):
T2P_RESULT: {{...json...}}

Additional notes:
{notes_for_agent}
`

// renderPrompt substitutes {name} placeholders from vars into the template.
// When templatePath is set the template file is used instead of the
// built-in one. The literal {{...json...}} in the default template survives
// because only configured variable names are replaced.
func renderPrompt(templatePath string, vars map[string]string) (string, error) {
	template := DefaultPrompt
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt template: %w", err)
		}
		template = string(data)
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}
