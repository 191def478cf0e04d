package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/skillmaker-ai/skillmaker/pkg/llm"
	"github.com/skillmaker-ai/skillmaker/pkg/logger"
	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

const (
	toolCodeStart = "---TOOL_CODE_START---"
	toolCodeEnd   = "---TOOL_CODE_END---"
	skillDocStart = "---SKILL_DOC_START---"
	skillDocEnd   = "---SKILL_DOC_END---"
)

const refactorSystemPrompt = `You are a senior engineer extracting business logic into a reusable skill tool.

You will be given a Python function lifted from a legacy codebase. Rewrite it as
a standalone tool module:

1. Keep the function's decision logic and thresholds exactly as written. Do not
   "improve" the business rules.
2. Give every parameter a type annotation and write a docstring with a one-line
   summary and a description for each parameter.
3. Remove dead code, module-level state and I/O side effects. The function must
   be pure: inputs in, result out.
4. After the code, write a single markdown bullet (one sentence, starting with
   "- ") describing the capability the tool provides, suitable for a skill
   document's capability list.

Respond with the rewritten module between ` + toolCodeStart + ` and ` + toolCodeEnd + `,
and the capability bullet between ` + skillDocStart + ` and ` + skillDocEnd + `.`

// Refactorer turns a scan suggestion into a tool inside a skill package.
type Refactorer struct {
	client llm.Client
}

// NewRefactorer creates a Refactorer backed by the given model client.
func NewRefactorer(client llm.Client) *Refactorer {
	return &Refactorer{client: client}
}

// Apply rewrites the suggested function into skillDir/tools/<name>.py, adds a
// capability bullet to SKILL.md and records the tool in the manifest.
func (r *Refactorer) Apply(ctx context.Context, skillDir string, suggestion Suggestion) (string, error) {
	log := logger.G(ctx).WithField("function", suggestion.Name)

	if err := skill.ValidateLayout(skillDir); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Function %s from %s (lines %d-%d):\n\n```python\n%s\n```",
		suggestion.Name, suggestion.File, suggestion.StartLine, suggestion.EndLine, suggestion.Source)

	response, err := r.client.Complete(ctx, refactorSystemPrompt, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", errors.Wrap(err, "refactor request failed")
	}

	code, ok := llm.ParseBetween(response, toolCodeStart, toolCodeEnd)
	if !ok {
		return "", errors.New("model response did not contain a tool code block")
	}
	code = strings.TrimSpace(code)
	code = strings.TrimPrefix(code, "```python\n")
	code = strings.TrimSuffix(code, "```")
	code = strings.TrimSpace(code) + "\n"

	toolPath := filepath.Join(skillDir, skill.ToolsDirName, suggestion.Name+".py")
	if err := skill.WriteFileAtomic(toolPath, []byte(code), 0o644); err != nil {
		return "", err
	}
	log.WithField("path", toolPath).Info("wrote extracted tool")

	if bullet, ok := llm.ParseBetween(response, skillDocStart, skillDocEnd); ok {
		if err := addCapability(skillDir, strings.TrimSpace(bullet)); err != nil {
			return toolPath, err
		}
	}

	if err := recordTool(skillDir, suggestion.Name); err != nil {
		return toolPath, err
	}
	return toolPath, nil
}

// addCapability inserts a bullet at the end of the "## Core Capabilities"
// section of SKILL.md, before the next "## " heading. If the section is
// missing the document is left untouched.
func addCapability(skillDir, bullet string) error {
	if !strings.HasPrefix(bullet, "- ") {
		bullet = "- " + bullet
	}

	docPath := filepath.Join(skillDir, skill.DocumentFileName)
	data, err := os.ReadFile(docPath)
	if err != nil {
		return errors.Wrap(err, "failed to read skill document")
	}

	lines := strings.Split(string(data), "\n")
	sectionAt := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "## ") && strings.Contains(line, "Core Capabilities") {
			sectionAt = i
			break
		}
	}
	if sectionAt == -1 {
		return nil
	}

	insertAt := len(lines)
	for i := sectionAt + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			insertAt = i
			break
		}
	}
	// back over trailing blank lines so the bullet joins the list
	for insertAt > sectionAt+1 && strings.TrimSpace(lines[insertAt-1]) == "" {
		insertAt--
	}

	updated := append(lines[:insertAt:insertAt], append([]string{bullet}, lines[insertAt:]...)...)
	return skill.WriteFileAtomic(docPath, []byte(strings.Join(updated, "\n")), 0o644)
}

func recordTool(skillDir, name string) error {
	manifest, err := skill.LoadManifest(skillDir)
	if err != nil {
		return err
	}
	for _, existing := range manifest.Tools {
		if existing == name {
			return nil
		}
	}
	manifest.Tools = append(manifest.Tools, name)
	return manifest.Save(skillDir)
}
