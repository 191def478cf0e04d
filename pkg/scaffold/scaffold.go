// Package scaffold creates the standard skill package skeleton: manifest,
// SKILL.md template, tools/ with an example tool and a knowledge/ directory
// for reference documents.
package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

const skillTemplate = `# {{.Name}}

## Role
<!-- Describe the expert role this skill plays -->

## Core Capabilities
<!-- List the key capabilities of this skill -->

## Decision Chain
<!-- Describe the expert's reasoning and decision flow -->
1.
2.
3.

## Constraints
<!-- Define the boundaries and limits of this skill -->
-

## Output Format
<!-- Define the format and quality requirements of the output -->
`

const toolTemplate = `"""
Tool: {{.ToolName}}
Skill: {{.SkillName}}
"""


def run(**kwargs):
    """Tool entry point."""
    raise NotImplementedError("implement this tool")
`

const knowledgeReadme = `# Knowledge

Place reference documents for this skill in this directory (PDF, Excel, CSV, ...).
`

// frontmatter is the YAML header written at the top of a scaffolded SKILL.md.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Options configures package creation.
type Options struct {
	Author   string
	Industry string
}

// Create scaffolds a new skill package under root. It fails when the target
// directory already exists.
func Create(root, name string, opts Options) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create registry root %s", root)
	}

	dir := filepath.Join(root, name)
	if _, err := os.Stat(dir); err == nil {
		return "", errors.Errorf("skill package %q already exists at %s", name, dir)
	}

	for _, sub := range []string{skill.ToolsDirName, skill.KnowledgeDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return "", errors.Wrapf(err, "failed to create %s/", sub)
		}
	}

	manifest := skill.NewManifest(name, opts.Author, opts.Industry)
	if err := manifest.Save(dir); err != nil {
		return "", err
	}

	doc, err := renderDocument(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, skill.DocumentFileName), doc, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write SKILL.md")
	}

	tool, err := renderTemplate(toolTemplate, map[string]string{
		"ToolName":  "example_tool",
		"SkillName": name,
	})
	if err != nil {
		return "", err
	}

	toolsDir := filepath.Join(dir, skill.ToolsDirName)
	if err := os.WriteFile(filepath.Join(toolsDir, "__init__.py"), nil, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write __init__.py")
	}
	if err := os.WriteFile(filepath.Join(toolsDir, "example_tool.py"), tool, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write example tool")
	}

	readmePath := filepath.Join(dir, skill.KnowledgeDirName, "README.md")
	if err := os.WriteFile(readmePath, []byte(knowledgeReadme), 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write knowledge README")
	}

	return dir, nil
}

// renderDocument renders the SKILL.md template with its YAML frontmatter.
func renderDocument(name string) ([]byte, error) {
	meta, err := yaml.Marshal(frontmatter{
		Name:        name,
		Description: "TODO: one-line description of this skill",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frontmatter")
	}

	body, err := renderTemplate(skillTemplate, map[string]string{"Name": name})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

func renderTemplate(tmpl string, data any) ([]byte, error) {
	t, err := template.New("scaffold").Parse(tmpl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse template")
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "failed to render template")
	}
	return buf.Bytes(), nil
}
