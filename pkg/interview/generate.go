package interview

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/skillmaker-ai/skillmaker/pkg/llm"
	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

// Markers wrapping the two parts of the generator's reply.
const (
	skillMDStart      = "---SKILL_MD_START---"
	skillMDEnd        = "---SKILL_MD_END---"
	manifestJSONStart = "---MANIFEST_JSON_START---"
	manifestJSONEnd   = "---MANIFEST_JSON_END---"
)

const generationSystemPrompt = `You are a technical documentation expert. From the following interview transcript, generate two parts:

1. A structured SKILL.md body with these 5 sections:
   - Role
   - Core Capabilities
   - Decision Chain
   - Constraints
   - Output Format

2. A JSON object with "description" (one sentence describing the skill) and "tags" (a list of keyword tags).

Output format requirements:
- Wrap the markdown part in ` + skillMDStart + ` and ` + skillMDEnd + `
- Wrap the JSON part in ` + manifestJSONStart + ` and ` + manifestJSONEnd

// manifestUpdates is the metadata fragment produced by the generator.
type manifestUpdates struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Artifacts lists what Generate wrote.
type Artifacts struct {
	DocumentPath string
	ManifestPath string
	Description  string
	Tags         []string
}

// Generator turns an interview transcript into the package's SKILL.md and
// manifest metadata.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate renders the transcript into documents for the package at dir.
// The SKILL.md is written atomically with refreshed frontmatter; the
// manifest keeps its existing fields except description and tags.
func (g *Generator) Generate(ctx context.Context, transcript []llm.Message, dir string) (*Artifacts, error) {
	if len(transcript) < 2 {
		return nil, errors.New("interview transcript is too short to generate documents")
	}

	manifest, err := skill.LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	reply, err := g.client.Complete(ctx, generationSystemPrompt, []llm.Message{
		{Role: llm.RoleUser, Content: "Here is the interview transcript:\n\n" + formatTranscript(transcript)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "document generation failed")
	}

	body, ok := llm.ParseBetween(reply, skillMDStart, skillMDEnd)
	if !ok {
		return nil, errors.New("generator reply is missing the SKILL.md markers")
	}

	updates := manifestUpdates{Description: manifest.Description, Tags: manifest.Tags}
	if fragment, ok := llm.ParseBetween(reply, manifestJSONStart, manifestJSONEnd); ok {
		if err := json.Unmarshal([]byte(strings.TrimSpace(fragment)), &updates); err != nil {
			return nil, errors.Wrap(err, "generator produced an invalid manifest fragment")
		}
	}

	docPath := filepath.Join(dir, skill.DocumentFileName)
	doc, err := renderDocument(manifest.Name, updates.Description, strings.TrimSpace(body))
	if err != nil {
		return nil, err
	}
	if err := skill.WriteFileAtomic(docPath, doc, 0o644); err != nil {
		return nil, err
	}

	manifest.Description = updates.Description
	manifest.Tags = updates.Tags
	if err := manifest.Save(dir); err != nil {
		return nil, err
	}

	return &Artifacts{
		DocumentPath: docPath,
		ManifestPath: filepath.Join(dir, skill.ManifestFileName),
		Description:  updates.Description,
		Tags:         updates.Tags,
	}, nil
}

// formatTranscript renders the conversation as labeled plain text.
func formatTranscript(transcript []llm.Message) string {
	var sb strings.Builder
	for _, m := range transcript {
		label := "Expert"
		if m.Role == llm.RoleAssistant {
			label = "Interviewer"
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// renderDocument prepends YAML frontmatter to the generated body.
func renderDocument(name, description, body string) ([]byte, error) {
	meta, err := yaml.Marshal(struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}{Name: name, Description: description})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frontmatter")
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
