package interview

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillmaker-ai/skillmaker/pkg/llm"
	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

func newPackageDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, skill.NewManifest("credit_risk", "alex", "finance").Save(dir))
	return dir
}

func sampleTranscript() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleUser, Content: "Please begin the interview."},
		{Role: llm.RoleAssistant, Content: "What is the success criterion?"},
		{Role: llm.RoleUser, Content: "Default rate under two percent."},
	}
}

func TestGenerateWritesDocumentAndManifest(t *testing.T) {
	dir := newPackageDir(t)

	reply := skillMDStart + `
# Credit Risk

## Role

Conservative retail-bank credit analyst.

## Core Capabilities

- assess applicants against the debt-to-income ceiling
` + skillMDEnd + `
` + manifestJSONStart + `
{"description": "Evaluates retail credit applications", "tags": ["finance", "risk"]}
` + manifestJSONEnd

	client := &fakeClient{replies: []string{reply}}
	artifacts, err := NewGenerator(client).Generate(context.Background(), sampleTranscript(), dir)
	require.NoError(t, err)

	assert.Equal(t, "Evaluates retail credit applications", artifacts.Description)
	assert.Equal(t, []string{"finance", "risk"}, artifacts.Tags)

	data, err := os.ReadFile(artifacts.DocumentPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "name: credit_risk")
	assert.Contains(t, content, "description: Evaluates retail credit applications")
	assert.Contains(t, content, "## Core Capabilities")
	assert.NotContains(t, content, skillMDStart)

	doc, err := skill.LoadDocument(dir)
	require.NoError(t, err)
	assert.Equal(t, "credit_risk", doc.Meta.Name)

	manifest, err := skill.LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "Evaluates retail credit applications", manifest.Description)
	assert.Equal(t, []string{"finance", "risk"}, manifest.Tags)

	// the transcript is handed to the model with speaker labels
	require.Len(t, client.lastMessages, 1)
	assert.Contains(t, client.lastMessages[0].Content, "Interviewer: What is the success criterion?")
	assert.Contains(t, client.lastMessages[0].Content, "Expert: Default rate under two percent.")
}

func TestGenerateKeepsManifestWhenFragmentMissing(t *testing.T) {
	dir := newPackageDir(t)
	manifest, err := skill.LoadManifest(dir)
	require.NoError(t, err)
	manifest.Description = "original description"
	require.NoError(t, manifest.Save(dir))

	reply := skillMDStart + "\n# Doc\n\n## Role\n\nAnalyst.\n" + skillMDEnd
	client := &fakeClient{replies: []string{reply}}

	artifacts, err := NewGenerator(client).Generate(context.Background(), sampleTranscript(), dir)
	require.NoError(t, err)
	assert.Equal(t, "original description", artifacts.Description)

	reloaded, err := skill.LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "original description", reloaded.Description)
}

func TestGenerateMissingMarkers(t *testing.T) {
	dir := newPackageDir(t)
	client := &fakeClient{replies: []string{"no markers here"}}

	_, err := NewGenerator(client).Generate(context.Background(), sampleTranscript(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markers")

	// nothing is written on failure
	_, statErr := os.Stat(filepath.Join(dir, skill.DocumentFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateInvalidManifestFragment(t *testing.T) {
	dir := newPackageDir(t)
	reply := skillMDStart + "\n# Doc\n" + skillMDEnd + manifestJSONStart + "{broken" + manifestJSONEnd
	client := &fakeClient{replies: []string{reply}}

	_, err := NewGenerator(client).Generate(context.Background(), sampleTranscript(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest fragment")
}

func TestGenerateRejectsShortTranscript(t *testing.T) {
	dir := newPackageDir(t)
	client := &fakeClient{}

	_, err := NewGenerator(client).Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}
