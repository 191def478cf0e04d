package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillmaker-ai/skillmaker/pkg/compiler"
	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

func TestCreate(t *testing.T) {
	root := t.TempDir()

	dir, err := Create(root, "credit_risk", Options{Author: "alex", Industry: "finance"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "credit_risk"), dir)

	require.NoError(t, skill.ValidateLayout(dir))
	assert.FileExists(t, filepath.Join(dir, "tools", "__init__.py"))
	assert.FileExists(t, filepath.Join(dir, "tools", "example_tool.py"))
	assert.FileExists(t, filepath.Join(dir, "knowledge", "README.md"))

	manifest, err := skill.LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "credit_risk", manifest.Name)
	assert.Equal(t, "0.1.0", manifest.Version)
	assert.Equal(t, "alex", manifest.Author)
	assert.Equal(t, "finance", manifest.Industry)

	doc, err := skill.LoadDocument(dir)
	require.NoError(t, err)
	assert.Equal(t, "credit_risk", doc.Meta.Name)
	assert.Equal(t, "credit_risk", doc.Title)

	headings := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	assert.Equal(t, []string{"Role", "Core Capabilities", "Decision Chain", "Constraints", "Output Format"}, headings)
}

func TestCreateRejectsExisting(t *testing.T) {
	root := t.TempDir()

	_, err := Create(root, "dup", Options{})
	require.NoError(t, err)

	_, err = Create(root, "dup", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateMakesRegistryRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "registry")

	dir, err := Create(root, "fresh", Options{})
	require.NoError(t, err)
	_, err = os.Stat(dir)
	require.NoError(t, err)
}

func TestScaffoldedPackageCompiles(t *testing.T) {
	root := t.TempDir()

	dir, err := Create(root, "fresh_skill", Options{})
	require.NoError(t, err)

	out, err := compiler.New().Compile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"run"}, out.ToolNames)
	assert.FileExists(t, out.SchemaPath)
}
