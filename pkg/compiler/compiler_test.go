package compiler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

type schemaDocument struct {
	Tools []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		InputSchema struct {
			Type       string                    `json:"type"`
			Properties map[string]map[string]any `json:"properties"`
			Required   []string                  `json:"required"`
		} `json:"input_schema"`
	} `json:"tools"`
}

func newSkillDir(t *testing.T, doc string, tools map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	manifest := skill.NewManifest("credit_risk", "tester", "finance")
	require.NoError(t, manifest.Save(dir))

	if doc == "" {
		doc = "# Credit Risk\n\n## Role\n\nEvaluates applicants.\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.DocumentFileName), []byte(doc), 0o644))

	require.NoError(t, os.Mkdir(filepath.Join(dir, skill.ToolsDirName), 0o755))
	for name, content := range tools {
		require.NoError(t, os.WriteFile(filepath.Join(dir, skill.ToolsDirName, name), []byte(content), 0o644))
	}
	return dir
}

func readSchema(t *testing.T, dir string) ([]byte, schemaDocument) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, skill.SchemaFileName))
	require.NoError(t, err)
	var doc schemaDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	return data, doc
}

func TestCompileProducesToolSchema(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"assess.py": `def assess(income: float, debt: float) -> bool:
    """Flags high-risk applicants"""
    return debt / income > 0.4
`,
	})

	out, err := New().Compile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"assess"}, out.ToolNames)
	assert.Empty(t, out.Warnings)

	data, doc := readSchema(t, dir)
	require.Len(t, doc.Tools, 1)

	tool := doc.Tools[0]
	assert.Equal(t, "assess", tool.Name)
	assert.Equal(t, "Flags high-risk applicants", tool.Description)
	assert.Equal(t, "object", tool.InputSchema.Type)
	assert.Equal(t, []string{"income", "debt"}, tool.InputSchema.Required)
	require.Contains(t, tool.InputSchema.Properties, "income")
	require.Contains(t, tool.InputSchema.Properties, "debt")
	assert.Equal(t, "number", tool.InputSchema.Properties["income"]["type"])
	assert.Equal(t, "number", tool.InputSchema.Properties["debt"]["type"])

	// properties stay in declaration order
	assert.Less(t, strings.Index(string(data), `"income"`), strings.Index(string(data), `"debt"`))
	assert.True(t, strings.HasSuffix(string(data), "\n"))

	// the manifest tool list is synced with the compiled schema
	manifest, err := skill.LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"assess"}, manifest.Tools)
}

func TestCompileIsByteDeterministic(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"assess.py": `def assess(income: float, debt: float) -> bool:
    """Flags high-risk applicants"""
    return debt / income > 0.4
`,
		"limits.py": `def check_limit(amount: float, tier: str = "standard") -> bool:
    """Checks an amount against the tier limit"""
    return amount < 10000
`,
	})

	c := New()
	_, err := c.Compile(context.Background(), dir)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, skill.SchemaFileName))
	require.NoError(t, err)

	_, err = c.Compile(context.Background(), dir)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, skill.SchemaFileName))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompileOrdersFilesByName(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"b_second.py": "def second(x: int):\n    pass\n",
		"a_first.py":  "def first(x: int):\n    pass\n",
	})

	out, err := New().Compile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, out.ToolNames)
}

func TestCompileEmptyToolsDir(t *testing.T) {
	dir := newSkillDir(t, "", nil)

	out, err := New().Compile(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, out.ToolNames)

	data, doc := readSchema(t, dir)
	assert.Empty(t, doc.Tools)
	assert.Contains(t, string(data), `"tools": []`)
}

func TestCompileSkipsUnderscoreAndHiddenFiles(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"__init__.py": "def should_not_appear(x: int):\n    pass\n",
		".hidden.py":  "def also_hidden(x: int):\n    pass\n",
		"tool.py":     "def visible(x: int):\n    pass\n",
		"notes.txt":   "not python",
	})

	out, err := New().Compile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"visible"}, out.ToolNames)
}

func TestCompileDuplicateNameFailsWithoutOutput(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"a.py": "def assess(x: int):\n    pass\n",
		"b.py": "def assess(y: int):\n    pass\n",
	})

	_, err := New().Compile(context.Background(), dir)
	require.Error(t, err)

	var dupErr *DuplicateNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "assess", dupErr.Name)
	assert.Contains(t, dupErr.First, "a.py:1")
	assert.Contains(t, dupErr.Second, "b.py:1")

	_, statErr := os.Stat(filepath.Join(dir, skill.SchemaFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompileNameLengthLimit(t *testing.T) {
	long := strings.Repeat("a", 70)
	dir := newSkillDir(t, "", map[string]string{
		"tool.py": "def " + long + "(x: int):\n    pass\n",
	})

	_, err := New().Compile(context.Background(), dir)
	require.Error(t, err)

	var nameErr *NamingError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, long, nameErr.Name)

	_, statErr := os.Stat(filepath.Join(dir, skill.SchemaFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompileParseErrorCollectsAllFiles(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"broken.py":      "def broken(a, b)\n    pass\n",
		"also_broken.py": "def nope(a: int,\n    pass\n",
		"fine.py":        "def fine(x: int):\n    pass\n",
	})

	_, err := New().Compile(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.py")
	assert.Contains(t, err.Error(), "also_broken.py")

	_, statErr := os.Stat(filepath.Join(dir, skill.SchemaFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompileDocumentSectionOverridesSummary(t *testing.T) {
	doc := `# Credit Risk

## assess

Scores an applicant against the bank's risk appetite.
`
	dir := newSkillDir(t, doc, map[string]string{
		"assess.py": `def assess(income: float) -> bool:
    """Flags high-risk applicants"""
    return True
`,
	})

	out, err := New().Compile(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, out.Document.Tools, 1)
	assert.Equal(t, "Scores an applicant against the bank's risk appetite.", out.Document.Tools[0].Description)
}

func TestCompileManifestCorrespondenceWarning(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"tool.py": "def present(x: int):\n    pass\n",
	})
	manifest, err := skill.LoadManifest(dir)
	require.NoError(t, err)
	manifest.Tools = []string{"present", "ghost_procedure"}
	require.NoError(t, manifest.Save(dir))

	out, err := New().Compile(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "ghost_procedure")
}

func TestCompileMissingLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, skill.NewManifest("x", "", "").Save(dir))

	_, err := New().Compile(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), skill.DocumentFileName)
}

func TestCompileTimeout(t *testing.T) {
	dir := newSkillDir(t, "", map[string]string{
		"tool.py": "def f(x: int):\n    pass\n",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := New().Compile(ctx, dir)
	require.Error(t, err)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, dir, timeoutErr.Dir)
}
