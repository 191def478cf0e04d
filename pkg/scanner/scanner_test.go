package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacySource = `import csv

THRESHOLD = 0.4


def load_rows(path):
    with open(path) as f:
        return list(csv.reader(f))


def evaluate_application(income, debt, age, history_years):
    if income <= 0:
        return "reject"
    ratio = debt / income
    if ratio > 0.4:
        return "reject"
    elif ratio > 0.3 and history_years < 2:
        return "review"
    if age < 21:
        return "review"
    return "approve"
`

func writeLegacy(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanFileFindsBusinessLogic(t *testing.T) {
	path := writeLegacy(t, t.TempDir(), "legacy.py", legacySource)

	suggestions, warnings, err := New().ScanFile(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, suggestions, 1)

	sg := suggestions[0]
	assert.Equal(t, "evaluate_application", sg.Name)
	assert.Equal(t, path, sg.File)
	assert.Equal(t, 11, sg.StartLine)
	assert.Equal(t, 21, sg.EndLine)
	assert.Contains(t, sg.Source, "def evaluate_application")
	assert.Contains(t, sg.Source, `return "approve"`)
	assert.Contains(t, sg.Reason, "branch")
}

func TestScanFileRespectsMinScore(t *testing.T) {
	path := writeLegacy(t, t.TempDir(), "legacy.py", legacySource)

	suggestions, _, err := New(WithMinScore(1)).ScanFile(path)
	require.NoError(t, err)
	// with the threshold lowered the plumbing function appears too
	assert.Len(t, suggestions, 2)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir, "pricing.py", legacySource)
	writeLegacy(t, dir, filepath.Join("nested", "limits.py"), legacySource)
	writeLegacy(t, dir, "notes.txt", "not python")

	suggestions, warnings, err := New().Scan(dir)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Len(t, suggestions, 2)
}

func TestScanGlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir, filepath.Join("src", "a.py"), legacySource)
	writeLegacy(t, dir, filepath.Join("src", "deep", "b.py"), legacySource)

	suggestions, _, err := New().Scan(filepath.Join(dir, "src", "**", "*.py"))
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestScanMissingPath(t *testing.T) {
	_, _, err := New().Scan(filepath.Join(t.TempDir(), "nope.py"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestScanFileUnparsableSource(t *testing.T) {
	path := writeLegacy(t, t.TempDir(), "broken.py", "def f(:\n") // unclosed paren

	suggestions, warnings, err := New().ScanFile(path)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "broken.py")
	assert.Contains(t, warnings[0], "file skipped")
}

func TestScanSkipsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir, "broken.py", "def f(:\n")
	writeLegacy(t, dir, "pricing.py", legacySource)

	suggestions, warnings, err := New().Scan(dir)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "evaluate_application", suggestions[0].Name)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "broken.py")
}
