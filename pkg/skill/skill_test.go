package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundtrip(t *testing.T) {
	dir := t.TempDir()

	m := NewManifest("credit_risk", "alex", "finance")
	m.Description = "Credit risk evaluation"
	m.Tags = []string{"finance", "risk"}
	require.NoError(t, m.Save(dir))

	loaded, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
	assert.Equal(t, "0.1.0", loaded.Version)
}

func TestManifestSaveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest("x", "a", "finance")

	require.NoError(t, m.Save(dir))
	first, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	require.NoError(t, err)
	assert.True(t, len(first) > 0 && first[len(first)-1] == '\n')

	require.NoError(t, m.Save(dir))
	second, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadManifest(dir)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("{oops"), 0o644))
	_, err = LoadManifest(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestValidateLayout(t *testing.T) {
	dir := t.TempDir()

	err := ValidateLayout(filepath.Join(dir, "missing"))
	require.Error(t, err)

	require.NoError(t, NewManifest("x", "", "").Save(dir))
	err = ValidateLayout(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), DocumentFileName)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DocumentFileName), []byte("# X\n"), 0o644))
	err = ValidateLayout(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ToolsDirName)

	require.NoError(t, os.Mkdir(filepath.Join(dir, ToolsDirName), 0o755))
	assert.NoError(t, ValidateLayout(dir))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// no temporary files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}
