// Package skill defines the on-disk skill package model: the manifest, the
// standard directory layout and the SKILL.md capability document. A skill
// package is a directory bundling metadata, a natural-language capability
// description, callable tool sources and optional reference documents.
package skill

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// ManifestFileName is the metadata record at the package root.
	ManifestFileName = "manifest.json"
	// DocumentFileName is the natural-language capability document.
	DocumentFileName = "SKILL.md"
	// ToolsDirName holds the callable tool source files.
	ToolsDirName = "tools"
	// KnowledgeDirName holds optional reference documents.
	KnowledgeDirName = "knowledge"
	// SchemaFileName is the compiled tool schema written by the compiler.
	SchemaFileName = "tools_schema.json"
)

// Manifest identifies a skill package within a registry.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Industry    string   `json:"industry"`
	Tags        []string `json:"tags"`
	Tools       []string `json:"tools"`
	Knowledge   []string `json:"knowledge"`
}

// NewManifest returns a manifest with the standard defaults for a freshly
// scaffolded package.
func NewManifest(name, author, industry string) *Manifest {
	return &Manifest{
		Name:      name,
		Version:   "0.1.0",
		Author:    author,
		Industry:  industry,
		Tags:      []string{},
		Tools:     []string{},
		Knowledge: []string{},
	}
}

// LoadManifest reads and decodes the manifest of the package at dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return &m, nil
}

// Save writes the manifest back to the package at dir. The write is atomic
// and the encoding is deterministic so that unchanged manifests stay
// byte-identical.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	data = append(data, '\n')

	path := filepath.Join(dir, ManifestFileName)
	return WriteFileAtomic(path, data, 0o644)
}

// ValidateLayout checks that dir is a skill package: it must contain
// manifest.json, SKILL.md and a tools/ directory. knowledge/ is optional.
func ValidateLayout(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.Errorf("skill directory %q does not exist", dir)
	}

	for _, name := range []string{ManifestFileName, DocumentFileName} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return errors.Errorf("skill directory %q is missing %s", dir, name)
		}
	}

	toolsDir := filepath.Join(dir, ToolsDirName)
	if info, err := os.Stat(toolsDir); err != nil || !info.IsDir() {
		return errors.Errorf("skill directory %q is missing %s/", dir, ToolsDirName)
	}

	return nil
}

// WriteFileAtomic writes data to path by way of a temporary file in the same
// directory followed by a rename, so an interrupted write never leaves a
// half-written file behind.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to close %s", tmpName)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to chmod %s", tmpName)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to rename %s to %s", tmpName, path)
	}
	return nil
}
