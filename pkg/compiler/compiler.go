// Package compiler turns a skill package into its compiled tool schema: it
// statically extracts procedure definitions from the tools/ sources, merges
// them with the SKILL.md capability document and writes a deterministic
// tools_schema.json in the Anthropic tool-use shape. The document is a
// derived artifact: recompiling unchanged inputs produces byte-identical
// output.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/skillmaker-ai/skillmaker/pkg/extractor"
	"github.com/skillmaker-ai/skillmaker/pkg/logger"
	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

const namePattern = `^[a-zA-Z_][a-zA-Z0-9_]{0,63}$`

var nameRe = regexp.MustCompile(namePattern)

// Tool is one compiled tool descriptor.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Document is the compiled tool schema document.
type Document struct {
	Tools []Tool `json:"tools"`
}

// Output describes a successful compilation of one package.
type Output struct {
	SchemaPath string
	Document   *Document
	ToolNames  []string
	Warnings   []string
}

// Compiler compiles skill packages. It is stateless across packages; each
// package's compilation is independent.
type Compiler struct {
	extractors *extractor.Registry
}

// New returns a compiler with the built-in signature extractors.
func New() *Compiler {
	return &Compiler{extractors: extractor.NewRegistry()}
}

// Compile compiles the skill package at dir, writing tools_schema.json at
// the package root and syncing the manifest's tools list. The context's
// deadline acts as the wall-clock ceiling.
func (c *Compiler) Compile(ctx context.Context, dir string) (*Output, error) {
	log := logger.G(ctx).WithField("skill_dir", dir)

	if err := ctxGuard(ctx, dir); err != nil {
		return nil, err
	}

	if err := skill.ValidateLayout(dir); err != nil {
		return nil, err
	}

	manifest, err := skill.LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	doc, err := skill.LoadDocument(dir)
	if err != nil {
		return nil, err
	}

	procs, warnings, err := c.extract(ctx, dir)
	if err != nil {
		return nil, err
	}
	log.WithField("procedures", len(procs)).Debug("extraction finished")

	tools, err := assemble(procs, doc)
	if err != nil {
		return nil, err
	}

	warnings = append(warnings, correspondenceWarnings(manifest, tools)...)

	if err := ctxGuard(ctx, dir); err != nil {
		return nil, err
	}

	schemaPath := filepath.Join(dir, skill.SchemaFileName)
	document := &Document{Tools: tools}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode tool schema")
	}
	data = append(data, '\n')

	if err := skill.WriteFileAtomic(schemaPath, data, 0o644); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	manifest.Tools = names
	if err := manifest.Save(dir); err != nil {
		return nil, err
	}

	log.WithField("tools", len(tools)).Debug("schema written")

	return &Output{
		SchemaPath: schemaPath,
		Document:   document,
		ToolNames:  names,
		Warnings:   warnings,
	}, nil
}

// extract runs the signature extractors over every recognized file under
// tools/, in sorted filename order. A file that fails to parse never stops
// extraction of the remaining files; all parse errors are collected and the
// package fails as a whole when any occurred.
func (c *Compiler) extract(ctx context.Context, dir string) ([]extractor.Procedure, []string, error) {
	toolsDir := filepath.Join(dir, skill.ToolsDirName)

	entries, err := os.ReadDir(toolsDir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read %s", toolsDir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		procs     []extractor.Procedure
		warnings  []string
		parseErrs *multierror.Error
	)

	for _, name := range names {
		if err := ctxGuard(ctx, dir); err != nil {
			return nil, warnings, err
		}

		path := filepath.Join(toolsDir, name)
		ext, ok := c.extractors.ForFile(path)
		if !ok {
			continue
		}

		fileProcs, fileWarnings, err := ext.Extract(path)
		for _, w := range fileWarnings {
			warnings = append(warnings, w.String())
		}
		if err != nil {
			parseErrs = multierror.Append(parseErrs, err)
			continue
		}
		procs = append(procs, fileProcs...)
	}

	if err := parseErrs.ErrorOrNil(); err != nil {
		return nil, warnings, err
	}
	return procs, warnings, nil
}

// assemble builds the ordered tool descriptors, enforcing the naming rule
// and the single-name-per-package invariant.
func assemble(procs []extractor.Procedure, doc *skill.Document) ([]Tool, error) {
	seen := make(map[string]extractor.Procedure)
	tools := make([]Tool, 0, len(procs))

	for _, proc := range procs {
		if !nameRe.MatchString(proc.Name) {
			return nil, &NamingError{Name: proc.Name, File: proc.File, Line: proc.Line}
		}
		if first, ok := seen[proc.Name]; ok {
			return nil, &DuplicateNameError{
				Name:   proc.Name,
				First:  fmt.Sprintf("%s:%d", first.File, first.Line),
				Second: fmt.Sprintf("%s:%d", proc.File, proc.Line),
			}
		}
		seen[proc.Name] = proc

		description := proc.Summary
		if sectionDesc, ok := doc.DescriptionFor(proc.Name); ok {
			description = sectionDesc
		}

		tools = append(tools, Tool{
			Name:        proc.Name,
			Description: description,
			InputSchema: inputSchema(proc),
		})
	}

	return tools, nil
}

// inputSchema builds the parameters object for one procedure, properties in
// declaration order, required listing the parameters without defaults.
func inputSchema(proc extractor.Procedure) *jsonschema.Schema {
	properties := orderedmap.New[string, *jsonschema.Schema]()
	required := []string{}

	for _, p := range proc.Params {
		properties.Set(p.Name, &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
		})
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// correspondenceWarnings checks the manifest's declared tool list against
// the compiled schema. The correspondence is best-effort: mismatches are
// flagged as warnings, never enforced.
func correspondenceWarnings(manifest *skill.Manifest, tools []Tool) []string {
	compiled := make(map[string]bool, len(tools))
	for _, t := range tools {
		compiled[t.Name] = true
	}

	var warnings []string
	for _, declared := range manifest.Tools {
		if !compiled[declared] {
			warnings = append(warnings, fmt.Sprintf("documented procedure %q has no inferable signature; skipped", declared))
		}
	}
	return warnings
}

func ctxGuard(ctx context.Context, dir string) error {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Dir: dir}
		}
		return ctx.Err()
	default:
		return nil
	}
}
