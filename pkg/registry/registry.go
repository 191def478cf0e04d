// Package registry discovers skill packages under a root directory and runs
// batch compilation over them with best-effort semantics: every package is
// attempted, one package's failure never blocks the others, and the
// aggregate result reflects whether any package failed.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/skillmaker-ai/skillmaker/pkg/compiler"
	"github.com/skillmaker-ai/skillmaker/pkg/logger"
	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

// Error reports a missing or unreadable registry path.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("registry %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Descriptor identifies one discovered skill package.
type Descriptor struct {
	Name string // directory base name, unique within the registry
	Dir  string
}

// Registry holds the root path and the package descriptors discovered under
// it. It is constructed once per invocation and carries no cross-invocation
// state.
type Registry struct {
	Root     string
	Packages []Descriptor
}

// Result is the per-package outcome of a batch compilation.
type Result struct {
	Package    string
	Success    bool
	OutputPath string
	Err        error
	Warnings   []string
}

// Open discovers all skill packages under root: every direct subdirectory
// containing a manifest.json. Descriptors are sorted by name so batch runs
// are deterministic.
func Open(root string) (*Registry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &Error{Path: root, Err: err}
	}

	reg := &Registry{Root: root}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, skill.ManifestFileName)); err != nil {
			continue
		}
		reg.Packages = append(reg.Packages, Descriptor{Name: entry.Name(), Dir: dir})
	}

	sort.Slice(reg.Packages, func(i, j int) bool {
		return reg.Packages[i].Name < reg.Packages[j].Name
	})

	return reg, nil
}

// Find returns the descriptor of the named package.
func (r *Registry) Find(name string) (Descriptor, bool) {
	for _, d := range r.Packages {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// CompileOne compiles a single named package.
func (r *Registry) CompileOne(ctx context.Context, c *compiler.Compiler, name string) Result {
	desc, ok := r.Find(name)
	if !ok {
		return Result{
			Package: name,
			Err:     errors.Errorf("skill package %q not found in registry %s", name, r.Root),
		}
	}
	return r.compile(ctx, c, desc)
}

// CompileAll compiles every discovered package sequentially, in name order.
// The returned error aggregates the per-package failures and is nil only
// when every package compiled.
func (r *Registry) CompileAll(ctx context.Context, c *compiler.Compiler) ([]Result, error) {
	results := make([]Result, 0, len(r.Packages))
	var failures *multierror.Error

	for _, desc := range r.Packages {
		result := r.compile(ctx, c, desc)
		results = append(results, result)
		if !result.Success {
			failures = multierror.Append(failures, errors.Wrapf(result.Err, "package %s", desc.Name))
		}
	}

	return results, failures.ErrorOrNil()
}

func (r *Registry) compile(ctx context.Context, c *compiler.Compiler, desc Descriptor) Result {
	log := logger.G(ctx).WithField("package", desc.Name)
	log.Debug("compiling skill package")

	out, err := c.Compile(ctx, desc.Dir)
	if err != nil {
		log.WithError(err).Debug("compilation failed")
		return Result{Package: desc.Name, Err: err}
	}

	return Result{
		Package:    desc.Name,
		Success:    true,
		OutputPath: out.SchemaPath,
		Warnings:   out.Warnings,
	}
}
