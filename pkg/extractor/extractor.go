// Package extractor statically inspects tool source files and produces the
// ordered list of callable procedure definitions for a skill package. The
// compiler consumes these definitions; sources are never mutated.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// SchemaType is the closed set of schema primitive types a parameter can map
// onto.
type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
)

// Inference records how a parameter's schema type was determined.
type Inference int

const (
	// InferenceAnnotated means the type came from an explicit annotation.
	InferenceAnnotated Inference = iota
	// InferenceDefaultValue means the type came from a default value literal.
	InferenceDefaultValue
	// InferenceFallback means neither was usable and the generic fallback
	// applied.
	InferenceFallback
)

// Parameter is one typed parameter of a procedure.
type Parameter struct {
	Name        string
	Type        SchemaType
	Required    bool
	Default     string // raw source literal, empty when required
	Description string // from the docstring, may be empty
	Inference   Inference
}

// Procedure is a named callable procedure derived from a source file.
type Procedure struct {
	Name       string
	Params     []Parameter
	ReturnType string
	Summary    string
	File       string
	Line       int
}

// Warning is a non-fatal finding recorded during extraction.
type Warning struct {
	File    string
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
}

// ParseError reports an unparsable source file. It fails the whole file but
// must never abort extraction of other files in the same run.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Extractor produces procedure definitions from one source file.
type Extractor interface {
	// Extensions lists the file extensions (with dot) this extractor handles.
	Extensions() []string
	// Extract returns the procedures declared in the file, in declaration
	// order, together with any non-fatal warnings.
	Extract(path string) ([]Procedure, []Warning, error)
}

// Registry maps file extensions to extractors.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with the built-in extractors registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(NewPythonExtractor())
	return r
}

// Register adds an extractor for all of its extensions.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[ext] = e
	}
}

// ForFile returns the extractor responsible for the file's extension.
func (r *Registry) ForFile(path string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Humanize converts a procedure name into a human-readable phrase, used as
// the summary for procedures that carry no doc block.
func Humanize(name string) string {
	phrase := strings.ReplaceAll(name, "_", " ")
	runes := []rune(phrase)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
