package extractor

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// PythonExtractor derives procedure definitions from Python sources by
// static inspection: public module-level functions only, annotation-first
// type inference, docstring summaries.
type PythonExtractor struct{}

// NewPythonExtractor returns the extractor for .py files.
func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{}
}

// Extensions implements Extractor.
func (e *PythonExtractor) Extensions() []string {
	return []string{".py"}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Extract implements Extractor. A syntax error fails the whole file with a
// ParseError naming the file and location.
func (e *PythonExtractor) Extract(path string) ([]Procedure, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read %s", path)
	}

	raw := strings.Split(string(data), "\n")
	cleaned, err := CleanSource(path, raw)
	if err != nil {
		return nil, nil, err
	}

	// Bracket depth before each line, over the cleaned text.
	depthBefore := make([]int, len(raw)+1)
	for i, cl := range cleaned {
		depthBefore[i+1] = depthBefore[i] + depthDelta(cl)
	}

	var (
		procs    []Procedure
		warnings []Warning
	)

	for i := 0; i < len(raw); i++ {
		cl := cleaned[i]
		if depthBefore[i] != 0 {
			continue
		}
		if !strings.HasPrefix(cl, "def ") && !strings.HasPrefix(cl, "async def ") {
			continue
		}

		end, err := findSignatureEnd(path, cleaned, depthBefore, i)
		if err != nil {
			return nil, warnings, err
		}

		joinedRaw := strings.Join(raw[i:end+1], "\n")
		joinedClean := strings.Join(cleaned[i:end+1], "\n")

		proc, ws, err := parseSignature(path, joinedRaw, joinedClean, i+1)
		if err != nil {
			return nil, warnings, err
		}
		warnings = append(warnings, ws...)

		if proc != nil {
			lparen := strings.IndexByte(joinedClean, '(')
			rparen := matchingParen(joinedClean, lparen)
			sigColon := rparen + 1 + indexAtDepthZero(joinedClean[rparen+1:], ':')
			doc := findDocstring(raw, cleaned, end, joinedClean[sigColon+1:])
			applyDocstring(proc, doc)
			procs = append(procs, *proc)
		}

		i = end
	}

	return procs, warnings, nil
}

// findSignatureEnd returns the index of the line holding the signature's
// terminating colon.
func findSignatureEnd(path string, cleaned []string, depthBefore []int, start int) (int, error) {
	for j := start; j < len(cleaned); j++ {
		joined := strings.Join(cleaned[start:j+1], "\n")
		if signatureComplete(joined) {
			return j, nil
		}
		if depthBefore[j+1] == 0 {
			return 0, &ParseError{File: path, Line: start + 1, Msg: "expected ':' after parameter list"}
		}
	}
	return 0, &ParseError{File: path, Line: start + 1, Msg: "unterminated function signature"}
}

// signatureComplete reports whether the cleaned signature text contains a
// balanced parameter list followed by a colon at bracket depth zero.
func signatureComplete(clean string) bool {
	lparen := strings.IndexByte(clean, '(')
	if lparen == -1 {
		return false
	}
	rparen := matchingParen(clean, lparen)
	if rparen == -1 {
		return false
	}
	return indexAtDepthZero(clean[rparen+1:], ':') != -1
}

func matchingParen(clean string, lparen int) int {
	depth := 0
	for i := lparen; i < len(clean); i++ {
		switch clean[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func indexAtDepthZero(clean string, ch byte) int {
	depth := 0
	for i := 0; i < len(clean); i++ {
		switch clean[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ch:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func depthDelta(clean string) int {
	delta := 0
	for i := 0; i < len(clean); i++ {
		switch clean[i] {
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		}
	}
	return delta
}

// parseSignature parses one complete def statement. It returns nil for
// private functions. raw and clean are the joined signature lines; they have
// identical lengths so structural positions found on clean index into raw.
func parseSignature(path, raw, clean string, line int) (*Procedure, []Warning, error) {
	base := len("def ")
	if strings.HasPrefix(clean, "async ") {
		base = len("async def ")
	}

	lparen := strings.IndexByte(clean, '(')
	if lparen == -1 {
		return nil, nil, &ParseError{File: path, Line: line, Msg: "expected '(' after function name"}
	}

	name := strings.TrimSpace(raw[base:lparen])
	if !identRe.MatchString(name) {
		return nil, nil, &ParseError{File: path, Line: line, Msg: fmt.Sprintf("invalid function name %q", name)}
	}

	rparen := matchingParen(clean, lparen)
	colon := rparen + 1 + indexAtDepthZero(clean[rparen+1:], ':')

	if strings.HasPrefix(name, "_") {
		return nil, nil, nil
	}

	proc := &Procedure{
		Name: name,
		File: path,
		Line: line,
	}

	if arrow := strings.Index(clean[rparen+1:colon], "->"); arrow != -1 {
		proc.ReturnType = strings.TrimSpace(raw[rparen+1+arrow+2 : colon])
	}

	var warnings []Warning

	pieces, offsets := splitTopLevel(raw[lparen+1:rparen], clean[lparen+1:rparen])
	for idx, piece := range pieces {
		paramLine := line + strings.Count(clean[:lparen+1+offsets[idx]], "\n")
		param, skip, ws, err := parseParam(path, piece, clean[lparen+1+offsets[idx]:lparen+1+offsets[idx]+len(piece)], paramLine)
		warnings = append(warnings, ws...)
		if err != nil {
			return nil, warnings, err
		}
		if !skip {
			proc.Params = append(proc.Params, param)
		}
	}

	return proc, warnings, nil
}

// splitTopLevel splits the raw parameter list on commas at bracket depth
// zero, returning the raw pieces and their offsets within the list.
func splitTopLevel(raw, clean string) ([]string, []int) {
	var (
		pieces  []string
		offsets []int
	)

	depth := 0
	start := 0
	for i := 0; i < len(clean); i++ {
		switch clean[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				pieces = append(pieces, raw[start:i])
				offsets = append(offsets, start)
				start = i + 1
			}
		}
	}
	pieces = append(pieces, raw[start:])
	offsets = append(offsets, start)
	return pieces, offsets
}

// parseParam parses one parameter. Variadic parameters and the bare * and /
// markers produce no schema parameter.
func parseParam(path, raw, clean string, line int) (Parameter, bool, []Warning, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "*" || trimmed == "/" {
		return Parameter{}, true, nil, nil
	}
	if strings.HasPrefix(trimmed, "*") {
		w := Warning{File: path, Line: line, Message: fmt.Sprintf("variadic parameter %q is not representable in the schema; skipped", strings.TrimLeft(trimmed, "*"))}
		return Parameter{}, true, []Warning{w}, nil
	}

	eq := indexAtDepthZero(clean, '=')
	colon := indexAtDepthZero(clean, ':')
	if eq != -1 && colon > eq {
		colon = -1
	}

	nameEnd := len(raw)
	if colon != -1 {
		nameEnd = colon
	} else if eq != -1 {
		nameEnd = eq
	}

	name := strings.TrimSpace(raw[:nameEnd])
	if !identRe.MatchString(name) {
		return Parameter{}, false, nil, &ParseError{File: path, Line: line, Msg: fmt.Sprintf("invalid parameter name %q", name)}
	}

	var annotation, defaultValue string
	if colon != -1 {
		annEnd := len(raw)
		if eq != -1 {
			annEnd = eq
		}
		annotation = strings.TrimSpace(raw[colon+1 : annEnd])
	}
	if eq != -1 {
		defaultValue = strings.TrimSpace(raw[eq+1:])
	}

	param := Parameter{
		Name:     name,
		Required: eq == -1,
		Default:  defaultValue,
	}

	var warnings []Warning

	switch {
	case annotation != "":
		if t, ok := mapAnnotation(annotation); ok {
			param.Type = t
			param.Inference = InferenceAnnotated
		} else {
			param.Type = TypeObject
			param.Inference = InferenceFallback
			warnings = append(warnings, Warning{
				File: path, Line: line,
				Message: fmt.Sprintf("unsupported type annotation %q for parameter %q; degraded to object", annotation, name),
			})
		}
	case defaultValue != "":
		t, ok, isNone := inferLiteral(defaultValue)
		if ok {
			param.Type = t
			param.Inference = InferenceDefaultValue
		} else {
			param.Type = TypeString
			if !isNone {
				param.Type = TypeObject
			}
			param.Inference = InferenceFallback
			warnings = append(warnings, Warning{
				File: path, Line: line,
				Message: fmt.Sprintf("cannot infer type of parameter %q from default %q; degraded to %s", name, defaultValue, param.Type),
			})
		}
	default:
		param.Type = TypeString
		param.Inference = InferenceFallback
		warnings = append(warnings, Warning{
			File: path, Line: line,
			Message: fmt.Sprintf("no type annotation or default for parameter %q; assuming string", name),
		})
	}

	return param, false, warnings, nil
}

// mapAnnotation maps a Python type annotation onto a schema primitive type.
func mapAnnotation(annotation string) (SchemaType, bool) {
	s := strings.TrimSpace(annotation)
	s = strings.Trim(s, `"'`) // forward references
	s = strings.TrimPrefix(s, "typing.")

	if strings.HasPrefix(s, "Optional[") && strings.HasSuffix(s, "]") {
		return mapAnnotation(s[len("Optional[") : len(s)-1])
	}

	if idx := strings.IndexByte(s, '['); idx != -1 {
		s = s[:idx]
	}

	switch s {
	case "str", "bytes":
		return TypeString, true
	case "int", "float":
		return TypeNumber, true
	case "bool":
		return TypeBoolean, true
	case "list", "List", "Sequence", "tuple", "Tuple", "set", "Set", "frozenset", "Iterable":
		return TypeArray, true
	case "dict", "Dict", "Mapping", "MutableMapping":
		return TypeObject, true
	default:
		return "", false
	}
}

var numberRe = regexp.MustCompile(`^[+-]?(\d|\.\d)`)

// inferLiteral infers a schema type from a default value literal. isNone is
// reported separately: None carries no type information.
func inferLiteral(literal string) (t SchemaType, ok bool, isNone bool) {
	s := strings.TrimSpace(literal)
	switch {
	case s == "None":
		return "", false, true
	case s == "True" || s == "False":
		return TypeBoolean, true, false
	case strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`):
		return TypeString, true, false
	case strings.HasPrefix(s, "r\"") || strings.HasPrefix(s, "r'") ||
		strings.HasPrefix(s, "f\"") || strings.HasPrefix(s, "f'") ||
		strings.HasPrefix(s, "b\"") || strings.HasPrefix(s, "b'"):
		return TypeString, true, false
	case strings.HasPrefix(s, "[") || strings.HasPrefix(s, "("):
		return TypeArray, true, false
	case strings.HasPrefix(s, "{"):
		return TypeObject, true, false
	case numberRe.MatchString(s):
		return TypeNumber, true, false
	default:
		return "", false, false
	}
}
