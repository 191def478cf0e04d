// Package scanner inspects existing Python sources for business-logic
// functions worth extracting into a skill package. Detection is fully
// static: functions are scored on branching density, numeric thresholds and
// parameter count, and suggestions above the threshold are reported with
// their source locations. Applying a suggestion (rewriting the function into
// the standard tool format) is a separate, model-assisted step.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/skillmaker-ai/skillmaker/pkg/extractor"
)

// Suggestion is one function proposed for extraction.
type Suggestion struct {
	Name      string
	File      string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
	Score     int
	Reason    string
	Source    string // the function's full source text
}

// Scanner scores functions for extraction.
type Scanner struct {
	minScore int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMinScore sets the suggestion threshold.
func WithMinScore(n int) Option {
	return func(s *Scanner) {
		s.minScore = n
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{minScore: 6}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan resolves the path argument (a file, a directory or a doublestar
// pattern such as src/**/*.py) and scans every matching Python file. Files
// that cannot be parsed are skipped with a warning rather than failing the
// scan; only an unresolvable path is an error.
func (s *Scanner) Scan(path string) ([]Suggestion, []string, error) {
	files, err := resolveFiles(path)
	if err != nil {
		return nil, nil, err
	}

	var suggestions []Suggestion
	var warnings []string
	for _, file := range files {
		fileSuggestions, fileWarnings, err := s.ScanFile(file)
		if err != nil {
			return suggestions, warnings, err
		}
		suggestions = append(suggestions, fileSuggestions...)
		warnings = append(warnings, fileWarnings...)
	}
	return suggestions, warnings, nil
}

// ScanFile scans a single Python source file. A file that fails to parse
// yields a warning and no suggestions.
func (s *Scanner) ScanFile(path string) ([]Suggestion, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read %s", path)
	}

	raw := strings.Split(string(data), "\n")
	cleaned, err := extractor.CleanSource(path, raw)
	if err != nil {
		return nil, []string{fmt.Sprintf("%v; file skipped", err)}, nil
	}

	var suggestions []Suggestion
	for _, fn := range segmentFunctions(cleaned) {
		score, reason := scoreFunction(fn, cleaned)
		if score < s.minScore {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Name:      fn.name,
			File:      path,
			StartLine: fn.start + 1,
			EndLine:   fn.end + 1,
			Score:     score,
			Reason:    reason,
			Source:    strings.Join(raw[fn.start:fn.end+1], "\n"),
		})
	}
	return suggestions, nil, nil
}

func resolveFiles(path string) ([]string, error) {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return []string{path}, nil
		}
		pattern := filepath.Join(path, "**", "*.py")
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to glob %s", pattern)
		}
		sort.Strings(matches)
		return matches, nil
	}

	matches, err := doublestar.FilepathGlob(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid scan pattern %q", path)
	}
	if len(matches) == 0 {
		return nil, errors.Errorf("path %q does not exist", path)
	}

	var files []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".py") {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// function is a segmented top-level Python function.
type function struct {
	name  string
	start int // 0-based index of the def line
	end   int // 0-based index of the last body line
}

var defRe = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// segmentFunctions finds top-level functions and their body extents. The end
// of a function is the line before the next top-level statement.
func segmentFunctions(cleaned []string) []function {
	var functions []function

	depth := 0
	for i := 0; i < len(cleaned); i++ {
		startDepth := depth
		depth += depthDelta(cleaned[i])

		if startDepth != 0 {
			continue
		}
		m := defRe.FindStringSubmatch(cleaned[i])
		if m == nil {
			continue
		}

		end := i
		innerDepth := depth
		for j := i + 1; j < len(cleaned); j++ {
			line := cleaned[j]
			if innerDepth == 0 && strings.TrimSpace(line) != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
				break
			}
			if strings.TrimSpace(line) != "" {
				end = j
			}
			innerDepth += depthDelta(line)
		}

		functions = append(functions, function{name: m[1], start: i, end: end})

		// skip past the body so nested defs are not re-reported
		for i < end {
			i++
			depth += depthDelta(cleaned[i])
		}
	}

	return functions
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

var (
	branchRe     = regexp.MustCompile(`^\s*(if|elif)\b`)
	comparisonRe = regexp.MustCompile(`(<=|>=|==|<|>)`)
	numberLitRe  = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
)

// scoreFunction rates how much a function looks like multi-step business
// evaluation logic: threshold comparisons, branching, numeric constants and
// a non-trivial parameter list.
func scoreFunction(fn function, cleaned []string) (int, string) {
	branches := 0
	comparisons := 0
	numbers := 0

	for i := fn.start + 1; i <= fn.end; i++ {
		line := cleaned[i]
		if branchRe.MatchString(line) {
			branches++
		}
		comparisons += len(comparisonRe.FindAllString(line, -1))
		numbers += len(numberLitRe.FindAllString(line, -1))
	}

	if numbers > 10 {
		numbers = 10
	}

	params := strings.Count(cleaned[fn.start], ",") + 1
	score := 2*branches + comparisons + numbers + params

	reason := fmt.Sprintf("%d branch(es), %d comparison(s), %d numeric constant(s)", branches, comparisons, numbers)
	return score, reason
}
