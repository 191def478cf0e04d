package extractor

import (
	"regexp"
	"strings"
)

// findDocstring returns the docstring of the function whose signature ends
// at line sigEnd, or "" when the function carries none. afterColon is the
// cleaned text following the signature colon: any statement there means the
// body is inline and no docstring can follow.
func findDocstring(raw, cleaned []string, sigEnd int, afterColon string) string {
	if strings.TrimSpace(afterColon) != "" {
		return ""
	}

	for k := sigEnd + 1; k < len(raw); k++ {
		// blank lines and comments may precede the docstring
		if strings.TrimSpace(cleaned[k]) == "" {
			continue
		}

		trimmed := strings.TrimSpace(raw[k])
		trimmed = strings.TrimLeft(trimmed, "rbuRBUfF")
		if strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			content, ok := readTripleString(raw, k)
			if !ok {
				return ""
			}
			return content
		}
		return ""
	}
	return ""
}

// readTripleString reads a triple-quoted string starting on line start and
// returns its interior content.
func readTripleString(raw []string, start int) (string, bool) {
	text := strings.Join(raw[start:], "\n")

	open := strings.IndexAny(text, `"'`)
	if open == -1 || open+3 > len(text) {
		return "", false
	}
	delim := text[open : open+3]
	if delim != `"""` && delim != "'''" {
		return "", false
	}

	rest := text[open+3:]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(rest[i:], delim) {
			return rest[:i], true
		}
	}
	return "", false
}

// applyDocstring fills the procedure summary and per-parameter descriptions
// from its docstring. A missing doc block yields the humanized name.
func applyDocstring(proc *Procedure, doc string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		proc.Summary = Humanize(proc.Name)
		return
	}

	proc.Summary = firstParagraph(doc)

	descriptions := parseParamDocs(doc)
	for i := range proc.Params {
		if d, ok := descriptions[proc.Params[i].Name]; ok {
			proc.Params[i].Description = d
		}
	}
}

// firstParagraph joins the lines of the first paragraph of a docstring.
func firstParagraph(doc string) string {
	var parts []string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

var (
	sphinxParamRe = regexp.MustCompile(`^:param\s+(\w+):\s*(.+)$`)
	argsHeaderRe  = regexp.MustCompile(`^(?i)(args|arguments|parameters):\s*$`)
	argsEntryRe   = regexp.MustCompile(`^(\w+)(?:\s*\([^)]*\))?:\s*(.+)$`)
)

// parseParamDocs extracts parameter descriptions from the common docstring
// conventions: Sphinx ":param name:" fields and Google-style Args sections.
func parseParamDocs(doc string) map[string]string {
	docs := make(map[string]string)
	inArgs := false

	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := sphinxParamRe.FindStringSubmatch(trimmed); m != nil {
			docs[m[1]] = strings.TrimSpace(m[2])
			inArgs = false
			continue
		}

		if argsHeaderRe.MatchString(trimmed) {
			inArgs = true
			continue
		}
		if inArgs {
			if trimmed == "" {
				inArgs = false
				continue
			}
			if m := argsEntryRe.FindStringSubmatch(trimmed); m != nil {
				docs[m[1]] = strings.TrimSpace(m[2])
			}
		}
	}

	return docs
}
