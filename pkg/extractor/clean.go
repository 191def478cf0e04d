package extractor

import (
	"fmt"
	"strings"
)

// cleaner is a small line-oriented scanner that blanks out string contents
// and comments while validating strings and bracket nesting. The cleaned
// lines are length-preserving, so structural positions found on the cleaned
// text index directly into the raw text.
type cleaner struct {
	file       string
	inTriple   bool
	tripleCh   byte
	tripleLine int
	inString   bool
	stringCh   byte
	stringLine int
	continued  bool
	stack      []openBracket
}

type openBracket struct {
	ch   byte
	line int
}

// CleanSource cleans all lines of a file and validates its surface syntax.
func CleanSource(file string, lines []string) ([]string, error) {
	c := &cleaner{file: file}

	cleaned := make([]string, len(lines))
	for i, line := range lines {
		cl, err := c.cleanLine(line, i+1)
		if err != nil {
			return nil, err
		}
		cleaned[i] = cl
	}

	if c.inTriple {
		return nil, &ParseError{File: file, Line: c.tripleLine, Msg: "unterminated triple-quoted string"}
	}
	if c.inString {
		return nil, &ParseError{File: file, Line: c.stringLine, Msg: "unterminated string literal"}
	}
	if len(c.stack) > 0 {
		last := c.stack[len(c.stack)-1]
		return nil, &ParseError{File: file, Line: last.line, Msg: fmt.Sprintf("unclosed %q", string(last.ch))}
	}

	return cleaned, nil
}

func (c *cleaner) cleanLine(raw string, lineNo int) (string, error) {
	out := []byte(raw)
	n := len(raw)
	i := 0

	for i < n {
		ch := raw[i]

		if c.inTriple {
			if ch == c.tripleCh && strings.HasPrefix(raw[i:], strings.Repeat(string(c.tripleCh), 3)) {
				c.inTriple = false
				i += 3
				continue
			}
			out[i] = ' '
			i++
			continue
		}

		if c.inString {
			switch {
			case ch == '\\':
				out[i] = ' '
				if i+1 < n {
					out[i+1] = ' '
					i += 2
				} else {
					// backslash line continuation keeps the string open
					c.continued = true
					i++
				}
			case ch == c.stringCh:
				c.inString = false
				i++
			default:
				out[i] = ' '
				i++
			}
			continue
		}

		switch ch {
		case '#':
			for j := i; j < n; j++ {
				out[j] = ' '
			}
			i = n

		case '\'', '"':
			if strings.HasPrefix(raw[i:], strings.Repeat(string(ch), 3)) {
				c.inTriple = true
				c.tripleCh = ch
				c.tripleLine = lineNo
				i += 3
				continue
			}
			c.inString = true
			c.stringCh = ch
			c.stringLine = lineNo
			i++

		case '(', '[', '{':
			c.stack = append(c.stack, openBracket{ch: ch, line: lineNo})
			i++

		case ')', ']', '}':
			if len(c.stack) == 0 || !bracketsMatch(c.stack[len(c.stack)-1].ch, ch) {
				return "", &ParseError{File: c.file, Line: lineNo, Msg: fmt.Sprintf("unmatched %q", string(ch))}
			}
			c.stack = c.stack[:len(c.stack)-1]
			i++

		default:
			i++
		}
	}

	if c.inString {
		if !c.continued {
			return "", &ParseError{File: c.file, Line: c.stringLine, Msg: "unterminated string literal"}
		}
		c.continued = false
	}

	return string(out), nil
}

func bracketsMatch(open, close byte) bool {
	switch open {
	case '(':
		return close == ')'
	case '[':
		return close == ']'
	case '{':
		return close == '}'
	}
	return false
}
