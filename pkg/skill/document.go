package skill

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Metadata is the optional YAML frontmatter of a SKILL.md document.
type Metadata struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Section is one named section of a capability document: a level-2 heading
// and the free-form prose under it.
type Section struct {
	Heading string
	Body    string
}

// Document is a parsed SKILL.md capability document. It is read-only to the
// compiler; the interview agent or a human author owns the file.
type Document struct {
	Meta     Metadata
	Title    string
	Sections []Section
	raw      string
}

// LoadDocument reads and parses the SKILL.md of the package at dir.
func LoadDocument(dir string) (*Document, error) {
	path := filepath.Join(dir, DocumentFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return ParseDocument(content)
}

// ParseDocument parses a capability document: optional YAML frontmatter, a
// title line and zero or more named sections with prose under each.
func ParseDocument(content []byte) (*Document, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	doc := &Document{}

	if metaData := meta.Get(pctx); metaData != nil {
		if err := mapstructure.Decode(metaData, &doc.Meta); err != nil {
			return nil, errors.Wrap(err, "failed to decode frontmatter")
		}
	}

	body := stripFrontmatter(string(content))
	doc.raw = body
	doc.Title, doc.Sections = splitSections(body)

	return doc, nil
}

// Raw returns the document body with frontmatter removed.
func (d *Document) Raw() string {
	return d.raw
}

// SectionMentioning returns the first section whose heading or prose mentions
// name as a whole word, in document order.
func (d *Document) SectionMentioning(name string) (Section, bool) {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	for _, s := range d.Sections {
		if re.MatchString(s.Heading) || re.MatchString(s.Body) {
			return s, true
		}
	}
	return Section{}, false
}

// DescriptionFor returns the prose of the section mentioning the procedure
// name verbatim, when one exists.
func (d *Document) DescriptionFor(name string) (string, bool) {
	s, ok := d.SectionMentioning(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s.Body), true
}

// stripFrontmatter removes a leading YAML frontmatter block.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
}

// splitSections walks the body line by line, taking the first level-1
// heading as the title and every level-2 heading as a section boundary.
func splitSections(body string) (string, []Section) {
	var (
		title    string
		sections []Section
		current  *Section
	)

	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(current.Body)
			sections = append(sections, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			current = &Section{Heading: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
		case strings.HasPrefix(line, "# ") && title == "":
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		case current != nil:
			current.Body += line + "\n"
		}
	}
	flush()

	return title, sections
}
