// Package parser provides Markdown parsing and bounded-size chunking for
// documentation ingestion.
package parser

import (
	"bufio"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkdownDoc is a parsed documentation file.
type MarkdownDoc struct {
	// Frontmatter metadata (YAML between --- delimiters)
	Frontmatter map[string]any

	// Title from frontmatter, first h1, or the file name
	Title string

	// Content after frontmatter (and MDX import) removal
	Content string

	// Structured content by heading
	Sections []Section
}

// Section is a heading and the content under it.
type Section struct {
	Level   int
	Heading string
	Content string
}

var (
	h1Regex      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	importRegex  = regexp.MustCompile(`(?m)^import\s+.*?from\s+.*?;?\n`)
)

// ParseMarkdown parses a Markdown or MDX document. MDX frontmatter and
// import statements are stripped before sectioning.
func ParseMarkdown(content string) *MarkdownDoc {
	doc := &MarkdownDoc{
		Frontmatter: make(map[string]any),
	}

	remaining := content
	if strings.HasPrefix(content, "---\n") {
		if endIdx := strings.Index(content[4:], "\n---"); endIdx > 0 {
			frontmatterYAML := content[4 : 4+endIdx]
			remaining = strings.TrimPrefix(content[4+endIdx+4:], "\n")

			if err := yaml.Unmarshal([]byte(frontmatterYAML), &doc.Frontmatter); err != nil {
				// Malformed frontmatter is treated as absent.
				doc.Frontmatter = make(map[string]any)
			}
		}
	}

	remaining = importRegex.ReplaceAllString(remaining, "")

	doc.Content = remaining
	doc.Title = extractTitle(doc.Frontmatter, remaining)
	doc.Sections = parseSections(remaining)

	return doc
}

// extractTitle gets the title from frontmatter or the first h1.
func extractTitle(fm map[string]any, content string) string {
	if title, ok := fm["title"].(string); ok && title != "" {
		return title
	}
	if match := h1Regex.FindStringSubmatch(content); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// TitleFromFilename converts a kebab-case file name into a title.
func TitleFromFilename(name string) string {
	name = strings.TrimSuffix(name, ".mdx")
	name = strings.TrimSuffix(name, ".md")
	words := strings.Split(name, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// parseSections splits content at headings. Content before the first
// heading becomes an "Introduction" section.
func parseSections(content string) []Section {
	var sections []Section

	current := Section{Heading: "Introduction"}
	var body strings.Builder

	flush := func() {
		current.Content = strings.TrimSpace(body.String())
		if current.Content != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if match := headingRegex.FindStringSubmatch(line); len(match) > 0 {
			flush()
			current = Section{
				Level:   len(match[1]),
				Heading: strings.TrimSpace(match[2]),
			}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}
