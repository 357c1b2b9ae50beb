package parser

import (
	"strings"
	"unicode"
)

// ChunkResult is one bounded-size chunk of a document.
type ChunkResult struct {
	Content string
	Index   int
	Section string // heading of the section the chunk starts in
}

// ChunkConfig bounds chunk sizes in characters.
type ChunkConfig struct {
	MinSize int
	MaxSize int
}

// DefaultChunkConfig matches the documentation ingestion defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MinSize: 150, MaxSize: 1500}
}

// unit is an indivisible piece of text fed to the accumulator: a paragraph,
// or a sentence-bounded slice of an oversize paragraph.
type unit struct {
	text    string
	section string
}

// ChunkDocument splits a parsed document into chunks of [MinSize, MaxSize]
// characters. Splits happen at section boundaries where possible, then
// paragraph boundaries, then sentence boundaries; a word is never split.
// Only the final chunk of a document may be shorter than MinSize.
func ChunkDocument(doc *MarkdownDoc, cfg ChunkConfig) []ChunkResult {
	var units []unit
	if len(doc.Sections) > 0 {
		for _, sec := range doc.Sections {
			units = append(units, paragraphUnits(sec.Content, sec.Heading, cfg)...)
		}
	} else {
		units = paragraphUnits(doc.Content, "", cfg)
	}
	if len(units) == 0 {
		return nil
	}

	var chunks []ChunkResult
	var cur strings.Builder
	curSection := ""

	flush := func() {
		content := strings.TrimSpace(cur.String())
		if content != "" {
			chunks = append(chunks, ChunkResult{
				Content: content,
				Index:   len(chunks),
				Section: curSection,
			})
		}
		cur.Reset()
		curSection = ""
	}

	for _, u := range units {
		if cur.Len() == 0 {
			curSection = u.section
			cur.WriteString(u.text)
			continue
		}

		// Prefer flushing at section boundaries once the minimum is met.
		if u.section != curSection && cur.Len() >= cfg.MinSize {
			flush()
			curSection = u.section
			cur.WriteString(u.text)
			continue
		}

		if cur.Len()+2+len(u.text) <= cfg.MaxSize {
			cur.WriteString("\n\n")
			cur.WriteString(u.text)
			continue
		}

		if cur.Len() >= cfg.MinSize {
			flush()
			curSection = u.section
			cur.WriteString(u.text)
			continue
		}

		// The chunk is still below the minimum but the next unit does not
		// fit whole: fill up to the maximum at a sentence boundary and
		// carry the remainder forward. When the sentence cut lands too
		// early to reach the minimum, take the last word boundary instead.
		limit := cfg.MaxSize - cur.Len() - 1
		head, rest := splitAtBoundary(u.text, limit)
		if cur.Len()+1+len(head) < cfg.MinSize {
			head, rest = splitAtWord(u.text, limit)
		}
		if cur.Len()+1+len(head) < cfg.MinSize {
			// No boundary reaches the minimum: the unit continues with a
			// word longer than the remaining room. Keep the unit whole and
			// grow past the cap, like splitAtWord does for oversize words.
			cur.WriteString("\n\n")
			cur.WriteString(u.text)
			continue
		}
		cur.WriteString(" ")
		cur.WriteString(head)
		flush()
		if rest != "" {
			curSection = u.section
			cur.WriteString(rest)
		}
	}
	flush()

	return chunks
}

// paragraphUnits splits text into paragraphs, pre-splitting any paragraph
// longer than the maximum into sentence-bounded pieces.
func paragraphUnits(text, section string, cfg ChunkConfig) []unit {
	var units []unit
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= cfg.MaxSize {
			units = append(units, unit{text: para, section: section})
			continue
		}
		for _, piece := range splitOversize(para, cfg.MaxSize) {
			units = append(units, unit{text: piece, section: section})
		}
	}
	return units
}

// splitOversize breaks a paragraph longer than max into pieces of at most
// max characters, joining whole sentences where possible.
func splitOversize(text string, max int) []string {
	var pieces []string
	var cur strings.Builder

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if cur.Len() > 0 && cur.Len()+1+len(sentence) > max {
			pieces = append(pieces, strings.TrimSpace(cur.String()))
			cur.Reset()
		}

		// A single sentence beyond the bound falls back to word splits.
		for len(sentence) > max {
			head, rest := splitAtWord(sentence, max)
			if cur.Len() > 0 {
				pieces = append(pieces, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
			pieces = append(pieces, head)
			sentence = rest
		}

		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(sentence)
	}

	if cur.Len() > 0 {
		pieces = append(pieces, strings.TrimSpace(cur.String()))
	}
	return pieces
}

// splitAtBoundary cuts text at the last sentence end within limit, falling
// back to the last word boundary. Returns ("", text) when even one word
// does not fit.
func splitAtBoundary(text string, limit int) (head, rest string) {
	if limit <= 0 {
		return "", text
	}
	if len(text) <= limit {
		return text, ""
	}

	cut := -1
	for i := 0; i < limit; i++ {
		r := text[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			cut = i + 1
		}
	}
	if cut > 0 {
		return strings.TrimSpace(text[:cut]), strings.TrimSpace(text[cut:])
	}
	return splitAtWord(text, limit)
}

// splitAtWord cuts text at the last space within limit; never inside a word.
func splitAtWord(text string, limit int) (head, rest string) {
	if len(text) <= limit {
		return text, ""
	}
	idx := strings.LastIndex(text[:limit+1], " ")
	if idx <= 0 {
		// Single word longer than the limit; keep it whole.
		next := strings.Index(text, " ")
		if next < 0 {
			return text, ""
		}
		return text[:next], strings.TrimSpace(text[next:])
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx:])
}

// splitSentences splits text at sentence-ending punctuation followed by
// whitespace, skipping likely abbreviations.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue // likely an abbreviation like "Dr."
				}
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}
