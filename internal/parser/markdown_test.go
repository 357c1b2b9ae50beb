package parser

import (
	"testing"
)

func TestParseMarkdown_Frontmatter(t *testing.T) {
	content := `---
title: Getting Started
sidebar_position: 2
---

# Different Heading

Body text.
`
	doc := ParseMarkdown(content)

	if doc.Title != "Getting Started" {
		t.Errorf("Title = %q, want %q", doc.Title, "Getting Started")
	}
	if got := doc.Frontmatter["sidebar_position"]; got != 2 {
		t.Errorf("Frontmatter[sidebar_position] = %v, want 2", got)
	}
	if doc.Content == content {
		t.Error("frontmatter was not stripped from Content")
	}
}

func TestParseMarkdown_MalformedFrontmatter(t *testing.T) {
	content := "---\nkey: [unclosed\n---\n\n# Title\n\nBody.\n"
	doc := ParseMarkdown(content)

	if len(doc.Frontmatter) != 0 {
		t.Errorf("Frontmatter = %v, want empty", doc.Frontmatter)
	}
	if doc.Title != "Title" {
		t.Errorf("Title = %q, want %q", doc.Title, "Title")
	}
}

func TestParseMarkdown_MDXImports(t *testing.T) {
	content := `import Tabs from '@theme/Tabs';
import TabItem from '@theme/TabItem';

# Install

Run the installer.
`
	doc := ParseMarkdown(content)

	if got := doc.Content; len(got) > 0 && got[0] == 'i' {
		t.Errorf("import lines were not stripped: %q", got)
	}
	if doc.Title != "Install" {
		t.Errorf("Title = %q, want %q", doc.Title, "Install")
	}
}

func TestParseMarkdown_Sections(t *testing.T) {
	content := `Intro paragraph before any heading.

# Main

Main content.

## Sub

Sub content.
`
	doc := ParseMarkdown(content)

	want := []struct {
		heading string
		level   int
	}{
		{"Introduction", 0},
		{"Main", 1},
		{"Sub", 2},
	}
	if len(doc.Sections) != len(want) {
		t.Fatalf("got %d sections %+v, want %d", len(doc.Sections), doc.Sections, len(want))
	}
	for i, w := range want {
		if doc.Sections[i].Heading != w.heading {
			t.Errorf("section[%d].Heading = %q, want %q", i, doc.Sections[i].Heading, w.heading)
		}
		if doc.Sections[i].Level != w.level {
			t.Errorf("section[%d].Level = %d, want %d", i, doc.Sections[i].Level, w.level)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"getting-started.md", "Getting Started"},
		{"api-reference.mdx", "Api Reference"},
		{"faq.md", "Faq"},
	}
	for _, tt := range tests {
		if got := TitleFromFilename(tt.in); got != tt.want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
