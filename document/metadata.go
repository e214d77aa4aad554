package document

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Metadata is the complete, resolved book metadata handed to the assembler.
type Metadata struct {
	Title     string
	Author    string
	Language  string
	Source    string
	Published string
	Generated time.Time
}

// Overrides are explicit per-conversion values supplied by the caller. They
// take precedence over everything extracted or configured.
type Overrides struct {
	Title    string
	Author   string
	Language string
}

// Defaults are the configuration-level fallbacks.
type Defaults struct {
	Author   string
	Language string
}

const (
	fallbackAuthor   = "Unknown Author"
	fallbackLanguage = "en"
	titleWordLimit   = 12
)

// ResolveMetadata derives complete metadata for a document. Precedence,
// highest first: caller override, content-extracted value, configured
// default, built-in fallback. It always succeeds.
func ResolveMetadata(d *Document, over Overrides, def Defaults) Metadata {
	now := time.Now()
	m := Metadata{
		Source:    d.Source,
		Published: d.Published,
		Generated: now,
	}

	m.Title = firstNonEmpty(over.Title, d.Title, titleFromContent(d))
	if m.Title == "" {
		m.Title = "Clipboard " + now.Format("2006-01-02 15:04:05")
	}

	m.Author = firstNonEmpty(over.Author, d.Author, def.Author, fallbackAuthor)

	m.Language = normalizeLanguage(firstNonEmpty(over.Language, d.Language, def.Language))
	return m
}

// titleFromContent takes the first heading, falling back to the leading words
// of the first chapter body.
func titleFromContent(d *Document) string {
	for _, ch := range d.Chapters {
		if h := FirstHeading(ch.Markdown); h != "" {
			return StripMarkdown(h)
		}
	}
	for _, ch := range d.Chapters {
		text := StripMarkdown(ch.Markdown)
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > titleWordLimit {
			return strings.Join(fields[:titleWordLimit], " ") + "…"
		}
		return strings.Join(fields, " ")
	}
	return ""
}

// normalizeLanguage canonicalizes a BCP 47 tag, falling back to "en" for
// anything unparseable.
func normalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return fallbackLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return fallbackLanguage
	}
	return tag.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
