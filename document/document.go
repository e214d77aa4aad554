// Package document defines the canonical intermediate representation shared
// by the normalizers and the ePub assembler.
//
// Chapter bodies are Markdown: every normalizer reduces its input to Markdown
// and the assembler renders it to XHTML. Embedded images live in the
// document's image map and are referenced from chapter bodies as
// "images/<name>".
package document

import (
	"fmt"
	"strings"
)

// Image is an embedded binary asset.
type Image struct {
	Data      []byte
	MediaType string // e.g. "image/jpeg"
}

// Chapter is a titled unit of content.
type Chapter struct {
	Title    string
	Markdown string
	Words    int // word count of the Markdown source
}

// NewChapter builds a chapter with its word count computed.
func NewChapter(title, markdown string) Chapter {
	return Chapter{Title: title, Markdown: markdown, Words: CountWords(markdown)}
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Document is the canonical conversion model. Chapter order is stable and
// matches capture/accumulation order.
type Document struct {
	Title     string
	Author    string
	Language  string
	Source    string // originating URL when the content came from the web
	Published string // publish date as found in the content, free-form

	Chapters []Chapter
	Images   map[string]Image // name → asset; names referenced as images/<name>
	Warnings []string

	// NeedsNav instructs the assembler to emit a navigation document.
	NeedsNav bool
}

// New returns an empty document with an allocated image map.
func New() *Document {
	return &Document{Images: make(map[string]Image)}
}

// Append adds a chapter, silently dropping zero-word bodies.
func (d *Document) Append(ch Chapter) {
	if ch.Words == 0 {
		return
	}
	d.Chapters = append(d.Chapters, ch)
}

// AddImage stores an asset under name.
func (d *Document) AddImage(name string, img Image) {
	if d.Images == nil {
		d.Images = make(map[string]Image)
	}
	d.Images[name] = img
}

// Warn attaches a non-fatal warning.
func (d *Document) Warn(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// WordCount totals all chapter word counts.
func (d *Document) WordCount() int {
	total := 0
	for _, ch := range d.Chapters {
		total += ch.Words
	}
	return total
}

// ImageRefs returns every images/<name> reference found in chapter bodies.
func (d *Document) ImageRefs() []string {
	var refs []string
	seen := make(map[string]bool)
	for _, ch := range d.Chapters {
		for _, name := range imageRefNames(ch.Markdown) {
			if !seen[name] {
				seen[name] = true
				refs = append(refs, name)
			}
		}
	}
	return refs
}

// Merge concatenates docs in order into one multi-chapter document. Image
// name collisions are resolved by renaming with a sequence suffix and
// rewriting the owning chapters' references. Metadata comes from the first
// document that carries each field.
func Merge(docs ...*Document) *Document {
	out := New()
	for _, src := range docs {
		if src == nil {
			continue
		}
		renames := make(map[string]string)
		for name, img := range src.Images {
			final := name
			for seq := 2; ; seq++ {
				if _, taken := out.Images[final]; !taken {
					break
				}
				final = suffixName(name, seq)
			}
			if final != name {
				renames[name] = final
			}
			out.Images[final] = img
		}
		for _, ch := range src.Chapters {
			for old, renamed := range renames {
				ch.Markdown = strings.ReplaceAll(ch.Markdown, "images/"+old, "images/"+renamed)
			}
			out.Append(ch)
		}
		out.Warnings = append(out.Warnings, src.Warnings...)
		if out.Title == "" {
			out.Title = src.Title
		}
		if out.Author == "" {
			out.Author = src.Author
		}
		if out.Language == "" {
			out.Language = src.Language
		}
		if out.Source == "" {
			out.Source = src.Source
		}
		if out.Published == "" {
			out.Published = src.Published
		}
	}
	out.NeedsNav = len(out.Chapters) > 1
	return out
}

// suffixName inserts a sequence suffix before the extension:
// "img-1.jpg" → "img-1-2.jpg".
func suffixName(name string, seq int) string {
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		return fmt.Sprintf("%s-%d%s", name[:dot], seq, name[dot:])
	}
	return fmt.Sprintf("%s-%d", name, seq)
}
