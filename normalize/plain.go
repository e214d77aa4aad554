package normalize

import (
	"clipbook/clip"
	"clipbook/document"
)

// normalizePlain wraps the payload text in a single chapter. Blank-line
// separated paragraphs survive as-is since Markdown treats them identically.
func (n *Normalizer) normalizePlain(p clip.Payload) (*document.Document, error) {
	doc := document.New()
	doc.Append(document.NewChapter("", p.Text()))
	return doc, nil
}
