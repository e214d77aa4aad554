package normalize

import (
	"context"
	"fmt"

	"clipbook/clip"
	"clipbook/document"
)

// normalizeHTML sanitizes pasted HTML and converts it to Markdown. Scripting,
// styling, and event handlers are removed by the sanitizer; non-semantic
// wrappers disappear in the Markdown conversion, which keeps headings, lists,
// tables, inline emphasis, links, and images.
func (n *Normalizer) normalizeHTML(ctx context.Context, p clip.Payload) (*document.Document, error) {
	sanitized := n.policy.SanitizeBytes(p.Data)

	md, err := n.conv.ConvertString(string(sanitized))
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}

	doc := document.New()
	var title string
	if h := document.FirstHeading(md); h != "" {
		title = document.StripMarkdown(h)
	}
	doc.Title = title

	md = n.embedRemoteImages(ctx, md, doc, &imageNamer{})
	doc.Append(document.NewChapter(title, md))
	return doc, nil
}
