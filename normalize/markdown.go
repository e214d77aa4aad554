package normalize

import (
	"context"

	"clipbook/clip"
	"clipbook/document"
)

// normalizeMarkdown keeps the payload as the chapter body and localizes any
// remote image references. The first heading becomes the document title.
func (n *Normalizer) normalizeMarkdown(ctx context.Context, p clip.Payload) (*document.Document, error) {
	doc := document.New()
	md := p.Text()

	var title string
	if h := document.FirstHeading(md); h != "" {
		title = document.StripMarkdown(h)
	}
	doc.Title = title

	md = n.embedRemoteImages(ctx, md, doc, &imageNamer{})
	doc.Append(document.NewChapter(title, md))
	return doc, nil
}
