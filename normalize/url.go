package normalize

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"clipbook/clip"
	"clipbook/document"
	"clipbook/extract"
)

// normalizeURLs converts one or more newline-separated URLs into chapters.
// A single URL surfaces its fetch error; in a batch, each failed URL becomes
// a placeholder chapter so the rest of the batch survives.
func (n *Normalizer) normalizeURLs(ctx context.Context, p clip.Payload) (*document.Document, error) {
	var urls []string
	for _, line := range strings.Split(p.Text(), "\n") {
		if line = strings.TrimSpace(line); clip.IsURLLine(line) {
			urls = append(urls, line)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no urls in payload")
	}

	if len(urls) == 1 {
		return n.fetchArticle(ctx, urls[0])
	}
	return document.Merge(n.fetchBatch(ctx, urls)...), nil
}

// fetchArticle retrieves one page and reduces it to a single article chapter.
func (n *Normalizer) fetchArticle(ctx context.Context, url string) (*document.Document, error) {
	if n.cfg.Fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}

	res, err := n.cfg.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	art, err := extract.Run(res.Body)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", url, err)
	}

	// WithDomain absolutizes relative links and image sources so the
	// embedder can retrieve them.
	md, err := n.conv.ConvertString(art.HTML, converter.WithDomain(url))
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", url, err)
	}

	doc := document.New()
	doc.Title = art.Title
	doc.Author = art.Byline
	doc.Source = url
	doc.Published = art.Published

	md = n.embedRemoteImages(ctx, md, doc, &imageNamer{})
	doc.Append(document.NewChapter(art.Title, md))
	return doc, nil
}

// fetchBatch retrieves urls in parallel, bounded by the worker count.
// Results keep input order; failures become placeholder documents.
func (n *Normalizer) fetchBatch(ctx context.Context, urls []string) []*document.Document {
	docs := make([]*document.Document, len(urls))

	var wg sync.WaitGroup
	sem := make(chan struct{}, n.cfg.Workers)
	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			doc, err := n.fetchArticle(ctx, u)
			if err != nil {
				n.cfg.Logger.Warn("url failed in batch", "url", u, "error", err)
				doc = placeholderDoc(u, err)
			}
			docs[i] = doc
		}(i, u)
	}
	wg.Wait()
	return docs
}

// placeholderDoc stands in for a URL that could not be converted.
func placeholderDoc(url string, cause error) *document.Document {
	doc := document.New()
	doc.Warn("failed to retrieve %s: %v", url, cause)
	doc.Append(document.NewChapter(url,
		fmt.Sprintf("Failed to retrieve content from <%s>.\n\n%v", url, cause)))
	return doc
}
