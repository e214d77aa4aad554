package normalize

import (
	"context"
	"strings"

	"clipbook/clip"
	"clipbook/document"
)

// mixedRun is one homogeneous stretch of a mixed payload: either consecutive
// URL lines or a block of prose.
type mixedRun struct {
	urls  []string
	prose string
}

// normalizeMixed handles payloads that interleave URLs with prose. Each URL
// yields one chapter (placeholder on failure, batch semantics) and each prose
// run between URL groups yields one chapter, in capture order.
func (n *Normalizer) normalizeMixed(ctx context.Context, p clip.Payload) (*document.Document, error) {
	runs := splitMixedRuns(p.Text())

	var urls []string
	for _, r := range runs {
		urls = append(urls, r.urls...)
	}
	fetched := n.fetchBatch(ctx, urls)

	var docs []*document.Document
	next := 0
	for _, r := range runs {
		if len(r.urls) > 0 {
			docs = append(docs, fetched[next:next+len(r.urls)]...)
			next += len(r.urls)
			continue
		}
		proseDoc, err := n.normalizeMarkdown(ctx, clip.NewText(r.prose))
		if err != nil {
			return nil, err
		}
		docs = append(docs, proseDoc)
	}
	return document.Merge(docs...), nil
}

// splitMixedRuns groups the payload's lines into URL runs and prose runs.
// Blank lines separate nothing by themselves; they stay inside prose and are
// skipped between URLs.
func splitMixedRuns(text string) []mixedRun {
	var runs []mixedRun
	var urls, prose []string

	flushURLs := func() {
		if len(urls) > 0 {
			runs = append(runs, mixedRun{urls: urls})
			urls = nil
		}
	}
	flushProse := func() {
		joined := strings.TrimSpace(strings.Join(prose, "\n"))
		if joined != "" {
			runs = append(runs, mixedRun{prose: joined})
		}
		prose = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case clip.IsURLLine(trimmed):
			flushProse()
			urls = append(urls, trimmed)
		case trimmed == "" && len(urls) > 0:
			// blank inside a URL group, ignore
		default:
			flushURLs()
			prose = append(prose, line)
		}
	}
	flushURLs()
	flushProse()
	return runs
}
