package normalize

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"clipbook/document"
)

// remoteImageRe matches Markdown image references pointing at remote URLs.
var remoteImageRe = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^)\s]+)\)`)

// localImageRe matches references into the document's own image namespace.
var localImageRe = regexp.MustCompile(`!\[[^\]]*\]\(images/([^)\s]+)\)`)

// dropDanglingImageRefs removes chapter references to images the document
// does not carry. The assembler rejects documents with unresolved
// references, so every normalized document must leave here satisfying that
// check.
func (n *Normalizer) dropDanglingImageRefs(doc *document.Document) {
	for i, ch := range doc.Chapters {
		md := localImageRe.ReplaceAllStringFunc(ch.Markdown, func(m string) string {
			name := localImageRe.FindStringSubmatch(m)[1]
			if _, ok := doc.Images[name]; ok {
				return m
			}
			doc.Warn("dropped reference to missing image images/%s", name)
			n.cfg.Logger.Warn("dangling image reference dropped", "name", name)
			return ""
		})
		if md != ch.Markdown {
			doc.Chapters[i] = document.NewChapter(ch.Title, md)
		}
	}
}

// imageNamer hands out sequential asset names within one document.
type imageNamer struct {
	n int
}

func (in *imageNamer) next(ext string) string {
	in.n++
	return fmt.Sprintf("img-%d%s", in.n, ext)
}

// embedRemoteImages downloads every remote image referenced in md, stores the
// bytes in doc under a generated name, and rewrites the references to
// images/<name>. A failed download drops the reference and attaches a warning
// instead of failing the normalization.
func (n *Normalizer) embedRemoteImages(ctx context.Context, md string, doc *document.Document, namer *imageNamer) string {
	matches := remoteImageRe.FindAllStringSubmatch(md, -1)
	if len(matches) == 0 {
		return md
	}

	var urls []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			urls = append(urls, m[1])
		}
	}

	type download struct {
		img document.Image
		err error
	}
	results := make([]download, len(urls))

	if n.cfg.Fetcher == nil {
		for i := range results {
			results[i].err = fmt.Errorf("no fetcher configured")
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, n.cfg.Workers)
		for i, u := range urls {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, u string) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i].img, results[i].err = n.downloadImage(ctx, u)
			}(i, u)
		}
		wg.Wait()
	}

	// Names are assigned after the join so they follow reference order.
	fetched := make(map[string]string)
	for i, u := range urls {
		if results[i].err != nil {
			doc.Warn("dropped image %s: %v", u, results[i].err)
			n.cfg.Logger.Warn("inline image dropped", "url", u, "error", results[i].err)
			continue
		}
		name := namer.next(extForMediaType(results[i].img.MediaType))
		doc.AddImage(name, results[i].img)
		fetched[u] = name
	}

	return remoteImageRe.ReplaceAllStringFunc(md, func(m string) string {
		sub := remoteImageRe.FindStringSubmatch(m)
		name, ok := fetched[sub[1]]
		if !ok {
			return ""
		}
		return strings.Replace(m, sub[1], "images/"+name, 1)
	})
}

// downloadImage fetches one inline image, enforcing the image size cap and
// verifying the payload actually is an image.
func (n *Normalizer) downloadImage(ctx context.Context, url string) (document.Image, error) {
	res, err := n.cfg.Fetcher.Fetch(ctx, url)
	if err != nil {
		return document.Image{}, err
	}
	if int64(len(res.Body)) >= n.cfg.MaxImageBytes {
		return document.Image{}, fmt.Errorf("exceeds size cap (%d bytes)", n.cfg.MaxImageBytes)
	}
	mt := mediaType(res.ContentType, res.Body)
	if !strings.HasPrefix(mt, "image/") {
		return document.Image{}, fmt.Errorf("not an image (%s)", mt)
	}
	return document.Image{Data: res.Body, MediaType: mt}, nil
}

// mediaType prefers a declared image content type, sniffing otherwise.
func mediaType(declared string, data []byte) string {
	if mt, _, found := strings.Cut(declared, ";"); found || mt != "" {
		mt = strings.TrimSpace(mt)
		if strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	return http.DetectContentType(data)
}

func extForMediaType(mt string) string {
	switch mt {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "image/tiff":
		return ".tif"
	case "image/bmp":
		return ".bmp"
	}
	return ".bin"
}
