package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// readPageMeta fills Title, Byline, and Published from the document head:
// <title>, Open Graph tags, standard meta names, and <time datetime>.
func readPageMeta(doc *html.Node, art *Article) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if art.Title == "" && n.FirstChild != nil {
					art.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Meta:
				readMetaTag(n, art)
			case atom.Time:
				if art.Published == "" {
					if dt := attrValue(n, "datetime"); dt != "" {
						art.Published = dt
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

func readMetaTag(n *html.Node, art *Article) {
	key := attrValue(n, "name")
	if key == "" {
		key = attrValue(n, "property")
	}
	content := strings.TrimSpace(attrValue(n, "content"))
	if content == "" {
		return
	}
	switch strings.ToLower(key) {
	case "og:title", "twitter:title":
		// Social titles usually lack the site-name suffix; prefer them.
		art.Title = content
	case "author", "article:author", "parsely-author", "sailthru.author":
		if art.Byline == "" {
			art.Byline = content
		}
	case "article:published_time", "date", "parsely-pub-date", "datepublished", "article:modified_time":
		if art.Published == "" {
			art.Published = content
		}
	}
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
