// Package extract pulls the main article content out of a fetched web page.
//
// The pipeline: raw HTML → parse → locate the article subtree (semantic
// landmarks first, text-density scoring as fallback) → strip boilerplate →
// cleaned HTML + text + page metadata (title, byline, publish date).
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoContent is returned when no usable article body can be located.
var ErrNoContent = errors.New("extract: no article content found")

// Article is the result of content extraction from one page.
type Article struct {
	Title     string
	Byline    string // author(s) as declared by the page, may be empty
	Published string // publish date as declared by the page, may be empty
	HTML      string // cleaned main-content HTML
	Text      string // plain text of the main content
}

// minTextLen is the smallest text length accepted as article content.
const minTextLen = 80

// Run extracts the main article from raw HTML.
func Run(rawHTML []byte) (*Article, error) {
	doc, err := html.Parse(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	art := &Article{}
	readPageMeta(doc, art)

	node := findArticleNode(doc)
	if node == nil {
		return nil, ErrNoContent
	}

	clone := cloneTree(node)
	pruneBoilerplate(clone)

	text := collectText(clone)
	if len(text) < minTextLen {
		return nil, ErrNoContent
	}

	art.HTML = renderNode(clone)
	art.Text = text
	if art.Title == "" {
		art.Title = firstHeadingText(clone)
	}
	return art, nil
}

// findArticleNode locates the subtree most likely to hold the article body.
// Semantic landmarks (<main>, <article>) win; otherwise the densest content
// node is chosen.
func findArticleNode(doc *html.Node) *html.Node {
	for _, tag := range []atom.Atom{atom.Article, atom.Main} {
		for _, n := range findAllByTag(doc, tag) {
			if len(collectText(n)) >= minTextLen {
				return n
			}
		}
	}

	body := findByTag(doc, atom.Body)
	if body == nil {
		body = doc
	}
	if best := densestNode(body); best != nil {
		return best
	}
	if len(collectText(body)) >= minTextLen {
		return body
	}
	return nil
}

// nodeScore holds density analysis for one candidate subtree.
type nodeScore struct {
	node     *html.Node
	textLen  int
	density  float64 // text length / rendered markup length
	linkDens float64 // fraction of text inside <a>
}

// densestNode scores content-bearing subtrees by text-to-markup density,
// penalizing link-heavy regions (navigation) and rewarding longer text.
func densestNode(root *html.Node) *html.Node {
	var best *nodeScore
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type != html.ElementNode || isBoilerplate(n) || !isContentTag(n.DataAtom) {
			return
		}
		text := collectText(n)
		if len(text) < minTextLen {
			return
		}
		markup := len(renderNode(n))
		if markup == 0 {
			markup = 1
		}
		linkLen := len(collectLinkText(n))
		s := &nodeScore{
			node:     n,
			textLen:  len(text),
			density:  float64(len(text)) / float64(markup),
			linkDens: float64(linkLen) / float64(len(text)),
		}
		if s.linkDens > 0.5 {
			return // mostly links, probably navigation
		}
		if best == nil || s.score() > best.score() {
			best = s
		}
	}
	walk(root)
	if best == nil {
		return nil
	}
	return best.node
}

func (s *nodeScore) score() float64 {
	scale := 1.0
	for v := s.textLen; v > 100; v /= 2 {
		scale++
	}
	return s.density * scale * (1 - s.linkDens)
}

// isContentTag reports whether a tag plausibly wraps article content.
func isContentTag(a atom.Atom) bool {
	switch a {
	case atom.Main, atom.Article, atom.Section, atom.Div,
		atom.Td, atom.Blockquote, atom.Body:
		return true
	}
	return false
}

var boilerplateMarkers = []string{
	"sidebar", "footer", "header", "navbar", "nav-", "-nav", "menu",
	"breadcrumb", "cookie", "banner", "advert", "social", "share",
	"comment", "related", "widget", "popup", "modal", "subscribe",
	"newsletter", "paywall",
}

// isBoilerplate flags nodes that are page furniture rather than content.
func isBoilerplate(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Nav, atom.Footer, atom.Header, atom.Aside,
		atom.Script, atom.Style, atom.Noscript, atom.Form,
		atom.Iframe, atom.Button, atom.Select:
		return true
	}
	for _, attr := range n.Attr {
		switch attr.Key {
		case "class", "id":
			lower := strings.ToLower(attr.Val)
			for _, marker := range boilerplateMarkers {
				if strings.Contains(lower, marker) {
					return true
				}
			}
		case "role":
			switch attr.Val {
			case "navigation", "banner", "contentinfo", "complementary", "search":
				return true
			}
		case "hidden", "aria-hidden":
			if attr.Val != "false" {
				return true
			}
		}
	}
	return false
}

// pruneBoilerplate removes furniture nodes from a cloned subtree in place.
func pruneBoilerplate(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if isBoilerplate(c) {
			n.RemoveChild(c)
		} else {
			pruneBoilerplate(c)
		}
		c = next
	}
}

// cloneTree deep-copies a node subtree so pruning never mutates the parse tree.
func cloneTree(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneTree(c))
	}
	return clone
}

// collectText extracts visible text from a subtree, skipping furniture.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collectLinkText extracts text that sits inside <a> elements.
func collectLinkText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inLink bool) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			inLink = true
		}
		if n.Type == html.TextNode && inLink {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inLink)
		}
	}
	walk(n, false)
	return sb.String()
}

// firstHeadingText returns the text of the first h1-h3 in a subtree.
func firstHeadingText(n *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3:
				found = collectText(n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func findByTag(root *html.Node, tag atom.Atom) *html.Node {
	if nodes := findAllByTag(root, tag); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

func findAllByTag(root *html.Node, tag atom.Atom) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

// renderNode serializes a subtree back to HTML.
func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	html.Render(&buf, n)
	return buf.String()
}
