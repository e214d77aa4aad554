package document

import (
	"fmt"
	"strings"
)

// Segment splits over-threshold chapters at paragraph boundaries and sets the
// document's navigation flag. maxWords <= 0 disables splitting. Splits never
// land mid-paragraph: the paragraph that crosses the threshold closes the
// part, so a part may slightly exceed maxWords but the resulting part count
// never exceeds ceil(words/maxWords).
func Segment(d *Document, maxWords int) {
	if maxWords > 0 {
		var out []Chapter
		for _, ch := range d.Chapters {
			out = append(out, splitChapter(ch, maxWords)...)
		}
		d.Chapters = out
	}
	d.NeedsNav = len(d.Chapters) > 1
}

func splitChapter(ch Chapter, maxWords int) []Chapter {
	if ch.Words <= maxWords {
		return []Chapter{ch}
	}

	blocks := SplitBlocks(ch.Markdown)
	var parts []string
	var cur []string
	words := 0
	for _, block := range blocks {
		cur = append(cur, block)
		words += CountWords(block)
		if words >= maxWords {
			parts = append(parts, strings.Join(cur, "\n\n"))
			cur = nil
			words = 0
		}
	}
	if len(cur) > 0 {
		parts = append(parts, strings.Join(cur, "\n\n"))
	}

	if len(parts) <= 1 {
		return []Chapter{ch}
	}
	out := make([]Chapter, 0, len(parts))
	for i, body := range parts {
		out = append(out, NewChapter(fmt.Sprintf("%s (Part %d)", ch.Title, i+1), body))
	}
	return out
}
