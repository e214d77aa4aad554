package document

import (
	"regexp"
	"strings"
)

var imageRefRe = regexp.MustCompile(`!\[[^\]]*\]\(images/([^)\s]+)\)`)

// imageRefNames extracts the asset names referenced by markdown image links.
func imageRefNames(markdown string) []string {
	var names []string
	for _, m := range imageRefRe.FindAllStringSubmatch(markdown, -1) {
		names = append(names, m[1])
	}
	return names
}

var headingRe = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*\s*$`)

// FirstHeading returns the text of the first ATX heading, or "".
func FirstHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if m := headingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1]
		}
	}
	return ""
}

// SplitBlocks splits Markdown into paragraph-level blocks at blank lines,
// keeping fenced code blocks whole even when they contain blank lines.
func SplitBlocks(markdown string) []string {
	var blocks []string
	var cur []string
	inFence := false

	flush := func() {
		if len(cur) == 0 {
			return
		}
		block := strings.TrimRight(strings.Join(cur, "\n"), "\n")
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
		cur = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			cur = append(cur, line)
			continue
		}
		if trimmed == "" && !inFence {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}

var linkRe = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)

// StripMarkdown removes common markup so a body can serve as plain title text.
func StripMarkdown(markdown string) string {
	s := imageRefRe.ReplaceAllString(markdown, "")
	s = linkRe.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("**", "", "`", "", "#", "", ">", "").Replace(s)
	return strings.TrimSpace(s)
}
