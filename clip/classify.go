package clip

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
)

// Classify determines the content kind of a payload. It is a pure function of
// the payload bytes and the declared hint. First match wins: image hint or
// image magic bytes, URL grammar, mixed URL+prose, HTML tag density, Markdown
// marker score, RTF signature, plain text. Unknown only for payloads with no
// recognizable text at all.
func Classify(p Payload) Kind {
	if p.Hint == "image" || sniffImage(p.Data) {
		return KindImage
	}
	if !p.looksTextual() {
		return KindUnknown
	}
	text := p.Text()
	if text == "" {
		return KindUnknown
	}

	urls, prose := splitLines(text)
	if len(urls) > 0 && prose == 0 {
		return KindURL
	}
	if len(urls) >= 2 && prose > 0 {
		return KindMixed
	}
	if isHTML(text) {
		return KindHTML
	}
	if isMarkdown(text) {
		return KindMarkdown
	}
	if strings.HasPrefix(text, `{\rtf`) {
		return KindRTF
	}
	return KindPlain
}

// IsURLLine reports whether a single line is a bare http(s) URL.
func IsURLLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.ContainsAny(line, " \t") {
		return false
	}
	u, err := url.Parse(line)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// splitLines counts URL lines and non-empty prose lines.
func splitLines(text string) (urls []string, prose int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsURLLine(line) {
			urls = append(urls, line)
		} else {
			prose++
		}
	}
	return urls, prose
}

var (
	htmlStructuralRe = regexp.MustCompile(`(?i)<(html|body|div|p|span|h[1-6]|article|section|table|ul|ol)\b[^>]*>`)
	htmlAnyTagRe     = regexp.MustCompile(`<[^>]+>`)
)

// isHTML requires either a structural tag or a minimum overall tag density.
func isHTML(text string) bool {
	if htmlStructuralRe.MatchString(text) {
		return true
	}
	return len(htmlAnyTagRe.FindAllStringIndex(text, 4)) >= 3
}

var markdownMarkerRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s+\S`),          // ATX heading
	regexp.MustCompile(`\*\*[^*\n]+\*\*`),           // bold
	regexp.MustCompile(`(?m)^\s*[-*+]\s+\S`),        // unordered list
	regexp.MustCompile(`(?m)^\s*\d+\.\s+\S`),        // ordered list
	regexp.MustCompile(`\[[^\]\n]+\]\([^)\n]+\)`),   // link or image
	regexp.MustCompile("(?m)^```"),                  // fenced code
	regexp.MustCompile("`[^`\n]+`"),                 // inline code
	regexp.MustCompile(`(?m)^>\s+\S`),               // blockquote
}

// isMarkdown treats a leading heading as a strong signal on its own;
// otherwise it requires two distinct marker classes.
func isMarkdown(text string) bool {
	if markdownMarkerRes[0].MatchString(text) {
		return true
	}
	score := 0
	for _, re := range markdownMarkerRes[1:] {
		if re.MatchString(text) {
			score++
		}
	}
	return score >= 2
}

var imageMagics = [][]byte{
	{0x89, 'P', 'N', 'G'},
	{0xFF, 0xD8, 0xFF},
	[]byte("GIF87a"),
	[]byte("GIF89a"),
	{'I', 'I', 0x2A, 0x00}, // TIFF little-endian
	{'M', 'M', 0x00, 0x2A}, // TIFF big-endian
}

// sniffImage checks well-known image magic bytes, including WEBP's RIFF box.
// BMP needs its reserved bytes checked too: a bare "BM" prefix is common in text.
func sniffImage(data []byte) bool {
	for _, magic := range imageMagics {
		if bytes.HasPrefix(data, magic) {
			return true
		}
	}
	if len(data) >= 14 && data[0] == 'B' && data[1] == 'M' &&
		data[6] == 0 && data[7] == 0 && data[8] == 0 && data[9] == 0 {
		return true
	}
	return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}
