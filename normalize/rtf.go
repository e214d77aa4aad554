package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"clipbook/clip"
	"clipbook/document"
)

// normalizeRTF recovers plain text plus paragraph breaks and bold/italic runs
// from an RTF payload. Anything beyond that degrades to plain text.
func (n *Normalizer) normalizeRTF(p clip.Payload) (*document.Document, error) {
	doc := document.New()
	doc.Append(document.NewChapter("", parseRTF(p.Data)))
	return doc, nil
}

// rtfDestinations are groups whose content is metadata, not document text.
var rtfDestinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"listtable":  true,
	"info":       true,
	"pict":       true,
	"object":     true,
	"themedata":  true,
	"generator":  true,
	"header":     true,
	"footer":     true,
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// parseRTF is a minimal RTF reader: it tracks group nesting to skip metadata
// destinations, decodes \'hh and \uN escapes, turns \par into paragraph
// breaks, and renders \b / \i runs as Markdown emphasis.
func parseRTF(data []byte) string {
	var out []byte
	skipDepth := 0 // depth at which a skipped destination group started; 0 = not skipping
	depth := 0
	bold, italic := false, false
	pendingSkip := 0 // fallback chars to swallow after \uN

	skipping := func() bool { return skipDepth > 0 }

	write := func(s string) {
		if skipping() {
			return
		}
		for pendingSkip > 0 && len(s) > 0 {
			pendingSkip--
			s = s[1:]
		}
		out = append(out, s...)
	}

	// closeMark appends a closing emphasis marker, hopping over a trailing
	// space so the Markdown stays valid.
	closeMark := func(mark string) {
		if n := len(out); n > 0 && out[n-1] == ' ' {
			out = append(out[:n-1], mark...)
			out = append(out, ' ')
			return
		}
		out = append(out, mark...)
	}

	toggle := func(on bool, open *bool, mark string) {
		if skipping() || on == *open {
			return
		}
		*open = on
		if on {
			out = append(out, mark...)
		} else {
			closeMark(mark)
		}
	}

	i := 0
	for i < len(data) {
		c := data[i]
		switch c {
		case '{':
			depth++
			i++
		case '}':
			if skipDepth == depth {
				skipDepth = 0
			}
			if depth > 0 {
				depth--
			}
			i++
		case '\r', '\n':
			i++ // raw newlines are not document text
		case '\\':
			i++
			if i >= len(data) {
				break
			}
			sym := data[i]
			if !isRTFLetter(sym) {
				i++
				switch sym {
				case '\\', '{', '}':
					write(string(sym))
				case '~':
					write(" ")
				case '_':
					write("-")
				case '\'':
					if i+2 <= len(data) {
						if b, err := strconv.ParseUint(string(data[i:i+2]), 16, 8); err == nil {
							write(string(charmap.Windows1252.DecodeByte(byte(b))))
						}
						i += 2
					}
				case '*':
					if !skipping() {
						skipDepth = depth // unknown destination
					}
				}
				continue
			}

			word, param, hasParam := readRTFWord(data, &i)
			switch word {
			case "par", "line":
				toggle(false, &bold, "**")
				toggle(false, &italic, "*")
				write("\n\n")
			case "tab":
				write(" ")
			case "b":
				toggle(!(hasParam && param == 0), &bold, "**")
			case "i":
				toggle(!(hasParam && param == 0), &italic, "*")
			case "u":
				if hasParam {
					r := rune(param)
					if r < 0 {
						r += 65536
					}
					write(string(r))
					if !skipping() {
						pendingSkip = 1
					}
				}
			default:
				if rtfDestinations[word] && !skipping() {
					skipDepth = depth
				}
			}
		default:
			if pendingSkip > 0 && !skipping() {
				pendingSkip--
			} else {
				write(string(c))
			}
			i++
		}
	}

	toggle(false, &bold, "**")
	toggle(false, &italic, "*")

	text := blankRunRe.ReplaceAllString(string(out), "\n\n")
	return strings.TrimSpace(text)
}

// readRTFWord consumes a control word plus optional numeric parameter and the
// single delimiting space. i points just past the backslash on entry.
func readRTFWord(data []byte, i *int) (word string, param int, hasParam bool) {
	start := *i
	for *i < len(data) && isRTFLetter(data[*i]) {
		*i++
	}
	word = string(data[start:*i])

	numStart := *i
	if *i < len(data) && data[*i] == '-' {
		*i++
	}
	for *i < len(data) && data[*i] >= '0' && data[*i] <= '9' {
		*i++
	}
	if *i > numStart {
		if v, err := strconv.Atoi(string(data[numStart:*i])); err == nil {
			param, hasParam = v, true
		}
	}

	if *i < len(data) && data[*i] == ' ' {
		*i++
	}
	return word, param, hasParam
}

func isRTFLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
