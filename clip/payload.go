// Package clip models raw clipboard captures and classifies their content.
//
// A Payload is an opaque blob plus an optional hint from the source clipboard
// API. Classify inspects the payload and assigns one of a closed set of
// content kinds; classification is deterministic and never fails. Unknown is
// the terminal fallback and downstream treats it as plain text.
package clip

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Kind identifies the semantic type of a clipboard payload.
type Kind string

const (
	KindPlain    Kind = "plain"
	KindMarkdown Kind = "markdown"
	KindHTML     Kind = "html"
	KindRTF      Kind = "rtf"
	KindURL      Kind = "url"
	KindImage    Kind = "image"
	KindMixed    Kind = "mixed"
	KindUnknown  Kind = "unknown"
)

// Kinds returns all classifiable content kinds.
func Kinds() []Kind {
	return []Kind{KindPlain, KindMarkdown, KindHTML, KindRTF, KindURL, KindImage, KindMixed, KindUnknown}
}

// Payload is one raw clipboard capture. Immutable once constructed; the
// conversion core owns the value for the duration of a single call.
type Payload struct {
	Data       []byte
	Hint       string // optional MIME-like hint from the clipboard API: "image", "html", "text"
	CapturedAt time.Time
}

// NewText builds a text payload captured now.
func NewText(text string) Payload {
	return Payload{Data: []byte(text), CapturedAt: time.Now()}
}

// NewImage builds an image payload captured now.
func NewImage(data []byte) Payload {
	return Payload{Data: data, Hint: "image", CapturedAt: time.Now()}
}

// Text returns the payload as a string with surrounding whitespace trimmed.
// Binary payloads return whatever valid text prefix they carry; callers that
// hold image data should not go through Text.
func (p Payload) Text() string {
	return strings.TrimSpace(string(p.Data))
}

// Empty reports whether the payload carries no usable content.
func (p Payload) Empty() bool {
	if len(p.Data) == 0 {
		return true
	}
	if p.Hint == "image" || sniffImage(p.Data) {
		return false
	}
	return p.Text() == ""
}

// looksTextual reports whether the payload is plausibly text rather than an
// undeclared binary blob.
func (p Payload) looksTextual() bool {
	if !utf8.Valid(p.Data) {
		return false
	}
	for _, b := range p.Data[:min(len(p.Data), 512)] {
		if b == 0 {
			return false
		}
	}
	return true
}
