package clip

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Kind
	}{
		{"plain prose", "Hello world. This is a note.", KindPlain},
		{"empty after trim", "   \n\t  ", KindUnknown},
		{"single url", "https://example.com/article", KindURL},
		{"url list", "https://example.com/a\nhttps://example.com/b\n\nhttps://example.com/c", KindURL},
		{"http url", "http://example.com", KindURL},
		{"not a url", "example.com has no scheme", KindPlain},
		{"mixed urls and prose", "Check these out:\nhttps://example.com/a\nhttps://example.com/b\nGreat reads.", KindMixed},
		{"single url with prose is not mixed", "Read this:\nhttps://example.com/a", KindPlain},
		{"html document", "<html><body><p>hi</p></body></html>", KindHTML},
		{"html fragment", "<div class=\"x\"><p>one</p><p>two</p></div>", KindHTML},
		{"angle brackets alone", "a < b and b > c", KindPlain},
		{"markdown heading", "# Title\n\nBody text here.", KindMarkdown},
		{"markdown markers", "Some **bold** and a [link](https://example.com/x) inline.", KindMarkdown},
		{"one weak marker", "a *starred* word", KindPlain},
		{"rtf", `{\rtf1\ansi\deff0 {\fonttbl{\f0 Times;}}\f0 Hello\par}`, KindRTF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(NewText(tt.text))
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyImageHint(t *testing.T) {
	p := Payload{Data: []byte("not really pixels"), Hint: "image"}
	if got := Classify(p); got != KindImage {
		t.Fatalf("hinted image: got %q, want %q", got, KindImage)
	}
}

func TestClassifyImageMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	if got := Classify(Payload{Data: buf.Bytes()}); got != KindImage {
		t.Fatalf("png bytes: got %q, want %q", got, KindImage)
	}

	jpegHeader := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	if got := Classify(Payload{Data: jpegHeader}); got != KindImage {
		t.Fatalf("jpeg bytes: got %q, want %q", got, KindImage)
	}
}

func TestClassifyBinaryGarbage(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0xFE, 0x00, 0x7F}
	if got := Classify(Payload{Data: data}); got != KindUnknown {
		t.Fatalf("binary: got %q, want %q", got, KindUnknown)
	}
}

// Classification is total and deterministic: repeated calls agree and nothing
// panics across every kind of input.
func TestClassifyDeterministic(t *testing.T) {
	inputs := []Payload{
		NewText(""),
		NewText("plain"),
		NewText("# md"),
		NewText("<p>x</p><p>y</p><p>z</p>"),
		NewText("https://example.com"),
		NewText(`{\rtf1 x}`),
		{Data: []byte{0xFF, 0xD8, 0xFF}},
		{},
	}
	for _, p := range inputs {
		first := Classify(p)
		for i := 0; i < 3; i++ {
			if got := Classify(p); got != first {
				t.Fatalf("nondeterministic classification for %q: %q then %q", p.Data, first, got)
			}
		}
	}
}

func TestPayloadEmpty(t *testing.T) {
	if !NewText("   ").Empty() {
		t.Error("whitespace payload should be empty")
	}
	if NewText("x").Empty() {
		t.Error("text payload should not be empty")
	}
	if (Payload{Data: []byte{0xFF, 0xD8, 0xFF}, Hint: "image"}).Empty() {
		t.Error("image payload should not be empty")
	}
	if !(Payload{}).Empty() {
		t.Error("zero payload should be empty")
	}
}
