package document

import (
	"fmt"
	"strings"
	"testing"
)

// paragraphs builds n paragraphs of wordsEach identical words.
func paragraphs(n, wordsEach int) string {
	para := strings.TrimSpace(strings.Repeat("word ", wordsEach))
	parts := make([]string, n)
	for i := range parts {
		parts[i] = para
	}
	return strings.Join(parts, "\n\n")
}

func TestSegmentPassThrough(t *testing.T) {
	d := New()
	d.Append(NewChapter("Only", paragraphs(3, 10)))

	Segment(d, 0)
	if len(d.Chapters) != 1 {
		t.Fatalf("maxWords=0: got %d chapters, want 1", len(d.Chapters))
	}
	if d.NeedsNav {
		t.Error("single chapter should not need nav")
	}

	Segment(d, 100)
	if len(d.Chapters) != 1 {
		t.Fatalf("under threshold: got %d chapters, want 1", len(d.Chapters))
	}
}

func TestSegmentCeiling(t *testing.T) {
	tests := []struct {
		paras, wordsEach, maxWords int
	}{
		{10, 10, 30},
		{7, 13, 25},
		{20, 5, 7},
		{3, 50, 40},
		{6, 9, 54}, // threshold divides total exactly
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%dx%d_max%d", tt.paras, tt.wordsEach, tt.maxWords)
		t.Run(name, func(t *testing.T) {
			d := New()
			d.Append(NewChapter("Long", paragraphs(tt.paras, tt.wordsEach)))
			total := d.WordCount()

			Segment(d, tt.maxWords)

			ceiling := (total + tt.maxWords - 1) / tt.maxWords
			if len(d.Chapters) > ceiling {
				t.Errorf("got %d chapters, ceiling is %d (total=%d max=%d)",
					len(d.Chapters), ceiling, total, tt.maxWords)
			}
			sum := 0
			for i, ch := range d.Chapters {
				if ch.Words == 0 {
					t.Errorf("chapter %d has zero words", i)
				}
				sum += ch.Words
			}
			if sum != total {
				t.Errorf("word counts: got %d, want %d", sum, total)
			}
		})
	}
}

func TestSegmentReconstructsContent(t *testing.T) {
	src := paragraphs(8, 12)
	d := New()
	d.Append(NewChapter("Long", src))

	Segment(d, 30)
	if len(d.Chapters) < 2 {
		t.Fatalf("expected a split, got %d chapters", len(d.Chapters))
	}

	var bodies []string
	for _, ch := range d.Chapters {
		bodies = append(bodies, ch.Markdown)
	}
	if got := strings.Join(bodies, "\n\n"); got != src {
		t.Errorf("concatenated parts do not reconstruct source:\ngot:  %q\nwant: %q", got, src)
	}
	if !d.NeedsNav {
		t.Error("multi-chapter document should need nav")
	}
}

func TestSegmentPartTitles(t *testing.T) {
	d := New()
	d.Append(NewChapter("Essay", paragraphs(4, 20)))

	Segment(d, 20)
	for i, ch := range d.Chapters {
		want := fmt.Sprintf("Essay (Part %d)", i+1)
		if ch.Title != want {
			t.Errorf("chapter %d title: got %q, want %q", i, ch.Title, want)
		}
	}
}

func TestSegmentKeepsFencedBlocksWhole(t *testing.T) {
	fence := "```\ncode line\n\nmore code\n```"
	src := paragraphs(1, 30) + "\n\n" + fence + "\n\n" + paragraphs(1, 30)
	d := New()
	d.Append(NewChapter("Code", src))

	Segment(d, 25)
	for _, ch := range d.Chapters {
		open := strings.Count(ch.Markdown, "```")
		if open%2 != 0 {
			t.Errorf("fence split across chapters:\n%s", ch.Markdown)
		}
	}
}

func TestAppendDropsEmptyChapter(t *testing.T) {
	d := New()
	d.Append(NewChapter("Empty", "   \n\n  "))
	d.Append(NewChapter("Real", "some words here"))
	if len(d.Chapters) != 1 || d.Chapters[0].Title != "Real" {
		t.Fatalf("expected only the non-empty chapter, got %+v", d.Chapters)
	}
}

func TestMergeOrderAndImageCollisions(t *testing.T) {
	a := New()
	a.Title = "First"
	a.Append(NewChapter("A", "alpha ![x](images/img-1.jpg)"))
	a.AddImage("img-1.jpg", Image{Data: []byte{1}, MediaType: "image/jpeg"})

	b := New()
	b.Append(NewChapter("B", "beta ![y](images/img-1.jpg)"))
	b.AddImage("img-1.jpg", Image{Data: []byte{2}, MediaType: "image/jpeg"})

	m := Merge(a, b)
	if m.Title != "First" {
		t.Errorf("merged title: got %q", m.Title)
	}
	if got := []string{m.Chapters[0].Title, m.Chapters[1].Title}; got[0] != "A" || got[1] != "B" {
		t.Fatalf("chapter order: got %v", got)
	}
	if len(m.Images) != 2 {
		t.Fatalf("images: got %d, want 2", len(m.Images))
	}
	if _, ok := m.Images["img-1-2.jpg"]; !ok {
		t.Fatalf("expected renamed image img-1-2.jpg, have %v", m.ImageRefs())
	}
	if !strings.Contains(m.Chapters[1].Markdown, "images/img-1-2.jpg") {
		t.Errorf("second chapter should reference the renamed image: %q", m.Chapters[1].Markdown)
	}
	// Every reference resolves.
	for _, ref := range m.ImageRefs() {
		if _, ok := m.Images[ref]; !ok {
			t.Errorf("dangling image reference %q", ref)
		}
	}
}
