package convert

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"clipbook/clip"
	"clipbook/document"
	"clipbook/fetch"
	"clipbook/store"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: no such page", fetch.ErrUnreachable)
	}
	return &fetch.Result{Body: []byte(body), StatusCode: 200}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func articlePage(title string) string {
	return `<html><head><title>` + title + `</title></head><body><article><h1>` + title + `</h1>
<p>Article body content long enough to pass the extraction threshold, with a
second sentence to make sure of it.</p></article></body></html>`
}

func testConverter(t *testing.T, mutate func(*Config), f *fakeFetcher) *Converter {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "clipbook.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	deps := Deps{
		Store:  st,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if f != nil {
		deps.Fetcher = f
	}
	return New(cfg, deps)
}

func readChapter(t *testing.T, path string, n int) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer zr.Close()
	name := fmt.Sprintf("OEBPS/chapter-%03d.xhtml", n)
	for _, file := range zr.File {
		if file.Name == name {
			rc, err := file.Open()
			if err != nil {
				t.Fatal(err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatal(err)
			}
			return string(data)
		}
	}
	t.Fatalf("%s not found in %s", name, path)
	return ""
}

func TestConvertPlainText(t *testing.T) {
	c := testConverter(t, nil, nil)

	res, err := c.Convert(context.Background(), clip.NewText("Hello world."), document.Overrides{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Kind != clip.KindPlain {
		t.Errorf("Kind = %q", res.Kind)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if body := readChapter(t, res.Path, 1); !strings.Contains(body, "Hello world.") {
		t.Errorf("chapter body = %q", body)
	}
}

func TestConvertMarkdownTitle(t *testing.T) {
	c := testConverter(t, nil, nil)

	res, err := c.Convert(context.Background(),
		clip.NewText("# Title\n\nSome **bold** text."), document.Overrides{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Title != "Title" {
		t.Errorf("Title = %q, want first heading", res.Title)
	}
	body := readChapter(t, res.Path, 1)
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "<strong>bold</strong>") {
		t.Errorf("heading or emphasis lost: %q", body)
	}
}

func TestConvertEmptyPayload(t *testing.T) {
	c := testConverter(t, nil, nil)
	_, err := c.Convert(context.Background(), clip.NewText("   "), document.Overrides{})
	if !IsCode(err, EmptyInput) {
		t.Fatalf("err = %v, want EmptyInput", err)
	}
}

func TestConvertTitleOverride(t *testing.T) {
	c := testConverter(t, nil, nil)
	res, err := c.Convert(context.Background(),
		clip.NewText("# Content Title\n\nBody."), document.Overrides{Title: "Chosen Title"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Title != "Chosen Title" {
		t.Errorf("Title = %q, override must win", res.Title)
	}
}

func TestConvertSingleURLFailure(t *testing.T) {
	c := testConverter(t, nil, &fakeFetcher{})
	_, err := c.Convert(context.Background(),
		clip.NewText("https://down.example/only"), document.Overrides{})
	if !IsCode(err, FetchError) {
		t.Fatalf("err = %v, want FetchError", err)
	}
}

func TestConvertURLBatchFailureIsolation(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://a.example/1": articlePage("One"),
		"https://a.example/3": articlePage("Three"),
	}}
	c := testConverter(t, nil, f)

	res, err := c.Convert(context.Background(),
		clip.NewText("https://a.example/1\nhttps://a.example/2\nhttps://a.example/3"),
		document.Overrides{})
	if err != nil {
		t.Fatalf("batch must not fail on one url: %v", err)
	}
	if res.Chapters != 3 {
		t.Errorf("Chapters = %d, want 3", res.Chapters)
	}
	if body := readChapter(t, res.Path, 2); !strings.Contains(body, "Failed to retrieve") {
		t.Errorf("no placeholder chapter: %q", body)
	}
	if len(res.Warnings) == 0 {
		t.Errorf("expected a warning for the failed url")
	}
}

func TestConvertCacheIdempotence(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://a.example/page": articlePage("Cached Story"),
	}}
	c := testConverter(t, nil, f)
	payload := clip.NewText("https://a.example/page")

	first, err := c.Convert(context.Background(), payload, document.Overrides{})
	if err != nil {
		t.Fatalf("first Convert: %v", err)
	}
	fetches := f.callCount()

	second, err := c.Convert(context.Background(), payload, document.Overrides{})
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	if !second.CacheHit {
		t.Errorf("second conversion should hit the cache")
	}
	if second.Path != first.Path {
		t.Errorf("paths differ: %q vs %q", first.Path, second.Path)
	}
	if second.Title != first.Title || second.Chapters != first.Chapters {
		t.Errorf("hit result = %+v, want outcome fields from %+v", second, first)
	}
	if f.callCount() != fetches {
		t.Errorf("cache hit must not re-fetch: %d → %d calls", fetches, f.callCount())
	}

	entries, err := c.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("history entries = %d, want one per conversion", len(entries))
	}
	if entries[0].Path != first.Path || entries[0].Title != first.Title {
		t.Errorf("hit entry = %+v", entries[0])
	}
}

func TestConvertImageCapFromConfig(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://img.example/big.png": strings.Repeat("x", 1<<20),
	}}
	c := testConverter(t, func(cfg *Config) { cfg.ImageMaxMB = 1 }, f)

	md := "# Picture Post\n\nBody with ![big](https://img.example/big.png) inline, plus enough text around it."
	res, err := c.Convert(context.Background(), clip.NewText(md), document.Overrides{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	capped := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "exceeds size cap") {
			capped = true
		}
	}
	if !capped {
		t.Errorf("oversized image not rejected by the configured cap: %v", res.Warnings)
	}
	if body := readChapter(t, res.Path, 1); strings.Contains(body, "big.png") {
		t.Errorf("oversized image reference survived: %q", body)
	}
}

func TestConvertCacheDisabled(t *testing.T) {
	c := testConverter(t, func(cfg *Config) { cfg.CacheHours = 0 }, nil)
	payload := clip.NewText("Same content both times.")

	first, err := c.Convert(context.Background(), payload, document.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Convert(context.Background(), payload, document.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHit {
		t.Errorf("cache disabled but got a hit")
	}
	if first.Path == second.Path {
		t.Errorf("collision handling failed: both wrote %s", first.Path)
	}
}

func TestConvertCacheMissOnDeletedFile(t *testing.T) {
	c := testConverter(t, nil, nil)
	payload := clip.NewText("Content that will be cached.")

	first, err := c.Convert(context.Background(), payload, document.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(first.Path); err != nil {
		t.Fatal(err)
	}

	second, err := c.Convert(context.Background(), payload, document.Overrides{})
	if err != nil {
		t.Fatalf("Convert after deletion: %v", err)
	}
	if second.CacheHit {
		t.Errorf("deleted file must not count as a cache hit")
	}
	if _, err := os.Stat(second.Path); err != nil {
		t.Errorf("book not rewritten: %v", err)
	}
}

func TestAccumulateAndCombine(t *testing.T) {
	c := testConverter(t, nil, nil)
	ctx := context.Background()

	for i, text := range []string{"# First\n\nAlpha body.", "Beta body.", "Gamma body."} {
		count, err := c.Accumulate(ctx, clip.NewText(text))
		if err != nil {
			t.Fatalf("Accumulate %d: %v", i, err)
		}
		if count != i+1 {
			t.Errorf("count = %d, want %d", count, i+1)
		}
	}

	res, err := c.Combine(ctx, document.Overrides{})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if res.Chapters != 3 {
		t.Fatalf("Chapters = %d, want 3", res.Chapters)
	}
	if body := readChapter(t, res.Path, 1); !strings.Contains(body, "Alpha") {
		t.Errorf("chapter order lost: %q", body)
	}
	if body := readChapter(t, res.Path, 3); !strings.Contains(body, "Gamma") {
		t.Errorf("chapter order lost: %q", body)
	}
	if c.AccumulatedCount() != 0 {
		t.Errorf("combine must clear the accumulator")
	}
}

func TestCombineEmptyAccumulator(t *testing.T) {
	c := testConverter(t, nil, nil)
	_, err := c.Combine(context.Background(), document.Overrides{})
	if !IsCode(err, EmptyInput) {
		t.Fatalf("err = %v, want EmptyInput", err)
	}
}

func TestClearAccumulator(t *testing.T) {
	c := testConverter(t, nil, nil)
	ctx := context.Background()

	if _, err := c.Accumulate(ctx, clip.NewText("something")); err != nil {
		t.Fatal(err)
	}
	c.ClearAccumulator()

	_, err := c.Combine(ctx, document.Overrides{})
	if !IsCode(err, EmptyInput) {
		t.Fatalf("err = %v, want EmptyInput after clear", err)
	}
}

func TestConvertSegmentsLongContent(t *testing.T) {
	c := testConverter(t, func(cfg *Config) { cfg.ChapterWords = 20 }, nil)

	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "Paragraph %d has exactly these ten words inside of it.\n\n", i)
	}
	res, err := c.Convert(context.Background(), clip.NewText(sb.String()), document.Overrides{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Chapters < 2 {
		t.Errorf("Chapters = %d, want content split", res.Chapters)
	}
}

func TestHistoryRecorded(t *testing.T) {
	c := testConverter(t, nil, nil)
	ctx := context.Background()

	res, err := c.Convert(ctx, clip.NewText("# Logged\n\nSome body."), document.Overrides{})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := c.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Path != res.Path || entries[0].Title != "Logged" {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[0].SourceKind != string(clip.KindMarkdown) {
		t.Errorf("SourceKind = %q", entries[0].SourceKind)
	}
	if entries[0].SizeBytes == 0 {
		t.Errorf("SizeBytes not recorded")
	}
}
