// Package convert orchestrates the conversion pipeline: classify → cache
// lookup → normalize → segment → resolve metadata → assemble → record. It is
// the single entry point consumed by the CLI and the MCP surface, and the
// only layer that maps pipeline errors into the tagged failure taxonomy.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"clipbook/clip"
	"clipbook/document"
	"clipbook/epub"
	"clipbook/extract"
	"clipbook/fetch"
	"clipbook/normalize"
	"clipbook/store"
)

// Result reports one completed conversion.
type Result struct {
	Path     string    `json:"path"`
	Title    string    `json:"title,omitempty"`
	Kind     clip.Kind `json:"kind"`
	Chapters int       `json:"chapters,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
	CacheHit bool      `json:"cache_hit,omitempty"`
}

// Deps are the converter's injectable collaborators. Zero values select the
// real implementations; tests substitute fakes.
type Deps struct {
	Store   *store.Store      // nil disables cache and history
	Fetcher normalize.Fetcher // nil selects the bounded HTTP fetcher
	OCR     normalize.OCR     // nil + ocr_enabled selects tesseract
	Logger  *slog.Logger
}

// Converter runs conversions against one fixed configuration.
type Converter struct {
	cfg  Config
	norm *normalize.Normalizer
	st   *store.Store
	log  *slog.Logger
	acc  accumulator
}

// New builds a Converter.
func New(cfg Config, deps Deps) *Converter {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = fetch.New(fetch.Config{})
	}
	ocr := deps.OCR
	if ocr == nil && cfg.OCREnabled {
		ocr = &normalize.Tesseract{Lang: cfg.OCRLanguage}
	}

	return &Converter{
		cfg: cfg,
		norm: normalize.New(normalize.Config{
			Fetcher:       fetcher,
			OCR:           ocr,
			Workers:       cfg.WorkerThreads,
			MaxImageBytes: int64(cfg.ImageMaxMB) * 1024 * 1024,
			ImageQuality:  cfg.ImageQuality,
			Logger:        logger,
		}),
		st:  deps.Store,
		log: logger,
	}
}

// Convert runs a single-shot conversion of one payload. With the cache
// enabled, an unchanged payload plus unchanged configuration returns the
// previously written book without re-running normalization.
func (c *Converter) Convert(ctx context.Context, p clip.Payload, over document.Overrides) (*Result, error) {
	if p.Empty() {
		return nil, fail(EmptyInput, nil, "payload has no usable content")
	}
	kind := clip.Classify(p)

	fp := c.fingerprint(p)
	if e, ok := c.cacheLookup(ctx, fp); ok {
		c.log.Info("cache hit", "kind", kind, "path", e.Path)
		// A hit is still a successful conversion and lands in history.
		c.recordHistory(ctx, kind, e.Title, e.Path, e.Chapters)
		return &Result{
			Path:     e.Path,
			Title:    e.Title,
			Kind:     kind,
			Chapters: e.Chapters,
			CacheHit: true,
		}, nil
	}

	doc, err := c.norm.Normalize(ctx, p, kind)
	if err != nil {
		return nil, normalizeFailure(err)
	}

	res, err := c.finish(ctx, doc, kind, over)
	if err != nil {
		return nil, err
	}
	c.cacheStore(ctx, fp, res)
	return res, nil
}

// Accumulate classifies and normalizes one payload and appends it to the
// pending batch, returning the new batch size.
func (c *Converter) Accumulate(ctx context.Context, p clip.Payload) (int, error) {
	if p.Empty() {
		return c.acc.count(), fail(EmptyInput, nil, "payload has no usable content")
	}
	kind := clip.Classify(p)

	doc, err := c.norm.Normalize(ctx, p, kind)
	if err != nil {
		return c.acc.count(), normalizeFailure(err)
	}
	count := c.acc.add(doc)
	c.log.Info("accumulated", "kind", kind, "count", count)
	return count, nil
}

// Combine finalizes the pending batch into one book. Combined output is not
// cached: the accumulator is cleared on success, so the same batch cannot
// recur.
func (c *Converter) Combine(ctx context.Context, over document.Overrides) (*Result, error) {
	merged, err := c.acc.combine()
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, merged, "combined", over)
}

// ClearAccumulator discards the pending batch.
func (c *Converter) ClearAccumulator() {
	c.acc.clear()
}

// AccumulatedCount returns the pending batch size.
func (c *Converter) AccumulatedCount() int {
	return c.acc.count()
}

// History returns recent conversions, newest first.
func (c *Converter) History(ctx context.Context, limit int) ([]store.HistoryEntry, error) {
	if c.st == nil {
		return nil, nil
	}
	return c.st.RecentHistory(ctx, limit)
}

// finish runs the shared tail of every conversion: segmentation, metadata
// resolution, assembly, and the history record.
func (c *Converter) finish(ctx context.Context, doc *document.Document, kind clip.Kind, over document.Overrides) (*Result, error) {
	document.Segment(doc, c.cfg.ChapterWords)
	if len(doc.Chapters) == 0 {
		return nil, fail(EmptyContent, nil, "normalization produced no content")
	}

	meta := document.ResolveMetadata(doc, over, document.Defaults{
		Author:   c.cfg.Author,
		Language: c.cfg.Language,
	})

	path, err := epub.Assemble(doc, meta, epub.Options{
		OutputDir: c.cfg.OutputDir,
		Style:     c.cfg.StyleTemplate,
	})
	if errors.Is(err, epub.ErrEmptyContent) {
		return nil, fail(EmptyContent, err, "nothing to write")
	}
	if err != nil {
		return nil, fail(OutputError, err, "could not write book to %s", c.cfg.OutputDir)
	}

	c.recordHistory(ctx, kind, meta.Title, path, len(doc.Chapters))
	c.log.Info("conversion complete",
		"kind", kind, "title", meta.Title, "chapters", len(doc.Chapters), "path", path)

	return &Result{
		Path:     path,
		Title:    meta.Title,
		Kind:     kind,
		Chapters: len(doc.Chapters),
		Warnings: doc.Warnings,
	}, nil
}

// normalizeFailure maps pipeline errors onto the failure taxonomy.
func normalizeFailure(err error) error {
	switch {
	case errors.Is(err, fetch.ErrUnreachable):
		return fail(FetchError, err, "could not retrieve remote content")
	case errors.Is(err, extract.ErrNoContent):
		return fail(EmptyContent, err, "no readable content found")
	default:
		return fail(UnsupportedContent, err, "content could not be converted")
	}
}

// fingerprint derives the cache key: whitespace-normalized payload content
// plus the configuration values that change the produced book.
func (c *Converter) fingerprint(p clip.Payload) string {
	h := sha256.New()
	if p.Hint == "image" {
		h.Write(p.Data)
	} else {
		h.Write([]byte(strings.Join(strings.Fields(p.Text()), " ")))
	}
	fmt.Fprintf(h, "|%d|%s|%s", c.cfg.ChapterWords, c.cfg.StyleTemplate, c.cfg.Language)
	return hex.EncodeToString(h.Sum(nil))
}

// cacheLookup consults the cache, verifying that the recorded file still
// exists. Cache failures are logged and treated as misses.
func (c *Converter) cacheLookup(ctx context.Context, fp string) (store.CacheEntry, bool) {
	if c.st == nil {
		return store.CacheEntry{}, false
	}
	e, hit, err := c.st.CacheLookup(ctx, fp, time.Duration(c.cfg.CacheHours)*time.Hour)
	if err != nil {
		c.log.Warn("cache lookup failed", "error", fail(CacheError, err, "lookup"))
		return store.CacheEntry{}, false
	}
	if !hit {
		return store.CacheEntry{}, false
	}
	if _, err := os.Stat(e.Path); err != nil {
		c.log.Warn("cached book missing on disk", "path", e.Path)
		return store.CacheEntry{}, false
	}
	return e, true
}

func (c *Converter) cacheStore(ctx context.Context, fp string, res *Result) {
	if c.st == nil || c.cfg.CacheHours <= 0 {
		return
	}
	e := store.CacheEntry{Path: res.Path, Title: res.Title, Chapters: res.Chapters}
	if err := c.st.CacheStore(ctx, fp, e); err != nil {
		c.log.Warn("cache store failed", "error", fail(CacheError, err, "store"))
	}
}

func (c *Converter) recordHistory(ctx context.Context, kind clip.Kind, title, path string, chapters int) {
	if c.st == nil {
		return
	}
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	_, err := c.st.AppendHistory(ctx, store.HistoryEntry{
		SourceKind: string(kind),
		Title:      title,
		Path:       path,
		Chapters:   chapters,
		SizeBytes:  size,
	})
	if err != nil {
		c.log.Warn("history append failed", "error", err)
	}
}
