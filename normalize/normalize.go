// Package normalize converts classified clipboard payloads into the
// canonical document model.
//
// One normalizer per content kind: plain text, Markdown, HTML, RTF, URL,
// image, and mixed. Every path reduces its input to Markdown chapter bodies
// with embedded images stored in the document's image map. Network retrieval
// and OCR are injected capabilities so the package stays testable offline.
package normalize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"clipbook/clip"
	"clipbook/document"
	"clipbook/fetch"
)

// Fetcher retrieves remote resources: article pages and inline images.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// OCR extracts text from image pixels.
type OCR interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Config configures a Normalizer.
type Config struct {
	Fetcher Fetcher // nil disables remote retrieval
	OCR     OCR     // nil disables OCR for image payloads

	Workers       int   // parallel fetches per batch. Default: 4.
	MaxImageBytes int64 // inline image download cap. Default: 5MB.
	ImageQuality  int   // JPEG re-encode quality, 1-100. Default: 85.

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = 5 * 1024 * 1024
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		c.ImageQuality = 85
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Normalizer dispatches payloads to the per-kind conversion paths.
type Normalizer struct {
	cfg    Config
	conv   *converter.Converter
	policy *bluemonday.Policy
}

// New creates a Normalizer.
func New(cfg Config) *Normalizer {
	cfg.defaults()

	policy := bluemonday.UGCPolicy()
	policy.AllowImages()
	policy.AllowTables()

	return &Normalizer{
		cfg: cfg,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		policy: policy,
	}
}

// Normalize converts one payload of the given kind into a document.
// Unknown falls back to the plain-text path. Every image reference in the
// returned document resolves to an entry in its image map; references that
// cannot be resolved are dropped with a warning.
func (n *Normalizer) Normalize(ctx context.Context, p clip.Payload, kind clip.Kind) (*document.Document, error) {
	doc, err := n.dispatch(ctx, p, kind)
	if err != nil {
		return nil, err
	}
	n.dropDanglingImageRefs(doc)
	return doc, nil
}

func (n *Normalizer) dispatch(ctx context.Context, p clip.Payload, kind clip.Kind) (*document.Document, error) {
	switch kind {
	case clip.KindPlain, clip.KindUnknown:
		return n.normalizePlain(p)
	case clip.KindMarkdown:
		return n.normalizeMarkdown(ctx, p)
	case clip.KindHTML:
		return n.normalizeHTML(ctx, p)
	case clip.KindRTF:
		return n.normalizeRTF(p)
	case clip.KindURL:
		return n.normalizeURLs(ctx, p)
	case clip.KindImage:
		return n.normalizeImage(ctx, p)
	case clip.KindMixed:
		return n.normalizeMixed(ctx, p)
	}
	return nil, fmt.Errorf("no normalizer for kind %q", kind)
}
