// Package epub serializes the canonical document model into an EPUB 3
// container: mimetype first and uncompressed, OCF container descriptor,
// package document with manifest and ordered spine, XHTML chapters rendered
// from Markdown, embedded images, a stylesheet, and a navigation document
// when the book has more than one chapter.
package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	stdhtml "html"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"clipbook/document"
)

// ErrEmptyContent is returned when there is nothing to assemble.
var ErrEmptyContent = errors.New("epub: no content to assemble")

// ErrMissingImage is returned when a chapter references an image the
// document's image map does not carry.
var ErrMissingImage = errors.New("epub: chapter references missing image")

// Options controls assembly.
type Options struct {
	OutputDir string // destination directory, created if missing
	Style     string // style template name: default, minimal, modern
}

// Chapter bodies arrive as Markdown and render to XHTML. The sources have
// been sanitized upstream, so inline HTML is passed through.
var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		gmhtml.WithXHTML(),
		gmhtml.WithUnsafe(),
	),
)

// Assemble writes doc as an EPUB file and returns its path. Assembly fails
// with ErrMissingImage if a chapter references an image absent from the
// document's image map. The book is written to a temporary file and renamed
// into place, so a failure never leaves a truncated file at the final path.
// Filename collisions are resolved with a numeric suffix.
func Assemble(doc *document.Document, meta document.Metadata, opts Options) (string, error) {
	if doc == nil || len(doc.Chapters) == 0 {
		return "", ErrEmptyContent
	}
	// Every images/<name> reference must resolve to an archive entry,
	// otherwise the book would ship with broken image links.
	for _, name := range doc.ImageRefs() {
		if _, ok := doc.Images[name]; !ok {
			return "", fmt.Errorf("%w: images/%s", ErrMissingImage, name)
		}
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	final, err := pickFilename(dir, meta.Title)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".clipbook-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	if err := writeBook(zw, doc, meta, opts.Style); err != nil {
		zw.Close()
		tmp.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("move into place: %w", err)
	}
	return final, nil
}

func writeBook(zw *zip.Writer, doc *document.Document, meta document.Metadata, style string) error {
	// The mimetype entry must come first and must not be compressed.
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("mimetype entry: %w", err)
	}
	if _, err := mt.Write([]byte("application/epub+zip")); err != nil {
		return fmt.Errorf("mimetype entry: %w", err)
	}

	container, err := marshalXML(newContainer("OEBPS/content.opf"))
	if err != nil {
		return fmt.Errorf("container descriptor: %w", err)
	}
	if err := addFile(zw, "META-INF/container.xml", container); err != nil {
		return err
	}

	imageNames := sortedImageNames(doc)

	opf, err := marshalXML(buildPackage(doc, meta, imageNames))
	if err != nil {
		return fmt.Errorf("package document: %w", err)
	}
	if err := addFile(zw, "OEBPS/content.opf", opf); err != nil {
		return err
	}

	if err := addFile(zw, "OEBPS/styles/stylesheet.css", []byte(StyleCSS(style))); err != nil {
		return err
	}

	if doc.NeedsNav {
		if err := addFile(zw, "OEBPS/nav.xhtml", []byte(navXHTML(doc, meta))); err != nil {
			return err
		}
	}

	for i, ch := range doc.Chapters {
		page, err := chapterXHTML(ch, meta.Language)
		if err != nil {
			return fmt.Errorf("render chapter %d: %w", i+1, err)
		}
		if err := addFile(zw, "OEBPS/"+chapterFile(i), page); err != nil {
			return err
		}
	}

	for _, name := range imageNames {
		if err := addFile(zw, "OEBPS/images/"+name, doc.Images[name].Data); err != nil {
			return err
		}
	}
	return nil
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("archive entry %s: %w", name, err)
	}
	return nil
}

func buildPackage(doc *document.Document, meta document.Metadata, imageNames []string) packageDoc {
	md := packageMetadata{
		XmlnsDC:    "http://purl.org/dc/elements/1.1/",
		Identifier: dcIdentifier{ID: "pub-id", Value: "urn:uuid:" + uuid.NewString()},
		Title:      meta.Title,
		Creator:    meta.Author,
		Language:   meta.Language,
		Source:     meta.Source,
		Date:       meta.Published,
		Metas: []metaTag{
			{Property: "dcterms:modified", Value: meta.Generated.UTC().Format("2006-01-02T15:04:05Z")},
		},
	}

	var items []manifestItem
	var refs []spineItemRef

	if doc.NeedsNav {
		items = append(items, manifestItem{
			ID: "nav", Href: "nav.xhtml",
			MediaType: "application/xhtml+xml", Properties: "nav",
		})
	}
	items = append(items, manifestItem{
		ID: "css", Href: "styles/stylesheet.css", MediaType: "text/css",
	})
	for i := range doc.Chapters {
		id := fmt.Sprintf("chapter-%d", i+1)
		items = append(items, manifestItem{
			ID: id, Href: chapterFile(i), MediaType: "application/xhtml+xml",
		})
		refs = append(refs, spineItemRef{IDRef: id})
	}
	for i, name := range imageNames {
		items = append(items, manifestItem{
			ID: fmt.Sprintf("image-%d", i+1), Href: "images/" + name,
			MediaType: doc.Images[name].MediaType,
		})
	}

	return packageDoc{
		Xmlns:    "http://www.idpf.org/2007/opf",
		Version:  "3.0",
		UniqueID: "pub-id",
		Metadata: md,
		Manifest: packageManifest{Items: items},
		Spine:    packageSpine{ItemRefs: refs},
	}
}

func chapterFile(i int) string {
	return fmt.Sprintf("chapter-%03d.xhtml", i+1)
}

const xhtmlShell = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="%s" xml:lang="%s">
<head>
<title>%s</title>
<link rel="stylesheet" type="text/css" href="styles/stylesheet.css"/>
</head>
<body>
%s
</body>
</html>
`

func chapterXHTML(ch document.Chapter, lang string) ([]byte, error) {
	var body strings.Builder
	// Give untitled-in-body chapters a visible heading.
	if ch.Title != "" && document.FirstHeading(ch.Markdown) == "" {
		fmt.Fprintf(&body, "<h1>%s</h1>\n", stdhtml.EscapeString(ch.Title))
	}
	if err := renderer.Convert([]byte(ch.Markdown), &body); err != nil {
		return nil, err
	}

	title := ch.Title
	if title == "" {
		title = "Chapter"
	}
	return []byte(fmt.Sprintf(xhtmlShell, lang, lang,
		stdhtml.EscapeString(title), body.String())), nil
}

// navXHTML builds the EPUB 3 navigation document.
func navXHTML(doc *document.Document, meta document.Metadata) string {
	var list strings.Builder
	for i, ch := range doc.Chapters {
		title := ch.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		fmt.Fprintf(&list, "<li><a href=\"%s\">%s</a></li>\n",
			chapterFile(i), stdhtml.EscapeString(title))
	}

	nav := fmt.Sprintf("<nav epub:type=\"toc\" id=\"toc\">\n<h1>Contents</h1>\n<ol>\n%s</ol>\n</nav>",
		list.String())
	return fmt.Sprintf(xhtmlShell, meta.Language, meta.Language,
		stdhtml.EscapeString(meta.Title), nav)
}

// pickFilename derives a collision-free output path from the book title.
func pickFilename(dir, title string) (string, error) {
	base := sanitizeFilename(title)
	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(dir, name+".epub")
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat output path: %w", err)
		}
	}
}

const maxFilenameLen = 60

func sanitizeFilename(title string) string {
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '_', r == '-', r == '.':
			sb.WriteByte('-')
		}
	}
	name := strings.Trim(sb.String(), "-")
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	if len(name) > maxFilenameLen {
		name = strings.Trim(name[:maxFilenameLen], "-")
	}
	if name == "" {
		name = "clipboard"
	}
	return name
}

func sortedImageNames(doc *document.Document) []string {
	names := make([]string, 0, len(doc.Images))
	for name := range doc.Images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
