package normalize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"clipbook/clip"
	"clipbook/document"
)

// normalizeImage embeds a clipboard image as a single chapter. Decodable
// images are re-encoded as JPEG at the configured quality; PNGs with
// transparency keep their original bytes. When OCR is configured, extracted
// text follows the image in the chapter body; OCR failure downgrades to an
// image-only chapter.
func (n *Normalizer) normalizeImage(ctx context.Context, p clip.Payload) (*document.Document, error) {
	doc := document.New()

	img, warn := n.encodeImage(p.Data)
	if warn != "" {
		doc.Warn("%s", warn)
	}
	name := (&imageNamer{}).next(extForMediaType(img.MediaType))
	doc.AddImage(name, img)

	body := fmt.Sprintf("![Clipboard image](images/%s)", name)
	if n.cfg.OCR != nil {
		text, err := n.cfg.OCR.ExtractText(ctx, p.Data)
		if err != nil {
			doc.Warn("ocr failed: %v", err)
			n.cfg.Logger.Warn("ocr failed", "error", err)
		} else if text != "" {
			body += "\n\n" + text
		}
	}

	doc.Append(document.NewChapter("", body))
	return doc, nil
}

// encodeImage optimizes raw image bytes for embedding. Undecodable payloads
// are embedded verbatim with a sniffed media type.
func (n *Normalizer) encodeImage(data []byte) (document.Image, string) {
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return document.Image{Data: data, MediaType: http.DetectContentType(data)},
			fmt.Sprintf("could not decode image (%v); embedding as-is", err)
	}

	if format == "png" && hasTransparency(decoded) {
		return document.Image{Data: data, MediaType: "image/png"}, ""
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: n.cfg.ImageQuality}); err != nil {
		return document.Image{Data: data, MediaType: http.DetectContentType(data)},
			fmt.Sprintf("could not re-encode image (%v); embedding as-is", err)
	}
	return document.Image{Data: buf.Bytes(), MediaType: "image/jpeg"}, ""
}

func hasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
