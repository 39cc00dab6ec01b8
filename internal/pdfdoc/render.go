package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// pageRenderer rasterizes pages of one document.
type pageRenderer interface {
	Image(ctx context.Context, page int, dpi float64) (image.Image, error)
	PNG(ctx context.Context, page int) ([]byte, error)
	Close() error
}

// renderer rasterizes pages with MuPDF. The document is opened on first use.
type renderer struct {
	path     string
	dpi      float64
	maxWidth int
	doc      *fitz.Document
}

func newRenderer(path string, dpi float64, maxWidth int) *renderer {
	return &renderer{path: path, dpi: dpi, maxWidth: maxWidth}
}

// Image renders page (1-based) at dpi.
func (r *renderer) Image(ctx context.Context, page int, dpi float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.doc == nil {
		doc, err := fitz.New(r.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open PDF: %w", err)
		}
		r.doc = doc
	}
	img, err := r.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, nil
}

// PNG renders page at the configured resolution, scaled down to at most
// maxWidth pixels wide, and encodes it as grayscale PNG.
func (r *renderer) PNG(ctx context.Context, page int) ([]byte, error) {
	img, err := r.Image(ctx, page, r.dpi)
	if err != nil {
		return nil, err
	}
	out := scaleToWidth(img, r.maxWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	log.Debug().
		Int("page", page).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Int("png_size", buf.Len()).
		Msg("rendered page for OCR")
	return buf.Bytes(), nil
}

func (r *renderer) Close() error {
	if r.doc == nil {
		return nil
	}
	err := r.doc.Close()
	r.doc = nil
	return err
}

// scaleToWidth converts img to grayscale, shrinking it when wider than maxWidth.
func scaleToWidth(img image.Image, maxWidth int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == b.Dx() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		return dst
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
