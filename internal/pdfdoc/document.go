// Package pdfdoc opens PDF files and answers per-page questions about them:
// extracted text, embedded image count and the size of the page written out
// as a standalone document. A Document satisfies selection.ContentProvider.
package pdfdoc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

// Options controls how a Document extracts text.
type Options struct {
	// Backend is one of "fitz" (default), "pdflib" or "mutool".
	Backend string

	// StripFurniture drops page-number and noise lines from extracted text.
	StripFurniture bool

	// OCR runs Tesseract on pages that carry images but no text layer.
	OCR         bool
	OCRLanguage string

	// RenderDPI and RenderMaxWidth bound the image handed to OCR.
	RenderDPI      float64
	RenderMaxWidth int
}

func (o Options) withDefaults() Options {
	if o.Backend == "" {
		o.Backend = BackendFitz
	}
	if o.OCRLanguage == "" {
		o.OCRLanguage = "eng"
	}
	if o.RenderDPI <= 0 {
		o.RenderDPI = 200
	}
	if o.RenderMaxWidth <= 0 {
		o.RenderMaxWidth = 2480
	}
	return o
}

// Document is an opened PDF. It is safe for concurrent use; calls into the
// underlying libraries are serialized.
type Document struct {
	path  string
	pages int
	opts  Options

	mu       sync.Mutex
	text     textBackend
	probe    *structureProbe
	renderer pageRenderer
	ocr      recognizer
}

// Open reads the page count of the PDF at path and prepares the configured
// text backend. Nothing else is read until a page fact is requested.
func Open(path string, opts Options) (*Document, error) {
	opts = opts.withDefaults()

	n, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdf page count failed: %w", err)
	}

	backend, err := newBackend(opts.Backend, path)
	if err != nil {
		return nil, err
	}

	d := &Document{
		path:     path,
		pages:    n,
		opts:     opts,
		text:     backend,
		probe:    newStructureProbe(path),
		renderer: newRenderer(path, opts.RenderDPI, opts.RenderMaxWidth),
	}
	if opts.OCR {
		d.ocr = newTesseract(opts.OCRLanguage)
	}

	log.Debug().Str("pdf", path).Int("pages", n).Str("backend", opts.Backend).Bool("ocr", opts.OCR).Msg("opened document")
	return d, nil
}

// Path returns the local file the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pages }

// Close releases the backend, renderer and OCR resources.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var first error
	if d.text != nil {
		first = d.text.Close()
	}
	if d.renderer != nil {
		if err := d.renderer.Close(); err != nil && first == nil {
			first = err
		}
	}
	if d.ocr != nil {
		if err := d.ocr.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (d *Document) checkPage(page int) error {
	if page < 1 || page > d.pages {
		return fmt.Errorf("page %d out of range (document has %d pages)", page, d.pages)
	}
	return nil
}

// PageText returns the NFC-normalized text of a page. Pages without a text
// layer are sent through OCR when it is enabled and the page carries images.
func (d *Document) PageText(ctx context.Context, page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	raw, err := d.text.PageText(ctx, page)
	if err != nil {
		return "", fmt.Errorf("extract text from page %d: %w", page, err)
	}

	if strings.TrimSpace(raw) == "" && d.ocr != nil {
		if images := d.probe.imageCount(page); images != 0 {
			ocrText, err := d.recognize(ctx, page)
			if err != nil {
				log.Warn().Err(err).Str("pdf", d.path).Int("page", page).Msg("OCR failed, keeping empty text")
			} else {
				raw = ocrText
			}
		}
	}

	text := norm.NFC.String(raw)
	if d.opts.StripFurniture {
		text = stripFurniture(text, page)
	}
	return text, nil
}

func (d *Document) recognize(ctx context.Context, page int) (string, error) {
	img, err := d.renderer.PNG(ctx, page)
	if err != nil {
		return "", err
	}
	text, err := d.ocr.Recognize(img)
	if err != nil {
		return "", err
	}
	log.Debug().Int("page", page).Int("chars", len(text)).Msg("recognized page text")
	return text, nil
}

// PageImageCount returns the number of distinct image objects the page
// references. When the object graph cannot be read the page is rendered and
// large graphic regions are counted instead; if that fails too the count is
// reported as -1 (unknown).
func (d *Document) PageImageCount(ctx context.Context, page int) (int, error) {
	if err := d.checkPage(page); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if n := d.probe.imageCount(page); n >= 0 {
		return n, nil
	}

	img, err := d.renderer.Image(ctx, page, AnalysisDPI)
	if err != nil {
		log.Warn().Err(err).Int("page", page).Msg("image count unavailable")
		return -1, nil
	}
	return len(largeGraphics(img, AnalysisDPI, MinGraphicsSizeCM)), nil
}

// PageSizeBytes returns the size of the page written as a standalone PDF.
func (d *Document) PageSizeBytes(ctx context.Context, page int) (int64, error) {
	if err := d.checkPage(page); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.probe.pageSize(page)
}
