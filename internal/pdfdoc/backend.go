package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	fitz "github.com/gen2brain/go-fitz"
	pdflib "github.com/ledongthuc/pdf"
)

// Text backends.
const (
	BackendFitz   = "fitz"
	BackendPDFLib = "pdflib"
	BackendMutool = "mutool"
)

// textBackend extracts the raw text layer of one page (1-based).
type textBackend interface {
	PageText(ctx context.Context, page int) (string, error)
	Close() error
}

func newBackend(name, path string) (textBackend, error) {
	switch name {
	case BackendFitz:
		doc, err := fitz.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open PDF: %w", err)
		}
		return &fitzBackend{doc: doc}, nil
	case BackendPDFLib:
		f, r, err := pdflib.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open PDF: %w", err)
		}
		return &pdflibBackend{file: f, reader: r}, nil
	case BackendMutool:
		if _, err := exec.LookPath("mutool"); err != nil {
			return nil, errors.New("mutool not found in PATH")
		}
		return &mutoolBackend{path: path}, nil
	default:
		return nil, fmt.Errorf("unknown text backend %q", name)
	}
}

// fitzBackend uses MuPDF through go-fitz; no external tools needed.
type fitzBackend struct {
	doc *fitz.Document
}

func (b *fitzBackend) PageText(_ context.Context, page int) (string, error) {
	// go-fitz uses 0-based indexing
	return b.doc.Text(page - 1)
}

func (b *fitzBackend) Close() error { return b.doc.Close() }

// pdflibBackend is the pure Go extractor.
type pdflibBackend struct {
	file   *os.File
	reader *pdflib.Reader
}

func (b *pdflibBackend) PageText(_ context.Context, page int) (string, error) {
	p := b.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (b *pdflibBackend) Close() error { return b.file.Close() }

// mutoolBackend shells out to `mutool draw -F txt`.
type mutoolBackend struct {
	path string
}

func (b *mutoolBackend) PageText(ctx context.Context, page int) (string, error) {
	cmd := exec.CommandContext(ctx, "mutool", "draw", "-q", "-F", "txt", "-o", "-", b.path, strconv.Itoa(page))
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("mutool failed for page %d: %s", page, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("mutool: %w", err)
	}
	return string(out), nil
}

func (b *mutoolBackend) Close() error { return nil }
