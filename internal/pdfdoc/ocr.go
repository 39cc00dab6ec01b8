package pdfdoc

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// recognizer turns a page image into text.
type recognizer interface {
	Recognize(img []byte) (string, error)
	Close() error
}

// tesseract wraps a gosseract client. Requires Tesseract on the host.
type tesseract struct {
	client *gosseract.Client
	lang   string
}

func newTesseract(lang string) *tesseract {
	return &tesseract{client: gosseract.NewClient(), lang: lang}
}

func (t *tesseract) Recognize(img []byte) (string, error) {
	if err := t.client.SetLanguage(strings.Split(t.lang, "+")...); err != nil {
		return "", fmt.Errorf("set OCR language: %w", err)
	}
	if err := t.client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (t *tesseract) Close() error { return t.client.Close() }
