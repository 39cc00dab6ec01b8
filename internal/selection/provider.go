package selection

import (
	"context"
	"strings"
	"unicode/utf8"
)

// ContentProvider supplies per-page facts for one document. Pages are
// 1-indexed. Implementations may be slow; the engine asks for each fact of
// each page at most once per Parse call.
type ContentProvider interface {
	PageText(ctx context.Context, page int) (string, error)
	PageImageCount(ctx context.Context, page int) (int, error)
	PageSizeBytes(ctx context.Context, page int) (int64, error)
}

// pageFacts memoizes provider answers for a single Parse call. A new memo
// is built for every call so facts never leak across documents.
type pageFacts struct {
	provider ContentProvider
	text     map[int]string
	images   map[int]int
	size     map[int]int64
}

func newPageFacts(p ContentProvider) *pageFacts {
	return &pageFacts{
		provider: p,
		text:     map[int]string{},
		images:   map[int]int{},
		size:     map[int]int64{},
	}
}

func (f *pageFacts) pageText(ctx context.Context, page int) (string, error) {
	if t, ok := f.text[page]; ok {
		return t, nil
	}
	t, err := f.provider.PageText(ctx, page)
	if err != nil {
		return "", err
	}
	f.text[page] = t
	return t, nil
}

func (f *pageFacts) imageCount(ctx context.Context, page int) (int, error) {
	if n, ok := f.images[page]; ok {
		return n, nil
	}
	n, err := f.provider.PageImageCount(ctx, page)
	if err != nil {
		return 0, err
	}
	f.images[page] = n
	return n, nil
}

func (f *pageFacts) sizeBytes(ctx context.Context, page int) (int64, error) {
	if n, ok := f.size[page]; ok {
		return n, nil
	}
	n, err := f.provider.PageSizeBytes(ctx, page)
	if err != nil {
		return 0, err
	}
	f.size[page] = n
	return n, nil
}

func (f *pageFacts) classify(ctx context.Context, page int) (Classification, error) {
	text, err := f.pageText(ctx, page)
	if err != nil {
		return Classification{}, err
	}
	images, err := f.imageCount(ctx, page)
	if err != nil {
		return Classification{}, err
	}
	return Classify(utf8.RuneCountInString(strings.TrimSpace(text)), images), nil
}
