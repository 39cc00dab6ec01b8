package store

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/local/pagesel/internal/metrics"
	"github.com/local/pagesel/internal/selection"
)

// Cache is the subset of FactStore the cached provider needs.
type Cache interface {
	Get(ctx context.Context, doc string, page int, field string) (string, bool, error)
	Put(ctx context.Context, doc string, page int, field, value string) error
}

// CachedProvider serves page facts from a Cache and falls back to the
// wrapped provider on a miss. Cache failures are logged and never surface;
// errors from the wrapped provider are returned as they are.
type CachedProvider struct {
	inner selection.ContentProvider
	cache Cache
	doc   string
}

var _ selection.ContentProvider = (*CachedProvider)(nil)

func NewCachedProvider(inner selection.ContentProvider, cache Cache, fingerprint string) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, doc: fingerprint}
}

func (p *CachedProvider) lookup(ctx context.Context, page int, field string) (string, bool) {
	v, ok, err := p.cache.Get(ctx, p.doc, page, field)
	if err != nil {
		log.Warn().Err(err).Str("doc", p.doc).Int("page", page).Str("field", field).Msg("fact cache read failed")
		return "", false
	}
	metrics.ObserveCache(field, ok)
	return v, ok
}

func (p *CachedProvider) store(ctx context.Context, page int, field, value string) {
	if err := p.cache.Put(ctx, p.doc, page, field, value); err != nil {
		log.Warn().Err(err).Str("doc", p.doc).Int("page", page).Str("field", field).Msg("fact cache write failed")
	}
}

func (p *CachedProvider) PageText(ctx context.Context, page int) (string, error) {
	if v, ok := p.lookup(ctx, page, FieldText); ok {
		return v, nil
	}
	text, err := p.inner.PageText(ctx, page)
	if err != nil {
		return "", err
	}
	p.store(ctx, page, FieldText, text)
	return text, nil
}

func (p *CachedProvider) PageImageCount(ctx context.Context, page int) (int, error) {
	if v, ok := p.lookup(ctx, page, FieldImages); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
	}
	n, err := p.inner.PageImageCount(ctx, page)
	if err != nil {
		return 0, err
	}
	// unknown counts are not worth remembering
	if n >= 0 {
		p.store(ctx, page, FieldImages, strconv.Itoa(n))
	}
	return n, nil
}

func (p *CachedProvider) PageSizeBytes(ctx context.Context, page int) (int64, error) {
	if v, ok := p.lookup(ctx, page, FieldSize); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
	}
	n, err := p.inner.PageSizeBytes(ctx, page)
	if err != nil {
		return 0, err
	}
	p.store(ctx, page, FieldSize, strconv.FormatInt(n, 10))
	return n, nil
}
