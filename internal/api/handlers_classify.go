package api

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/local/pagesel/internal/metrics"
	"github.com/local/pagesel/internal/pdfdoc"
	"github.com/local/pagesel/internal/selection"
)

// ClassifyRequest is the body of POST /classify. Pages defaults to all.
type ClassifyRequest struct {
	FilePath string `json:"file_path"`
	Pages    string `json:"pages,omitempty"`
}

// PageReport is the classification of a single page.
type PageReport struct {
	Page       int                `json:"page"`
	Type       selection.PageType `json:"type"`
	Confidence float64            `json:"confidence"`
	TextLength int                `json:"text_length"`
	ImageCount int                `json:"image_count"`
}

// ClassifyResponse is the body returned by POST /classify.
type ClassifyResponse struct {
	RequestID  string                  `json:"request_id"`
	TotalPages int                     `json:"total_pages"`
	Pages      []PageReport            `json:"pages"`
	TextLayer  *pdfdoc.TextLayerReport `json:"text_layer,omitempty"`
}

type textLayerProber interface {
	TextLayer(ctx context.Context, threshold int) (*pdfdoc.TextLayerReport, error)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		jsonError(w, "file_path is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Pages) == "" {
		req.Pages = "all"
	}

	ctx := r.Context()
	doc, cleanup, ok := s.openDocument(ctx, w, req.FilePath)
	if !ok {
		return
	}
	defer cleanup()

	res, err := selection.New(selection.DefaultOptions()).Parse(ctx, req.Pages, doc.pages, doc.provider)
	if err != nil {
		writeSelectionError(w, err)
		return
	}

	resp := ClassifyResponse{
		RequestID:  middleware.GetReqID(ctx),
		TotalPages: doc.pages,
		Pages:      make([]PageReport, 0, len(res.Pages)),
	}
	for _, page := range res.Pages {
		rep, err := classifyPage(ctx, doc.provider, page)
		if err != nil {
			writeSelectionError(w, err)
			return
		}
		resp.Pages = append(resp.Pages, rep)
	}

	if tl, ok := doc.doc.(textLayerProber); ok {
		report, err := tl.TextLayer(ctx, pdfdoc.DefaultTextThreshold)
		if err != nil {
			log.Warn().Err(err).Str("file", req.FilePath).Msg("text layer probe failed")
		} else {
			resp.TextLayer = report
		}
	}

	log.Info().
		Str("request_id", resp.RequestID).
		Str("file", req.FilePath).
		Int("classified", len(resp.Pages)).
		Msg("pages classified")

	writeJSON(w, http.StatusOK, resp)
}

func classifyPage(ctx context.Context, p selection.ContentProvider, page int) (PageReport, error) {
	text, err := p.PageText(ctx, page)
	if err != nil {
		return PageReport{}, err
	}
	images, err := p.PageImageCount(ctx, page)
	if err != nil {
		return PageReport{}, err
	}
	length := utf8.RuneCountInString(strings.TrimSpace(text))
	c := selection.Classify(length, images)
	return PageReport{
		Page:       page,
		Type:       c.Type,
		Confidence: c.Confidence,
		TextLength: length,
		ImageCount: images,
	}, nil
}

// timedProvider records extraction latency for every fact it fetches.
type timedProvider struct {
	inner selection.ContentProvider
}

func (p timedProvider) PageText(ctx context.Context, page int) (string, error) {
	start := time.Now()
	text, err := p.inner.PageText(ctx, page)
	metrics.ObserveFact("text", time.Since(start), err)
	return text, err
}

func (p timedProvider) PageImageCount(ctx context.Context, page int) (int, error) {
	start := time.Now()
	n, err := p.inner.PageImageCount(ctx, page)
	metrics.ObserveFact("images", time.Since(start), err)
	return n, err
}

func (p timedProvider) PageSizeBytes(ctx context.Context, page int) (int64, error) {
	start := time.Now()
	n, err := p.inner.PageSizeBytes(ctx, page)
	metrics.ObserveFact("size", time.Since(start), err)
	return n, err
}
