package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/local/pagesel/internal/metrics"
	"github.com/local/pagesel/internal/selection"
	"github.com/local/pagesel/internal/source"
	"github.com/local/pagesel/internal/specfile"
	"github.com/local/pagesel/internal/store"
)

// SelectRequest is the body of POST /select.
type SelectRequest struct {
	FilePath      string `json:"file_path"`
	Pages         string `json:"pages"`
	GroupStart    string `json:"group_start,omitempty"`
	GroupEnd      string `json:"group_end,omitempty"`
	GroupFilter   string `json:"group_filter,omitempty"`
	SkipInvalid   *bool  `json:"skip_invalid,omitempty"`
	ReverseRanges string `json:"reverse_ranges,omitempty"`
}

type skippedView struct {
	Spec   string `json:"spec"`
	Reason string `json:"reason"`
}

// SelectResponse is the body returned by POST /select.
type SelectResponse struct {
	RequestID    string                `json:"request_id"`
	TotalPages   int                   `json:"total_pages"`
	Pages        []int                 `json:"pages"`
	OrderedPages []int                 `json:"ordered_pages"`
	Description  string                `json:"description"`
	Groups       []selection.PageGroup `json:"groups"`
	Skipped      []skippedView         `json:"skipped,omitempty"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		jsonError(w, "file_path is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Pages) == "" {
		jsonError(w, "pages is required", http.StatusBadRequest)
		return
	}
	opts, err := s.engineOptions(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	engine := selection.New(opts)

	ctx := r.Context()
	doc, cleanup, ok := s.openDocument(ctx, w, req.FilePath)
	if !ok {
		return
	}
	defer cleanup()

	expr, err := s.deps.Specs.Expand(engine, req.Pages, doc.pages)
	if err != nil {
		var fe *specfile.Error
		if errors.As(err, &fe) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, "file selector: "+err.Error(), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	res, err := engine.Parse(ctx, expr, doc.pages, doc.provider)
	metrics.ObserveSelection(resultLabel(err), time.Since(start))
	if err != nil {
		writeSelectionError(w, err)
		return
	}
	metrics.ObservePages(len(res.Pages))
	metrics.AddSkipped(len(res.Skipped))

	resp := SelectResponse{
		RequestID:    middleware.GetReqID(ctx),
		TotalPages:   doc.pages,
		Pages:        res.Pages,
		OrderedPages: res.OrderedPages(),
		Description:  res.Description,
		Groups:       res.Groups,
	}
	for _, sk := range res.Skipped {
		resp.Skipped = append(resp.Skipped, skippedView{Spec: sk.Spec, Reason: sk.Reason()})
	}

	log.Info().
		Str("request_id", resp.RequestID).
		Str("file", req.FilePath).
		Str("pages", req.Pages).
		Int("selected", len(res.Pages)).
		Int("groups", len(res.Groups)).
		Str("description", res.Description).
		Msg("selection resolved")

	writeJSON(w, http.StatusOK, resp)
}

// engineOptions merges the request with the configured defaults.
func (s *Server) engineOptions(req SelectRequest) (selection.Options, error) {
	opts := selection.DefaultOptions()
	opts.GroupStart = req.GroupStart
	opts.GroupEnd = req.GroupEnd
	opts.GroupFilter = req.GroupFilter

	reverse := req.ReverseRanges
	if reverse == "" {
		reverse = s.cfg.Selection.ReverseRanges
	}
	switch strings.ToLower(reverse) {
	case "", "allow":
		opts.ReverseRanges = selection.ReverseAllowed
	case "reject":
		opts.ReverseRanges = selection.ReverseRejected
	default:
		return opts, fmt.Errorf("reverse_ranges must be \"allow\" or \"reject\", got %q", reverse)
	}

	skip := s.cfg.Selection.SkipInvalid
	if req.SkipInvalid != nil {
		skip = *req.SkipInvalid
	}
	if skip {
		opts.InvalidParts = selection.SkipInvalid
	}
	return opts, nil
}

// openedDoc is a fetched and opened document with the provider to query.
type openedDoc struct {
	pages    int
	doc      Document
	provider selection.ContentProvider
}

// openDocument fetches and opens ref, writing the error response itself
// when that fails. The returned cleanup closes and removes everything.
func (s *Server) openDocument(ctx context.Context, w http.ResponseWriter, ref string) (*openedDoc, func(), bool) {
	fetched, err := s.deps.Source.Fetch(ctx, ref)
	metrics.ObserveFetch(scheme(ref), err)
	if err != nil {
		writeFetchError(w, ref, err)
		return nil, nil, false
	}

	release := func() {}
	if s.deps.Slots != nil {
		r, err := s.deps.Slots.Acquire(ctx, s.cfg.Document.Backend)
		if err != nil {
			_ = fetched.Close()
			log.Warn().Err(err).Str("file", ref).Msg("no free extraction slot")
			jsonError(w, "server busy, retry later", http.StatusServiceUnavailable)
			return nil, nil, false
		}
		release = r
	}

	doc, err := s.deps.Open(fetched.Path)
	if err != nil {
		release()
		_ = fetched.Close()
		log.Warn().Err(err).Str("file", ref).Msg("open document failed")
		jsonError(w, "cannot read PDF: "+err.Error(), http.StatusUnprocessableEntity)
		return nil, nil, false
	}

	var provider selection.ContentProvider = timedProvider{inner: doc}
	if s.deps.Cache != nil {
		if fp, err := store.Fingerprint(fetched.Path); err != nil {
			log.Warn().Err(err).Str("file", ref).Msg("fingerprint failed, fact cache bypassed")
		} else {
			provider = store.NewCachedProvider(provider, s.deps.Cache, fp)
		}
	}

	cleanup := func() {
		if err := doc.Close(); err != nil {
			log.Warn().Err(err).Str("file", ref).Msg("close document failed")
		}
		release()
		if err := fetched.Close(); err != nil {
			log.Warn().Err(err).Str("file", fetched.Path).Msg("remove temp file failed")
		}
	}
	return &openedDoc{pages: doc.PageCount(), doc: doc, provider: provider}, cleanup, true
}

func scheme(ref string) string {
	if i := strings.Index(ref, "://"); i > 0 {
		return strings.ToLower(ref[:i])
	}
	return "file"
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case selection.IsSyntax(err):
		return "syntax"
	case selection.IsSemantic(err):
		return "semantic"
	default:
		return "error"
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.cfg.Server.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeFetchError(w http.ResponseWriter, ref string, err error) {
	log.Warn().Err(err).Str("file", ref).Msg("fetch document failed")
	switch {
	case errors.Is(err, source.ErrNotPDF):
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, source.ErrTooLarge):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, fs.ErrNotExist):
		jsonError(w, "document not found", http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		jsonError(w, "document fetch timed out", http.StatusGatewayTimeout)
	default:
		jsonError(w, "fetch document: "+err.Error(), http.StatusBadGateway)
	}
}

func writeSelectionError(w http.ResponseWriter, err error) {
	var (
		syn *selection.SyntaxError
		sem *selection.SemanticError
	)
	switch {
	case errors.As(err, &syn):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": err.Error(), "kind": "syntax", "spec": syn.Spec, "position": syn.Pos,
		})
	case errors.As(err, &sem):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": err.Error(), "kind": "semantic", "spec": sem.Spec,
		})
	case errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "selection timed out", http.StatusGatewayTimeout)
	default:
		log.Error().Err(err).Msg("selection failed")
		jsonError(w, "page content unavailable: "+err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
