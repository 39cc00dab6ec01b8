package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/local/pagesel/internal/config"
	"github.com/local/pagesel/internal/limiter"
	"github.com/local/pagesel/internal/pdfdoc"
	"github.com/local/pagesel/internal/source"
	"github.com/local/pagesel/internal/specfile"
)

type fakeFetcher struct {
	err error
}

func (f fakeFetcher) Fetch(_ context.Context, ref string) (*source.Fetched, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &source.Fetched{Ref: ref, Path: ref, MIME: "application/pdf"}, nil
}

type fakeDoc struct {
	texts  []string
	images []int
	closed bool
}

func (d *fakeDoc) PageCount() int { return len(d.texts) }
func (d *fakeDoc) Close() error   { d.closed = true; return nil }

func (d *fakeDoc) PageText(_ context.Context, page int) (string, error) {
	return d.texts[page-1], nil
}

func (d *fakeDoc) PageImageCount(_ context.Context, page int) (int, error) {
	if d.images == nil {
		return 0, nil
	}
	return d.images[page-1], nil
}

func (d *fakeDoc) PageSizeBytes(_ context.Context, page int) (int64, error) {
	return int64(1000 * page), nil
}

func (d *fakeDoc) TextLayer(_ context.Context, threshold int) (*pdfdoc.TextLayerReport, error) {
	return &pdfdoc.TextLayerReport{TotalPages: len(d.texts), Threshold: threshold, HasTextLayer: true}, nil
}

func longText(s string) string { return s + " " + strings.Repeat("lorem ipsum ", 10) }

func newTestServer(t *testing.T, fetch Fetcher, doc *fakeDoc) *Server {
	t.Helper()
	cfg := config.FromEnv()
	cfg.Server.RequestTimeout = 0
	cfg.Selection.SpecDir = t.TempDir()
	return NewServer(Dependencies{
		Source: fetch,
		Open: func(string) (Document, error) {
			if doc == nil {
				return nil, errors.New("broken xref table")
			}
			return doc, nil
		},
		Specs: specfile.New(cfg.Selection.SpecDir),
	}, cfg)
}

func post(t *testing.T, s http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func sampleDoc() *fakeDoc {
	return &fakeDoc{
		texts: []string{
			longText("Cover"),
			longText("Introduction"),
			longText("Chapter one"),
			"",
			longText("Summary of results"),
			longText("Appendix"),
		},
		images: []int{0, 0, 1, 2, 0, 0},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, fakeFetcher{}, sampleDoc())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id header")
	}
}

func TestSelect(t *testing.T) {
	doc := sampleDoc()
	s := newTestServer(t, fakeFetcher{}, doc)
	rec := post(t, s, "/select", SelectRequest{FilePath: "doc.pdf", Pages: "6-5, contains:'Chapter'"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp SelectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(resp.Pages) != "[3 5 6]" {
		t.Errorf("pages = %v", resp.Pages)
	}
	if fmt.Sprint(resp.OrderedPages) != "[6 5 3]" {
		t.Errorf("ordered = %v", resp.OrderedPages)
	}
	if resp.TotalPages != 6 || resp.RequestID == "" {
		t.Errorf("resp = %+v", resp)
	}
	if !doc.closed {
		t.Error("document not closed")
	}
}

func TestSelect_Errors(t *testing.T) {
	tests := []struct {
		name  string
		fetch Fetcher
		doc   *fakeDoc
		req   any
		want  int
	}{
		{"missing file", fakeFetcher{}, sampleDoc(), SelectRequest{Pages: "1"}, http.StatusBadRequest},
		{"missing pages", fakeFetcher{}, sampleDoc(), SelectRequest{FilePath: "a.pdf"}, http.StatusBadRequest},
		{"unknown field", fakeFetcher{}, sampleDoc(), map[string]string{"file": "a.pdf"}, http.StatusBadRequest},
		{"bad reverse mode", fakeFetcher{}, sampleDoc(), SelectRequest{FilePath: "a.pdf", Pages: "1", ReverseRanges: "maybe"}, http.StatusBadRequest},
		{"not found", fakeFetcher{err: fmt.Errorf("open: %w", fs.ErrNotExist)}, sampleDoc(), SelectRequest{FilePath: "a.pdf", Pages: "1"}, http.StatusNotFound},
		{"not pdf", fakeFetcher{err: source.ErrNotPDF}, sampleDoc(), SelectRequest{FilePath: "a.txt", Pages: "1"}, http.StatusUnsupportedMediaType},
		{"too large", fakeFetcher{err: source.ErrTooLarge}, sampleDoc(), SelectRequest{FilePath: "a.pdf", Pages: "1"}, http.StatusRequestEntityTooLarge},
		{"upstream", fakeFetcher{err: errors.New("connection reset")}, sampleDoc(), SelectRequest{FilePath: "http://x/a.pdf", Pages: "1"}, http.StatusBadGateway},
		{"unreadable", fakeFetcher{}, nil, SelectRequest{FilePath: "a.pdf", Pages: "1"}, http.StatusUnprocessableEntity},
		{"syntax", fakeFetcher{}, sampleDoc(), SelectRequest{FilePath: "a.pdf", Pages: "contains:'open"}, http.StatusBadRequest},
		{"semantic", fakeFetcher{}, sampleDoc(), SelectRequest{FilePath: "a.pdf", Pages: "99"}, http.StatusUnprocessableEntity},
		{"rejected reverse", fakeFetcher{}, sampleDoc(), SelectRequest{FilePath: "a.pdf", Pages: "5-2", ReverseRanges: "reject"}, http.StatusUnprocessableEntity},
		{"missing spec file", fakeFetcher{}, sampleDoc(), SelectRequest{FilePath: "a.pdf", Pages: "file:nope.txt"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.fetch, tt.doc)
			rec := post(t, s, "/select", tt.req)
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] == "" || body["error"] == nil {
				t.Errorf("no error message: %s", rec.Body)
			}
		})
	}
}

func TestSelect_SkipInvalid(t *testing.T) {
	s := newTestServer(t, fakeFetcher{}, sampleDoc())
	skip := true
	rec := post(t, s, "/select", SelectRequest{FilePath: "a.pdf", Pages: "2, 99, 4", SkipInvalid: &skip})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp SelectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(resp.Pages) != "[2 4]" {
		t.Errorf("pages = %v", resp.Pages)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0].Spec != "99" || resp.Skipped[0].Reason == "" {
		t.Errorf("skipped = %+v", resp.Skipped)
	}
}

func TestSelect_FileSelector(t *testing.T) {
	s := newTestServer(t, fakeFetcher{}, sampleDoc())
	if err := os.WriteFile(filepath.Join(s.cfg.Selection.SpecDir, "front.txt"), []byte("# front matter\n1\n2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rec := post(t, s, "/select", SelectRequest{FilePath: "a.pdf", Pages: "file:front.txt, last 1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp SelectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(resp.OrderedPages) != "[1 2 6]" {
		t.Errorf("ordered = %v", resp.OrderedPages)
	}
}

func TestClassify(t *testing.T) {
	s := newTestServer(t, fakeFetcher{}, sampleDoc())
	rec := post(t, s, "/classify", ClassifyRequest{FilePath: "a.pdf"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp ClassifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Pages) != 6 {
		t.Fatalf("got %d pages", len(resp.Pages))
	}
	want := []string{"text", "text", "mixed", "image", "text", "text"}
	for i, p := range resp.Pages {
		if string(p.Type) != want[i] {
			t.Errorf("page %d: type %s, want %s", p.Page, p.Type, want[i])
		}
	}
	if resp.TextLayer == nil || !resp.TextLayer.HasTextLayer {
		t.Errorf("text layer = %+v", resp.TextLayer)
	}
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	s := newTestServer(t, fakeFetcher{}, sampleDoc())
	const id = "5f0c6f7e-3b1a-4c1e-9a55-2f7d3f0f9b11"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", id)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != id {
		t.Errorf("request id = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "not a uuid")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got == "not a uuid" || got == "" {
		t.Errorf("request id = %q", got)
	}
}

func TestSelect_BusyWhenNoSlot(t *testing.T) {
	s := newTestServer(t, fakeFetcher{}, sampleDoc())
	s.deps.Slots = limiter.New(1)
	release, ok := s.deps.Slots.Allow(s.cfg.Document.Backend)
	if !ok {
		t.Fatal("slot refused")
	}
	defer release()

	body := strings.NewReader(`{"file_path":"a.pdf","pages":"1"}`)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/select", body).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
}
