// Package source turns a document reference into a local PDF file.
//
// Supported references:
//   - file://path or plain filesystem paths (relative to Options.BaseDir)
//   - http(s):// URLs (downloaded to a temp file)
//   - s3://bucket/key (downloaded to a temp file with the S3 transfer manager)
//
// An optional #fragment is ignored. Every fetched file is checked by its
// magic bytes and rejected unless it is a PDF.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotPDF is returned when the fetched file is not a PDF.
	ErrNotPDF = errors.New("not a PDF document")
	// ErrTooLarge is returned when a download exceeds Options.MaxBytes.
	ErrTooLarge = errors.New("document exceeds size limit")
)

// Options configures a Resolver.
type Options struct {
	BaseDir     string
	TempDir     string
	HTTPTimeout time.Duration
	MaxBytes    int64

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	// DecryptPassword unlocks objects stored in the GCM3NCR0 envelope.
	DecryptPassword string
}

// Fetched is a local copy of a referenced document. Close removes any
// temporary file created for it.
type Fetched struct {
	Ref  string
	Path string
	MIME string
	Size int64

	temp bool
}

// Close removes the temp file, if any.
func (f *Fetched) Close() error {
	if !f.temp {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Resolver fetches documents. It is safe for concurrent use.
type Resolver struct {
	opts Options
	http *http.Client

	s3Once sync.Once
	s3     *s3Fetcher
	s3Err  error
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 60 * time.Second
	}
	return &Resolver{
		opts: opts,
		http: &http.Client{Timeout: opts.HTTPTimeout},
	}
}

// Fetch resolves ref to a local PDF.
func (r *Resolver) Fetch(ctx context.Context, ref string) (*Fetched, error) {
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty document reference")
	}

	var (
		f   *Fetched
		err error
	)
	switch {
	case strings.HasPrefix(ref, "s3://"):
		f, err = r.fetchS3(ctx, ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		f, err = r.fetchHTTP(ctx, ref)
	default:
		f, err = r.local(ref)
	}
	if err != nil {
		return nil, err
	}

	if err := detectPDF(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	log.Debug().Str("ref", ref).Str("file", f.Path).Int64("size", f.Size).Msg("document resolved")
	return f, nil
}

func (r *Resolver) local(ref string) (*Fetched, error) {
	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) && r.opts.BaseDir != "" {
		path = filepath.Join(r.opts.BaseDir, path)
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("open document: %s is a directory", path)
	}
	return &Fetched{Ref: ref, Path: path, Size: st.Size()}, nil
}

func (r *Resolver) fetchHTTP(ctx context.Context, url string) (*Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: http %d", url, resp.StatusCode)
	}
	if r.opts.MaxBytes > 0 && resp.ContentLength > r.opts.MaxBytes {
		return nil, ErrTooLarge
	}

	f, err := r.tempFile("pdfdl-*.pdf")
	if err != nil {
		return nil, err
	}
	out := &Fetched{Ref: url, Path: f.Name(), temp: true}

	body := io.Reader(resp.Body)
	if r.opts.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, r.opts.MaxBytes+1)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	if r.opts.MaxBytes > 0 && n > r.opts.MaxBytes {
		_ = out.Close()
		return nil, ErrTooLarge
	}
	out.Size = n
	return out, nil
}

func (r *Resolver) tempFile(pattern string) (*os.File, error) {
	f, err := os.CreateTemp(r.opts.TempDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return f, nil
}

// detectPDF checks the magic bytes of f.
func detectPDF(f *Fetched) error {
	mtype, err := mimetype.DetectFile(f.Path)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}
	f.MIME = mtype.String()
	if !mtype.Is("application/pdf") {
		log.Debug().Str("mime", f.MIME).Str("file", f.Path).Msg("rejected non-PDF document")
		return fmt.Errorf("%w: detected %s", ErrNotPDF, f.MIME)
	}
	return nil
}
