package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// structureProbe reads the PDF object graph with pdfcpu. The image registry
// is built once on first use; the raw bytes are kept for page trimming.
type structureProbe struct {
	path string

	loaded bool
	images []int // per page, 0-based; nil when the registry is unavailable
	raw    []byte
	sizes  map[int]int64
}

func newStructureProbe(path string) *structureProbe {
	return &structureProbe{path: path, sizes: map[int]int64{}}
}

func (p *structureProbe) load() {
	if p.loaded {
		return
	}
	p.loaded = true

	ctx, err := api.ReadContextFile(p.path)
	if err != nil {
		log.Warn().Err(err).Str("pdf", p.path).Msg("read pdf structure failed")
		return
	}
	if err := api.OptimizeContext(ctx); err != nil {
		log.Warn().Err(err).Str("pdf", p.path).Msg("build image registry failed")
		return
	}
	if ctx.Optimize == nil {
		return
	}
	p.images = make([]int, len(ctx.Optimize.PageImages))
	for i, set := range ctx.Optimize.PageImages {
		p.images[i] = len(set)
	}
}

// imageCount returns the number of image objects on page, or -1 if unknown.
func (p *structureProbe) imageCount(page int) int {
	p.load()
	if page < 1 || page > len(p.images) {
		return -1
	}
	return p.images[page-1]
}

// pageSize writes the page out on its own and reports the byte count.
func (p *structureProbe) pageSize(page int) (int64, error) {
	if n, ok := p.sizes[page]; ok {
		return n, nil
	}
	if p.raw == nil {
		raw, err := os.ReadFile(p.path)
		if err != nil {
			return 0, fmt.Errorf("read pdf: %w", err)
		}
		p.raw = raw
	}

	var w countingWriter
	conf := model.NewDefaultConfiguration()
	if err := api.Trim(bytes.NewReader(p.raw), &w, []string{strconv.Itoa(page)}, conf); err != nil {
		return 0, fmt.Errorf("trim page %d: %w", page, err)
	}
	p.sizes[page] = w.n
	return w.n, nil
}

type countingWriter struct{ n int64 }

func (w *countingWriter) Write(b []byte) (int, error) {
	w.n += int64(len(b))
	return len(b), nil
}

var _ io.Writer = (*countingWriter)(nil)
