package pdfdoc

import (
	"context"
	"regexp"
	"sort"
	"time"
)

// DefaultTextThreshold is the number of non-blank characters a sample must
// reach for a document to count as having a text layer.
const DefaultTextThreshold = 300

// PageProbe captures the result of probing a single page.
type PageProbe struct {
	Page      int    `json:"page"`
	CharCount int    `json:"char_count"`
	Err       string `json:"err,omitempty"`
}

// TextLayerReport describes the text-layer check of a document.
type TextLayerReport struct {
	TotalPages   int         `json:"total_pages"`
	SampledPages []int       `json:"sampled_pages"`
	SampledChars int         `json:"sampled_chars"`
	Threshold    int         `json:"threshold"`
	Probes       []PageProbe `json:"probes"`
	HasTextLayer bool        `json:"has_text_layer"`
	DurationMs   int64       `json:"duration_ms"`
}

var whitespace = regexp.MustCompile(`\s+`)

// TextLayer samples a handful of pages straight from the text backend and
// reports whether the document carries extractable text. OCR is never used.
func (d *Document) TextLayer(ctx context.Context, threshold int) (*TextLayerReport, error) {
	if threshold <= 0 {
		threshold = DefaultTextThreshold
	}
	start := time.Now()

	rep := &TextLayerReport{
		TotalPages:   d.pages,
		SampledPages: samplePages(d.pages),
		Threshold:    threshold,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, page := range rep.SampledPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		probe := PageProbe{Page: page}
		text, err := d.text.PageText(ctx, page)
		if err != nil {
			probe.Err = err.Error()
			rep.Probes = append(rep.Probes, probe)
			continue
		}
		probe.CharCount = len([]rune(whitespace.ReplaceAllString(text, "")))
		rep.SampledChars += probe.CharCount
		rep.Probes = append(rep.Probes, probe)
		if rep.SampledChars >= threshold {
			break
		}
	}

	rep.HasTextLayer = rep.SampledChars >= threshold
	rep.DurationMs = time.Since(start).Milliseconds()
	return rep, nil
}

// samplePages picks up to five 1-based pages: all of them for short
// documents, otherwise first, quartiles, middle and last.
func samplePages(total int) []int {
	if total <= 0 {
		return []int{}
	}
	if total <= 5 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	set := map[int]struct{}{}
	for _, p := range []int{1, total/4 + 1, total/2 + 1, 3*total/4 + 1, total} {
		set[min(p, total)] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
