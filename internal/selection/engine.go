// Package selection parses and evaluates page-selection expressions such
// as "1-3, contains/i:'summary' & !type:empty, 10-7" against per-page facts
// supplied by a ContentProvider.
//
// An expression is a comma-separated list of parts. Each part is a page
// specification, a content pattern, a range pattern ("A to B"), the
// keyword all, or a boolean combination of those with &, | and !. When
// every part is valid the result keeps the parts, and the pages inside
// them, in the order they were written.
package selection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Engine evaluates selection expressions. It holds only its options and
// is safe for concurrent use.
type Engine struct {
	opts Options
}

// New returns an Engine configured with opts.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options { return e.opts }

// Parse evaluates expr with DefaultOptions.
func Parse(ctx context.Context, expr string, totalPages int, provider ContentProvider) (*Result, error) {
	return New(DefaultOptions()).Parse(ctx, expr, totalPages, provider)
}

// compiledPart is one comma-part after static validation.
type compiledPart struct {
	text  string
	node  Node
	kind  partKind
	stats nodeStats
}

// Compile runs every static check on expr without evaluating it. The
// provider is only needed later, so content predicates are accepted here.
func (e *Engine) Compile(expr string, totalPages int) error {
	s, err := e.prepare(expr, totalPages)
	if err != nil {
		return err
	}
	for _, raw := range splitTopLevel(s, ',') {
		if _, err := e.compilePart(raw, totalPages, true); err != nil {
			return err
		}
	}
	return nil
}

// Parse compiles and evaluates expr against a document of totalPages
// pages. provider may be nil when expr has no content predicates. Errors
// from the provider are returned as they are.
func (e *Engine) Parse(ctx context.Context, expr string, totalPages int, provider ContentProvider) (*Result, error) {
	s, err := e.prepare(expr, totalPages)
	if err != nil {
		return nil, err
	}
	hasProvider := provider != nil

	var (
		parts    []compiledPart
		skipped  []SkippedPart
		firstErr error
	)
	fail := func(spec string, err error) error {
		if e.opts.InvalidParts != SkipInvalid || !IsSelectionError(err) {
			return err
		}
		if firstErr == nil {
			firstErr = err
		}
		skipped = append(skipped, SkippedPart{Spec: spec, Err: err})
		log.Warn().Err(err).Str("part", spec).Msg("skipping invalid selection part")
		return nil
	}

	for _, raw := range splitTopLevel(s, ',') {
		cp, err := e.compilePart(raw, totalPages, hasProvider)
		if err != nil {
			if err := fail(strings.TrimSpace(raw), err); err != nil {
				return nil, err
			}
			continue
		}
		log.Debug().Str("part", cp.text).Str("kind", cp.kind.String()).Msg("selection part compiled")
		parts = append(parts, cp)
	}

	bounds, err := e.compileBoundaries(totalPages, hasProvider)
	if err != nil {
		return nil, err
	}
	filter, err := compileGroupFilter(e.opts.GroupFilter, totalPages, e.opts.ReverseRanges, hasProvider)
	if err != nil {
		return nil, err
	}

	var facts *pageFacts
	if hasProvider {
		facts = newPageFacts(provider)
	}
	ev := &evaluator{ctx: ctx, facts: facts, total: totalPages, reverse: e.opts.ReverseRanges}

	var (
		groups []PageGroup
		kept   []compiledPart
	)
	for _, cp := range parts {
		pages, err := ev.ordered(cp.node)
		if err == nil && len(pages) == 0 {
			err = semanticErr(cp.text, "no pages selected")
		}
		if err != nil {
			if err := fail(cp.text, err); err != nil {
				return nil, err
			}
			continue
		}
		groups = append(groups, PageGroup{
			Pages:         pages,
			IsRange:       cp.isRange(),
			PreserveOrder: true,
			OriginalSpec:  cp.text,
		})
		kept = append(kept, cp)
	}
	if len(groups) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, semanticErr(s, "no valid pages in range")
	}

	if len(skipped) > 0 {
		// standard unordered combination
		for i := range groups {
			groups[i].PreserveOrder = false
			if !groups[i].IsRange {
				sort.Ints(groups[i].Pages)
				groups[i].Pages = dedupe(groups[i].Pages)
			}
		}
	}

	res := &Result{Groups: groups, Skipped: skipped}
	res.Pages = unionPages(groups)
	res.Description = describe(kept, totalPages, len(res.Pages))

	if bounds != nil {
		if err := bounds.apply(ev, res); err != nil {
			return nil, err
		}
	}
	if filter != nil {
		if err := filter.apply(ev, res); err != nil {
			return nil, err
		}
	}
	if bounds != nil || filter != nil {
		res.Description = advancedDescription(res.Description, e.opts, len(res.Groups))
	}
	return res, nil
}

// prepare trims expr, strips one pair of enclosing quotes and rejects
// empty input and unmatched quotes.
func (e *Engine) prepare(expr string, totalPages int) (string, error) {
	if totalPages < 1 {
		return "", semanticErr(expr, "document has no pages")
	}
	s := stripOuterQuotes(strings.TrimSpace(expr))
	if s == "" {
		return "", syntaxErr(expr, -1, "empty page selection")
	}
	if err := checkQuotes(s); err != nil {
		return "", err
	}
	return s, nil
}

func (e *Engine) compilePart(raw string, total int, hasProvider bool) (compiledPart, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return compiledPart{}, syntaxErr(raw, -1, "empty selection part")
	}
	node, err := parseExpr(text, total, e.opts.ReverseRanges)
	if err != nil {
		return compiledPart{}, err
	}
	cp := compiledPart{text: text, node: node, kind: kindOf(node), stats: statsOf(node)}
	if cp.stats.content && !hasProvider {
		return compiledPart{}, semanticErr(text, "content predicate needs a content provider")
	}
	return cp, nil
}

func (cp compiledPart) isRange() bool {
	switch n := cp.node.(type) {
	case *Numeric:
		return n.Spec.isRange()
	case *Range, *All:
		return true
	}
	return false
}

// stripOuterQuotes removes one pair of quotes that encloses the whole of
// s, as left behind by shells and config files.
func stripOuterQuotes(s string) string {
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') {
		return s
	}
	if closingQuote(s, 0) != len(s)-1 {
		return s
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}

func describe(parts []compiledPart, total, selected int) string {
	if len(parts) != 1 {
		return fmt.Sprintf("mixed-%dgroups-%dpages", len(parts), selected)
	}
	cp := parts[0]
	switch n := cp.node.(type) {
	case *All:
		return "all-pages"
	case *Numeric:
		return sanitize(n.Spec.label(total), 20)
	case *Pattern, *Range:
		return describePattern(cp.text)
	default:
		return describeBoolean(cp.text)
	}
}
