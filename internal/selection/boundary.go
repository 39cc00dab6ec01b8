package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// boundaries splits groups at pages matching the start and end
// expressions.
type boundaries struct {
	start, end Node
}

func (e *Engine) compileBoundaries(total int, hasProvider bool) (*boundaries, error) {
	if strings.TrimSpace(e.opts.GroupStart) == "" && strings.TrimSpace(e.opts.GroupEnd) == "" {
		return nil, nil
	}
	b := &boundaries{}
	var err error
	if b.start, err = e.compileBoundary(e.opts.GroupStart, total, hasProvider); err != nil {
		return nil, err
	}
	if b.end, err = e.compileBoundary(e.opts.GroupEnd, total, hasProvider); err != nil {
		return nil, err
	}
	return b, nil
}

func (e *Engine) compileBoundary(expr string, total int, hasProvider bool) (Node, error) {
	expr = stripOuterQuotes(strings.TrimSpace(expr))
	if expr == "" {
		return nil, nil
	}
	if err := checkQuotes(expr); err != nil {
		return nil, err
	}
	n, err := parseExpr(expr, total, e.opts.ReverseRanges)
	if err != nil {
		return nil, err
	}
	if statsOf(n).content && !hasProvider {
		return nil, semanticErr(expr, "content predicate needs a content provider")
	}
	return n, nil
}

func (b *boundaries) apply(ev *evaluator, res *Result) error {
	starts, ends := newPageSet(ev.total), newPageSet(ev.total)
	var err error
	if b.start != nil {
		if starts, err = ev.eval(b.start); err != nil {
			return err
		}
	}
	if b.end != nil {
		if ends, err = ev.eval(b.end); err != nil {
			return err
		}
	}
	log.Debug().
		Ints("start_pages", starts.pages()).
		Ints("end_pages", ends.pages()).
		Msg("group boundaries resolved")

	var out []PageGroup
	for _, g := range res.Groups {
		out = append(out, splitAtBoundaries(g, starts, ends)...)
	}
	res.Groups = out
	return nil
}

// splitAtBoundaries walks the group's pages in ascending order. A page
// that is both a start and an end becomes a group of its own; an end page
// closes the current group; a start page opens a new one.
func splitAtBoundaries(g PageGroup, starts, ends pageSet) []PageGroup {
	if len(g.Pages) == 0 {
		return []PageGroup{g}
	}
	pages := append([]int(nil), g.Pages...)
	sort.Ints(pages)

	var (
		out     []PageGroup
		current []int
	)
	closeCurrent := func() {
		if len(current) > 0 {
			out = append(out, boundaryGroup(current))
			current = nil
		}
	}
	for _, p := range pages {
		isStart, isEnd := starts.has(p), ends.has(p)
		switch {
		case isStart && isEnd:
			closeCurrent()
			out = append(out, boundaryGroup([]int{p}))
		case isEnd:
			current = append(current, p)
			closeCurrent()
		case isStart:
			closeCurrent()
			current = []int{p}
		default:
			current = append(current, p)
		}
	}
	closeCurrent()
	if len(out) == 0 {
		return []PageGroup{g}
	}
	return out
}

// advancedDescription extends a base description with the boundary and
// filter settings that shaped the final groups.
func advancedDescription(base string, opts Options, groups int) string {
	parts := []string{base}
	hasStart := strings.TrimSpace(opts.GroupStart) != ""
	hasEnd := strings.TrimSpace(opts.GroupEnd) != ""
	switch {
	case hasStart && hasEnd:
		parts = append(parts, "bounded")
	case hasStart:
		parts = append(parts, "start-split")
	case hasEnd:
		parts = append(parts, "end-split")
	}
	if f := strings.TrimSpace(opts.GroupFilter); f != "" {
		switch {
		case len(f) <= 10:
			parts = append(parts, sanitize(f, 10))
		case reIndexFilter.MatchString(f):
			parts = append(parts, "filtered")
		default:
			parts = append(parts, "criteria")
		}
	}
	if groups > 1 {
		parts = append(parts, fmt.Sprintf("%dgroups", groups))
	}
	d := strings.Join(parts, "-")
	if len(d) > 30 {
		return fmt.Sprintf("advanced-%dgroups", groups)
	}
	return d
}
