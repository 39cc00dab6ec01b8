package selection

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var reIndexFilter = regexp.MustCompile(`^[\d,\-\s]+$`)

// groupFilter keeps the groups selected either by 1-based index or by
// overlap with an expression's pages.
type groupFilter struct {
	text    string
	indexes map[int]bool
	expr    Node
}

func compileGroupFilter(text string, total int, reverse ReverseRangeMode, hasProvider bool) (*groupFilter, error) {
	text = stripOuterQuotes(strings.TrimSpace(text))
	if text == "" {
		return nil, nil
	}
	if reIndexFilter.MatchString(text) {
		idx, err := parseIndexFilter(text, total)
		if err != nil {
			return nil, err
		}
		return &groupFilter{text: text, indexes: idx}, nil
	}
	if err := checkQuotes(text); err != nil {
		return nil, err
	}
	n, err := parseExpr(text, total, reverse)
	if err != nil {
		return nil, err
	}
	if statsOf(n).content && !hasProvider {
		return nil, semanticErr(text, "content predicate needs a content provider")
	}
	return &groupFilter{text: text, expr: n}, nil
}

// parseIndexFilter reads "1,3-4" into a set of group indexes. Groups never
// outnumber pages, so ranges are cut at total; a range starting past it
// keeps its start so the miss is still reported.
func parseIndexFilter(text string, total int) (map[int]bool, error) {
	out := map[int]bool{}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, syntaxErr(text, -1, "empty group index")
		}
		if i := strings.Index(part, "-"); i > 0 && i < len(part)-1 {
			a, errA := strconv.Atoi(strings.TrimSpace(part[:i]))
			b, errB := strconv.Atoi(strings.TrimSpace(part[i+1:]))
			if errA != nil || errB != nil {
				return nil, syntaxErr(text, -1, "invalid group index range %q", part)
			}
			if a > b {
				return nil, syntaxErr(text, -1, "invalid group index range %q: start > end", part)
			}
			if a < 1 {
				return nil, syntaxErr(text, -1, "group indexes start at 1, found %d", a)
			}
			hi := min(b, total)
			if a > hi {
				out[a] = true
				continue
			}
			for j := a; j <= hi; j++ {
				out[j] = true
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, syntaxErr(text, -1, "invalid group index %q", part)
		}
		if n < 1 {
			return nil, syntaxErr(text, -1, "group indexes start at 1, found %d", n)
		}
		out[n] = true
	}
	return out, nil
}

func (f *groupFilter) apply(ev *evaluator, res *Result) error {
	var kept []PageGroup
	if f.indexes != nil {
		var outside []int
		for i := range f.indexes {
			if i > len(res.Groups) {
				outside = append(outside, i)
			}
		}
		if len(outside) > 0 {
			log.Warn().Ints("indexes", outside).Int("groups", len(res.Groups)).Msg("group filter indexes out of range")
		}
		for i, g := range res.Groups {
			if f.indexes[i+1] {
				kept = append(kept, g)
			}
		}
	} else {
		match, err := ev.eval(f.expr)
		if err != nil {
			return err
		}
		for _, g := range res.Groups {
			for _, p := range g.Pages {
				if match.has(p) {
					kept = append(kept, g)
					break
				}
			}
		}
	}
	if len(kept) == 0 {
		return semanticErr(f.text, "no groups match filter")
	}
	log.Debug().Int("before", len(res.Groups)).Int("after", len(kept)).Str("filter", f.text).Msg("groups filtered")
	res.Groups = kept
	res.Pages = unionPages(kept)
	return nil
}
