package selection

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

type anchorKind int

const (
	anchorPage anchorKind = iota
	anchorPattern
	anchorNumeric
	anchorAll
)

// rangeAnchor is one side of "A to B".
type rangeAnchor struct {
	Text    string
	Kind    anchorKind
	Page    int // anchorPage, offset already applied
	Pattern *PatternSpec
	Numeric *numericSpec
}

// rangeSpec is a parsed range pattern.
type rangeSpec struct {
	Text string
	From rangeAnchor
	To   rangeAnchor
}

const rangeSeparator = " to "

func looksLikeRange(s string) bool {
	return len(unquotedIndexes(s, rangeSeparator)) > 0
}

var reAnchorPage = regexp.MustCompile(`^(\d+)\s*(?:([+-])\s*(\d+))?$`)

// parseRange splits s on its single unquoted " to " and validates both
// anchors. Literal page anchors are checked against the window here.
func parseRange(s string, total int, reverse ReverseRangeMode) (*rangeSpec, error) {
	text := strings.TrimSpace(s)
	seps := unquotedIndexes(text, rangeSeparator)
	if len(seps) != 1 {
		return nil, syntaxErr(text, -1, "malformed range pattern: want exactly one %q separator, found %d", strings.TrimSpace(rangeSeparator), len(seps))
	}
	left := strings.TrimSpace(text[:seps[0]])
	right := strings.TrimSpace(text[seps[0]+len(rangeSeparator):])

	from, err := parseAnchor(text, left, total, reverse)
	if err != nil {
		return nil, err
	}
	to, err := parseAnchor(text, right, total, reverse)
	if err != nil {
		return nil, err
	}
	return &rangeSpec{Text: text, From: from, To: to}, nil
}

func parseAnchor(rangeText, s string, total int, reverse ReverseRangeMode) (rangeAnchor, error) {
	a := rangeAnchor{Text: s}
	switch {
	case s == "":
		return a, syntaxErr(rangeText, -1, "malformed range pattern: missing anchor")
	case strings.EqualFold(s, "all"):
		a.Kind = anchorAll
	case reAnchorPage.MatchString(s):
		m := reAnchorPage.FindStringSubmatch(s)
		page, _ := strconv.Atoi(m[1])
		if m[3] != "" {
			off, _ := strconv.Atoi(m[3])
			if m[2] == "-" {
				off = -off
			}
			page += off
		}
		if page < 1 || page > total {
			return a, semanticErr(rangeText, "anchor %q is page %d, outside 1-%d", s, page, total)
		}
		a.Kind, a.Page = anchorPage, page
	case looksLikePattern(s):
		p, err := parsePattern(s)
		if err != nil {
			return a, err
		}
		a.Kind, a.Pattern = anchorPattern, p
	case looksNumeric(s):
		n, err := parseNumeric(s)
		if err != nil {
			return a, err
		}
		if _, err := n.resolve(total, reverse); err != nil {
			return a, err
		}
		a.Kind, a.Numeric = anchorNumeric, n
	default:
		return a, syntaxErr(rangeText, -1, "malformed range pattern: %q is not a page, pattern or page specification", s)
	}
	return a, nil
}

func (a rangeAnchor) needsContent() bool { return a.Kind == anchorPattern }

func (a rangeAnchor) pages(ctx context.Context, facts *pageFacts, total int, reverse ReverseRangeMode) (pageSet, error) {
	switch a.Kind {
	case anchorAll:
		return fullPageSet(total), nil
	case anchorPage:
		return pageSetOf(total, a.Page), nil
	case anchorNumeric:
		pages, err := a.Numeric.resolve(total, reverse)
		if err != nil {
			return pageSet{}, err
		}
		return pageSetOf(total, pages...), nil
	default:
		return a.Pattern.evaluate(ctx, facts, total)
	}
}

// resolve returns [A..B] where A is the first page matching the start
// anchor and B the first page at or after A matching the end anchor.
func (r *rangeSpec) resolve(ctx context.Context, facts *pageFacts, total int, reverse ReverseRangeMode) ([]int, error) {
	from, err := r.From.pages(ctx, facts, total, reverse)
	if err != nil {
		return nil, err
	}
	start := from.first(1)
	if start == 0 {
		return nil, semanticErr(r.Text, "no page matches start anchor %q", r.From.Text)
	}
	to, err := r.To.pages(ctx, facts, total, reverse)
	if err != nil {
		return nil, err
	}
	end := to.first(start)
	if end == 0 {
		if to.empty() {
			return nil, semanticErr(r.Text, "no page matches end anchor %q", r.To.Text)
		}
		return nil, semanticErr(r.Text, "end anchor %q only matches before page %d", r.To.Text, start)
	}
	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out, nil
}
