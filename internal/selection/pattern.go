package selection

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// PatternKind is the predicate family of a content pattern.
type PatternKind int

const (
	Contains PatternKind = iota
	Regex
	LineStarts
	Type
	Size
)

var patternPrefixes = []struct {
	name string
	kind PatternKind
}{
	{"line-starts", LineStarts},
	{"contains", Contains},
	{"regex", Regex},
	{"type", Type},
	{"size", Size},
}

func (k PatternKind) String() string {
	for _, p := range patternPrefixes {
		if p.kind == k {
			return p.name
		}
	}
	return "unknown"
}

// SizeOp is the comparison of a size: predicate.
type SizeOp string

const (
	SizeLess      SizeOp = "<"
	SizeLessEq    SizeOp = "<="
	SizeGreater   SizeOp = ">"
	SizeGreaterEq SizeOp = ">="
	SizeEqual     SizeOp = "="
)

// SizeClause is a parsed size comparison, the target already in bytes.
type SizeClause struct {
	Op    SizeOp
	Bytes int64
}

var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
}

var reSizeClause = regexp.MustCompile(`^(<=|>=|==|<|>|=)\s*(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

func parseSizeClause(s string) (SizeClause, error) {
	m := reSizeClause.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return SizeClause{}, fmt.Errorf("invalid size clause %q (want e.g. <500KB, >=1MB)", s)
	}
	mult, ok := sizeUnits[strings.ToUpper(m[3])]
	if !ok {
		return SizeClause{}, fmt.Errorf("unknown size unit %q (want B, KB, MB or GB)", m[3])
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return SizeClause{}, fmt.Errorf("invalid size value %q", m[2])
	}
	bytes := v * float64(mult)
	if math.IsNaN(bytes) || math.IsInf(bytes, 0) || bytes >= math.MaxInt64 {
		return SizeClause{}, fmt.Errorf("size value %q is too large", m[2]+m[3])
	}
	op := SizeOp(m[1])
	if op == "==" {
		op = SizeEqual
	}
	return SizeClause{Op: op, Bytes: int64(math.Round(bytes))}, nil
}

// Match compares a page size against the clause. "=" accepts sizes within
// max(5% of the target, 1KB).
func (c SizeClause) Match(size int64) bool {
	switch c.Op {
	case SizeLess:
		return size < c.Bytes
	case SizeLessEq:
		return size <= c.Bytes
	case SizeGreater:
		return size > c.Bytes
	case SizeGreaterEq:
		return size >= c.Bytes
	case SizeEqual:
		tol := max(c.Bytes/20, 1024)
		d := size - c.Bytes
		if d < 0 {
			d = -d
		}
		return d <= tol
	}
	return false
}

// PatternSpec is a validated content predicate.
type PatternSpec struct {
	Text       string
	Kind       PatternKind
	IgnoreCase bool
	Value      string
	PageType   PageType
	Size       SizeClause
	Offset     int

	re     *regexp.Regexp
	folded string
}

// patternPrefix returns the predicate kind and the length of "name:" or
// "name/i:" at the start of s.
func patternPrefix(s string) (kind PatternKind, ignoreCase bool, n int, ok bool) {
	lower := strings.ToLower(s)
	for _, p := range patternPrefixes {
		switch {
		case strings.HasPrefix(lower, p.name+"/i:"):
			return p.kind, true, len(p.name) + 3, true
		case strings.HasPrefix(lower, p.name+":"):
			return p.kind, false, len(p.name) + 1, true
		}
	}
	return 0, false, 0, false
}

func looksLikePattern(s string) bool {
	_, _, _, ok := patternPrefix(strings.TrimSpace(s))
	return ok
}

var reOffset = regexp.MustCompile(`\s*([+-]\d+)$`)

// parsePattern validates a pattern predicate. Every problem is reported as
// a SyntaxError before any page is looked at.
func parsePattern(s string) (*PatternSpec, error) {
	text := strings.TrimSpace(s)
	kind, fold, n, ok := patternPrefix(text)
	if !ok {
		return nil, syntaxErr(text, 0, "unknown pattern type (want contains, regex, line-starts, type or size)")
	}
	spec := &PatternSpec{Text: text, Kind: kind, IgnoreCase: fold}

	value, offset, err := splitPatternValue(text, n)
	if err != nil {
		return nil, err
	}
	spec.Offset = offset
	if value == "" {
		return nil, syntaxErr(text, n, "empty pattern value")
	}
	spec.Value = value

	switch kind {
	case Contains, LineStarts:
		if fold {
			spec.folded = cases.Fold().String(value)
		}
	case Regex:
		expr := value
		if fold {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, syntaxErr(text, n, "invalid regular expression: %v", err)
		}
		spec.re = re
	case Type:
		t, err := parsePageType(value)
		if err != nil {
			return nil, syntaxErr(text, n, "%v", err)
		}
		spec.PageType = t
	case Size:
		c, err := parseSizeClause(value)
		if err != nil {
			return nil, syntaxErr(text, n, "%v", err)
		}
		spec.Size = c
	}
	return spec, nil
}

// splitPatternValue extracts the (unquoted) value and trailing offset of
// the pattern text that starts at byte n.
func splitPatternValue(text string, n int) (string, int, error) {
	rest := strings.TrimLeft(text[n:], " \t")
	start := len(text) - len(rest)
	if rest == "" {
		return "", 0, nil
	}

	if q := rest[0]; q == '\'' || q == '"' {
		end := closingQuote(rest, 0)
		if end < 0 {
			return "", 0, syntaxErr(text, start, "unmatched quote %c", q)
		}
		value := unescapeQuotes(rest[1:end])
		tail := strings.TrimSpace(rest[end+1:])
		if tail == "" {
			return value, 0, nil
		}
		m := reOffset.FindStringSubmatch(tail)
		if m == nil || len(m[0]) != len(tail) {
			return "", 0, syntaxErr(text, start+end+1, "unexpected %q after closing quote", tail)
		}
		off, _ := strconv.Atoi(m[1])
		return value, off, nil
	}

	offset := 0
	if loc := reOffset.FindStringSubmatchIndex(rest); loc != nil {
		offset, _ = strconv.Atoi(rest[loc[2]:loc[3]])
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(rest), offset, nil
}

// closingQuote returns the index of the quote closing the one at s[open],
// honouring backslash escapes, or -1.
func closingQuote(s string, open int) int {
	q := s[open]
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			return i
		}
	}
	return -1
}

var quoteUnescaper = strings.NewReplacer(`\'`, `'`, `\"`, `"`)

func unescapeQuotes(s string) string { return quoteUnescaper.Replace(s) }

// matches reports whether the page satisfies the predicate, before the
// offset is applied.
func (p *PatternSpec) matches(ctx context.Context, facts *pageFacts, page int) (bool, error) {
	switch p.Kind {
	case Contains, Regex, LineStarts:
		text, err := facts.pageText(ctx, page)
		if err != nil {
			return false, err
		}
		if text == "" {
			return false, nil
		}
		return p.matchText(text), nil
	case Type:
		c, err := facts.classify(ctx, page)
		if err != nil {
			return false, err
		}
		return c.Type == p.PageType, nil
	case Size:
		size, err := facts.sizeBytes(ctx, page)
		if err != nil {
			return false, err
		}
		return p.Size.Match(size), nil
	}
	return false, nil
}

func (p *PatternSpec) matchText(text string) bool {
	switch p.Kind {
	case Regex:
		return p.re.MatchString(text)
	case Contains:
		if p.IgnoreCase {
			return strings.Contains(cases.Fold().String(text), p.folded)
		}
		return strings.Contains(text, p.Value)
	case LineStarts:
		var fold cases.Caser
		if p.IgnoreCase {
			fold = cases.Fold()
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if p.IgnoreCase {
				if strings.HasPrefix(fold.String(line), p.folded) {
					return true
				}
				continue
			}
			if strings.HasPrefix(line, p.Value) {
				return true
			}
		}
	}
	return false
}

// evaluate scans every page and returns the matches shifted by the offset.
// Shifted pages that leave 1..total are dropped.
func (p *PatternSpec) evaluate(ctx context.Context, facts *pageFacts, total int) (pageSet, error) {
	out := newPageSet(total)
	for page := 1; page <= total; page++ {
		ok, err := p.matches(ctx, facts, page)
		if err != nil {
			return pageSet{}, err
		}
		if ok {
			out.add(page + p.Offset)
		}
	}
	return out, nil
}
