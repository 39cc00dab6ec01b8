package selection

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type numericForm int

const (
	numSingle numericForm = iota
	numDash                // a-b, a-, -b
	numColon               // a:b
	numDots                // a..b
	numFirst
	numLast
	numSlice // start:stop:step
)

// numericSpec is a parsed plain page specification. Zero Start or Stop
// means "not given"; they are filled from the document window on resolve.
type numericSpec struct {
	Text  string
	Form  numericForm
	Start int
	Stop  int
	Step  int
	Count int // first/last
}

var (
	reSingle    = regexp.MustCompile(`^\d+$`)
	reDash      = regexp.MustCompile(`^(\d*)\s*-\s*(\d*)$`)
	reColon     = regexp.MustCompile(`^(\d*)\s*:\s*(\d*)$`)
	reDots      = regexp.MustCompile(`^(\d+)\s*\.\.\s*(\d+)$`)
	reSlice     = regexp.MustCompile(`^(\d*)\s*:\s*(\d*)\s*:\s*(-?\d*)$`)
	reFirstLast = regexp.MustCompile(`(?i)^(first|last)(?:\s+|\s*-\s*)(\d+)$`)
)

// looksNumeric reports whether s has the shape of a plain page
// specification. It does not check values.
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == ":" {
		return false
	}
	for _, re := range []*regexp.Regexp{reSingle, reDash, reColon, reDots, reSlice, reFirstLast} {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func atoiOr(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return n, nil
}

// parseNumeric parses s into a numericSpec. Errors are SyntaxErrors; range
// checks against the document happen in resolve.
func parseNumeric(s string) (*numericSpec, error) {
	text := strings.TrimSpace(s)
	spec := &numericSpec{Text: text, Step: 1}
	bad := func(err error) error { return syntaxErr(text, -1, "%v", err) }

	switch {
	case reSingle.MatchString(text):
		n, err := atoiOr(text, 0)
		if err != nil {
			return nil, bad(err)
		}
		spec.Form, spec.Start, spec.Stop = numSingle, n, n

	case reFirstLast.MatchString(text):
		m := reFirstLast.FindStringSubmatch(text)
		n, err := atoiOr(m[2], 0)
		if err != nil {
			return nil, bad(err)
		}
		spec.Count = n
		spec.Form = numFirst
		if strings.EqualFold(m[1], "last") {
			spec.Form = numLast
		}

	case reDots.MatchString(text):
		m := reDots.FindStringSubmatch(text)
		a, err := atoiOr(m[1], 0)
		if err != nil {
			return nil, bad(err)
		}
		b, err := atoiOr(m[2], 0)
		if err != nil {
			return nil, bad(err)
		}
		spec.Form, spec.Start, spec.Stop = numDots, a, b

	case reSlice.MatchString(text):
		m := reSlice.FindStringSubmatch(text)
		a, err := atoiOr(m[1], 0)
		if err != nil {
			return nil, bad(err)
		}
		b, err := atoiOr(m[2], 0)
		if err != nil {
			return nil, bad(err)
		}
		step, err := atoiOr(m[3], 1)
		if err != nil {
			return nil, bad(err)
		}
		if step <= 0 {
			return nil, syntaxErr(text, -1, "slice step must be positive, got %d", step)
		}
		spec.Form, spec.Start, spec.Stop, spec.Step = numSlice, a, b, step

	case reColon.MatchString(text):
		m := reColon.FindStringSubmatch(text)
		a, err := atoiOr(m[1], 0)
		if err != nil {
			return nil, bad(err)
		}
		b, err := atoiOr(m[2], 0)
		if err != nil {
			return nil, bad(err)
		}
		spec.Form, spec.Start, spec.Stop = numColon, a, b

	case reDash.MatchString(text):
		m := reDash.FindStringSubmatch(text)
		if m[1] == "" && m[2] == "" {
			return nil, syntaxErr(text, -1, "range needs a start or an end")
		}
		a, err := atoiOr(m[1], 0)
		if err != nil {
			return nil, bad(err)
		}
		b, err := atoiOr(m[2], 0)
		if err != nil {
			return nil, bad(err)
		}
		spec.Form, spec.Start, spec.Stop = numDash, a, b

	default:
		return nil, syntaxErr(text, -1, "invalid page specification")
	}

	switch spec.Form {
	case numDash, numColon, numDots, numSlice:
		if err := checkZeroEndpoints(text, spec.Form); err != nil {
			return nil, err
		}
	}

	if spec.Start > 0 && spec.Stop > 0 && spec.Start > spec.Stop {
		switch spec.Form {
		case numColon, numDots, numSlice:
			return nil, semanticErr(text, "start page %d is after end page %d", spec.Start, spec.Stop)
		}
	}
	return spec, nil
}

// checkZeroEndpoints rejects a written page 0 as a range endpoint. An
// omitted endpoint also parses to 0, so the text itself is inspected.
func checkZeroEndpoints(text string, form numericForm) error {
	var re *regexp.Regexp
	switch form {
	case numDash:
		re = reDash
	case numColon:
		re = reColon
	case numDots:
		re = reDots
	case numSlice:
		re = reSlice
	}
	m := re.FindStringSubmatch(text)
	for _, g := range m[1:3] {
		if g != "" && strings.Trim(g, "0") == "" {
			return semanticErr(text, "page 0 out of range, pages start at 1")
		}
	}
	return nil
}

// resolve expands the spec over 1..total in its natural order. Range and
// slice output is clamped to the window; a single page outside it is an
// error, as is an empty result.
func (n *numericSpec) resolve(total int, reverse ReverseRangeMode) ([]int, error) {
	var pages []int
	// span walks only the part of [from,to] inside the window.
	span := func(from, to, step int) {
		to = min(to, total)
		for p := from; p <= to; p += step {
			pages = append(pages, p)
			if to-p < step {
				break
			}
		}
	}

	switch n.Form {
	case numSingle:
		if n.Start < 1 || n.Start > total {
			return nil, semanticErr(n.Text, "page %d out of range (1-%d)", n.Start, total)
		}
		return []int{n.Start}, nil
	case numFirst:
		span(1, min(n.Count, total), 1)
	case numLast:
		if n.Count > 0 {
			span(max(1, total-n.Count+1), total, 1)
		}
	case numDash:
		start, stop := n.Start, n.Stop
		openStart, openStop := start == 0 && n.Text[0] == '-', stop == 0 && strings.HasSuffix(n.Text, "-")
		if openStart {
			start = 1
		}
		if openStop {
			stop = total
		}
		if start <= stop || openStart || openStop {
			span(start, stop, 1)
			break
		}
		if reverse == ReverseRejected {
			return nil, semanticErr(n.Text, "start page %d is after end page %d", start, stop)
		}
		for p := min(start, total); p >= max(stop, 1); p-- {
			pages = append(pages, p)
		}
	case numColon, numDots:
		span(orDefault(n.Start, 1), orDefault(n.Stop, total), 1)
	case numSlice:
		span(orDefault(n.Start, 1), orDefault(n.Stop, total), n.Step)
	}

	if len(pages) == 0 {
		return nil, semanticErr(n.Text, "no valid pages in range")
	}
	return pages, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// isRange is false only for a single page.
func (n *numericSpec) isRange() bool { return n.Form != numSingle }

// label is the descriptive name used for slices in result descriptions.
func (n *numericSpec) label(total int) string {
	if n.Form != numSlice {
		return n.Text
	}
	start, stop := orDefault(n.Start, 1), orDefault(n.Stop, total)
	switch {
	case start == 1 && stop == total && n.Step == 2:
		return "odd"
	case start == 2 && stop == total && n.Step == 2:
		return "even"
	case start == 1 && stop == total:
		return fmt.Sprintf("every-%d", n.Step)
	default:
		return fmt.Sprintf("%d-%d-step%d", start, stop, n.Step)
	}
}
