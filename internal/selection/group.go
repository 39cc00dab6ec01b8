package selection

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PageGroup is an ordered chunk of the selection produced by one
// comma-part (or by splitting one at boundaries).
type PageGroup struct {
	Pages         []int  `json:"pages"`
	IsRange       bool   `json:"is_range"`
	PreserveOrder bool   `json:"preserve_order"`
	OriginalSpec  string `json:"original_spec"`
}

// SkippedPart is a comma-part dropped under SkipInvalid.
type SkippedPart struct {
	Spec string `json:"spec"`
	Err  error  `json:"-"`
}

// Reason is the error text of the skipped part.
func (s SkippedPart) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Result is the outcome of one Parse call. Pages is the sorted union of
// every group's pages.
type Result struct {
	Pages       []int         `json:"pages"`
	Description string        `json:"description"`
	Groups      []PageGroup   `json:"groups"`
	Skipped     []SkippedPart `json:"skipped,omitempty"`
}

// OrderedPages concatenates the groups in order. Groups that neither
// preserve order nor describe a range contribute their pages sorted.
func (r *Result) OrderedPages() []int {
	var out []int
	for _, g := range r.Groups {
		if g.PreserveOrder || g.IsRange {
			out = append(out, g.Pages...)
			continue
		}
		sorted := append([]int(nil), g.Pages...)
		sort.Ints(sorted)
		out = append(out, sorted...)
	}
	return out
}

// Contains reports whether page is selected.
func (r *Result) Contains(page int) bool {
	i := sort.SearchInts(r.Pages, page)
	return i < len(r.Pages) && r.Pages[i] == page
}

// unionPages returns the sorted, de-duplicated pages of all groups.
func unionPages(groups []PageGroup) []int {
	seen := map[int]bool{}
	var out []int
	for _, g := range groups {
		for _, p := range g.Pages {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Ints(out)
	return out
}

func dedupe(pages []int) []int {
	seen := make(map[int]bool, len(pages))
	out := pages[:0:0]
	for _, p := range pages {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

var reUnsafe = regexp.MustCompile(`[^\w-]`)

// sanitize makes s usable inside a file name and truncates it to n bytes.
func sanitize(s string, n int) string {
	s = reUnsafe.ReplaceAllString(s, "-")
	if len(s) > n {
		s = s[:n]
	}
	return s
}

func describePattern(expr string) string {
	if len(expr) > 15 {
		return "pattern-match"
	}
	return sanitize(expr, 15)
}

// boundaryGroup names a group created by boundary splitting after its
// pages: page7, pages3-5 or pages2,4,9.
func boundaryGroup(pages []int) PageGroup {
	sorted := append([]int(nil), pages...)
	sort.Ints(sorted)
	if len(sorted) == 1 {
		return PageGroup{Pages: sorted, OriginalSpec: fmt.Sprintf("page%d", sorted[0])}
	}
	contiguous := true
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			contiguous = false
			break
		}
	}
	if contiguous {
		return PageGroup{
			Pages:        sorted,
			IsRange:      true,
			OriginalSpec: fmt.Sprintf("pages%d-%d", sorted[0], sorted[len(sorted)-1]),
		}
	}
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = strconv.Itoa(p)
	}
	return PageGroup{Pages: sorted, IsRange: true, OriginalSpec: "pages" + strings.Join(parts, ",")}
}
