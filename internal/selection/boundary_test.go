package selection

import (
	"context"
	"reflect"
	"testing"
)

func specs(groups []PageGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.OriginalSpec
	}
	return out
}

func TestBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       []string
		desc       string
	}{
		{"start", "contains:'Chapter'", "", []string{"pages1-4", "pages5-10"}, "all-pages-start-split-2groups"},
		{"end", "", "contains:'Summary'", []string{"pages1-4", "pages5-8", "pages9-10"}, "all-pages-end-split-3groups"},
		{"both", "contains:'Chapter'", "contains:'Summary'", []string{"pages1-4", "pages5-8", "pages9-10"}, "all-pages-bounded-3groups"},
		{"start and end on one page", "type:image", "type:image", []string{"pages1-2", "page3", "pages4-10"}, "all-pages-bounded-3groups"},
	}
	for _, tt := range tests {
		e := New(Options{GroupStart: tt.start, GroupEnd: tt.end})
		res := mustParse(t, e, "all", 10, newFakeDoc())
		if got := specs(res.Groups); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: groups %v, want %v", tt.name, got, tt.want)
		}
		if !reflect.DeepEqual(res.Pages, seq(1, 10)) {
			t.Errorf("%s: boundary split changed pages: %v", tt.name, res.Pages)
		}
		if res.Description != tt.desc {
			t.Errorf("%s: description %q, want %q", tt.name, res.Description, tt.desc)
		}
	}
}

func TestSplitAtBoundaries_NonContiguous(t *testing.T) {
	g := PageGroup{Pages: []int{9, 2, 4, 6}, OriginalSpec: "9,2,4,6"}
	starts := pageSetOf(10, 6)
	got := splitAtBoundaries(g, starts, newPageSet(10))
	if want := []string{"pages2,4", "pages6,9"}; !reflect.DeepEqual(specs(got), want) {
		t.Fatalf("got %v, want %v", specs(got), want)
	}
	if !got[0].IsRange || !reflect.DeepEqual(got[0].Pages, []int{2, 4}) {
		t.Errorf("unexpected first group %+v", got[0])
	}
}

func TestBoundaries_InvalidPattern(t *testing.T) {
	doc := newFakeDoc()
	e := New(Options{GroupStart: "type:photo"})
	_, err := e.Parse(context.Background(), "all", 10, doc)
	if !IsSyntax(err) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if len(doc.calls) != 0 {
		t.Errorf("provider called before boundary validation: %v", doc.calls)
	}
}

func TestGroupFilter_Index(t *testing.T) {
	e := New(Options{GroupEnd: "contains:'Summary'", GroupFilter: "1,3"})
	res := mustParse(t, e, "all", 10, newFakeDoc())
	if want := []string{"pages1-4", "pages9-10"}; !reflect.DeepEqual(specs(res.Groups), want) {
		t.Fatalf("groups %v, want %v", specs(res.Groups), want)
	}
	if want := []int{1, 2, 3, 4, 9, 10}; !reflect.DeepEqual(res.Pages, want) {
		t.Errorf("pages %v, want %v", res.Pages, want)
	}
}

func TestGroupFilter_IndexRangeAndOutOfRange(t *testing.T) {
	res := mustParse(t, New(Options{GroupFilter: "2-3, 7"}), "1, 2, 3, 4", 10, nil)
	if want := []int{2, 3}; !reflect.DeepEqual(res.Pages, want) {
		t.Errorf("pages %v, want %v", res.Pages, want)
	}
}

func TestGroupFilter_IndexHugeRange(t *testing.T) {
	res := mustParse(t, New(Options{GroupFilter: "2-9223372036854775807"}), "1, 2, 3, 4", 10, nil)
	if want := []int{2, 3, 4}; !reflect.DeepEqual(res.Pages, want) {
		t.Errorf("pages %v, want %v", res.Pages, want)
	}
	_, err := New(Options{GroupFilter: "5000000000-9000000000"}).Parse(context.Background(), "1, 2", 10, nil)
	if !IsSemantic(err) {
		t.Errorf("expected SemanticError, got %v", err)
	}
}

func TestGroupFilter_Content(t *testing.T) {
	e := New(Options{GroupEnd: "contains:'Summary'", GroupFilter: "type:image | contains:'Appendix'"})
	res := mustParse(t, e, "all", 10, newFakeDoc())
	if want := []string{"pages1-4", "pages9-10"}; !reflect.DeepEqual(specs(res.Groups), want) {
		t.Fatalf("groups %v, want %v", specs(res.Groups), want)
	}
}

func TestGroupFilter_Errors(t *testing.T) {
	tests := []struct {
		filter   string
		semantic bool
	}{
		{"3-1", false},
		{"0", false},
		{"1,,2", false},
		{"type:photo", false},
		{"5", true},
		{"contains:'Nowhere'", true},
	}
	for _, tt := range tests {
		_, err := New(Options{GroupFilter: tt.filter}).Parse(context.Background(), "1-3, 5", 10, newFakeDoc())
		if tt.semantic && !IsSemantic(err) {
			t.Errorf("%q: expected SemanticError, got %v", tt.filter, err)
		}
		if !tt.semantic && !IsSyntax(err) {
			t.Errorf("%q: expected SyntaxError, got %v", tt.filter, err)
		}
	}
}
