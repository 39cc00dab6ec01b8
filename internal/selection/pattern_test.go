package selection

import (
	"context"
	"reflect"
	"testing"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in     string
		kind   PatternKind
		value  string
		fold   bool
		offset int
	}{
		{"contains:'Hello'", Contains, "Hello", false, 0},
		{`contains/i:"it's"`, Contains, "it's", true, 0},
		{`contains:'it\'s'`, Contains, "it's", false, 0},
		{"contains:'Chapter'+2", Contains, "Chapter", false, 2},
		{"contains:'Chapter' -1", Contains, "Chapter", false, -1},
		{"contains:Total due", Contains, "Total due", false, 0},
		{"contains:Page-1", Contains, "Page", false, -1},
		{"line-starts:Total", LineStarts, "Total", false, 0},
		{"Regex/I:'^sum'", Regex, "^sum", true, 0},
		{"type:IMAGE", Type, "IMAGE", false, 0},
		{"type:text+1", Type, "text", false, 1},
		{"size:<500KB", Size, "<500KB", false, 0},
	}
	for _, tt := range tests {
		p, err := parsePattern(tt.in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.in, err)
			continue
		}
		if p.Kind != tt.kind || p.Value != tt.value || p.IgnoreCase != tt.fold || p.Offset != tt.offset {
			t.Errorf("%q: got kind=%s value=%q fold=%v offset=%d", tt.in, p.Kind, p.Value, p.IgnoreCase, p.Offset)
		}
	}
}

func TestParsePattern_Errors(t *testing.T) {
	for _, in := range []string{
		"contains:",
		"contains:   ",
		"contains:''",
		"contains:'abc",
		"contains:'abc' trailing",
		"words:'x'",
		"type:photo",
		"size:big",
		"size:<5TB",
		"size:500",
		"regex:'[a-'",
	} {
		if _, err := parsePattern(in); !IsSyntax(err) {
			t.Errorf("%q: expected SyntaxError, got %v", in, err)
		}
	}
}

func TestSizeClause(t *testing.T) {
	tests := []struct {
		in    string
		op    SizeOp
		bytes int64
	}{
		{"<500KB", SizeLess, 500 * 1024},
		{">= 1MB", SizeGreaterEq, 1 << 20},
		{"==2gb", SizeEqual, 2 << 30},
		{"=1.5kb", SizeEqual, 1536},
		{">100", SizeGreater, 100},
		{"<=10B", SizeLessEq, 10},
	}
	for _, tt := range tests {
		c, err := parseSizeClause(tt.in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.in, err)
			continue
		}
		if c.Op != tt.op || c.Bytes != tt.bytes {
			t.Errorf("%q: got %+v", tt.in, c)
		}
	}
}

func TestSizeClause_TooLarge(t *testing.T) {
	for _, in := range []string{">99999999999GB", "<99999999999GB", "=9223372036854775807", ">=8589934592GB"} {
		if _, err := parseSizeClause(in); err == nil {
			t.Errorf("%q: expected error", in)
		}
		if _, err := parsePattern("size:" + in); !IsSyntax(err) {
			t.Errorf("size:%s: expected SyntaxError, got %v", in, err)
		}
	}
	c, err := parseSizeClause("=8589934591GB")
	if err != nil {
		t.Fatalf("largest size rejected: %v", err)
	}
	if c.Bytes <= 0 || c.Match(1024) || !c.Match(c.Bytes) {
		t.Errorf("largest size clause misbehaves: %+v", c)
	}
}

func TestSizeClause_EqualTolerance(t *testing.T) {
	c := SizeClause{Op: SizeEqual, Bytes: 100 * 1024}
	if !c.Match(100*1024 + 5000) {
		t.Error("expected match within 5%")
	}
	if c.Match(100*1024 + 6000) {
		t.Error("unexpected match beyond 5%")
	}
	small := SizeClause{Op: SizeEqual, Bytes: 2048}
	if !small.Match(2048 + 1024) {
		t.Error("expected 1KB minimum tolerance")
	}
	if small.Match(2048 + 1025) {
		t.Error("unexpected match beyond 1KB")
	}
}

func TestPatternEvaluate(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"contains:'chapter'", []int{4, 8}},
		{"contains/i:'chapter'", []int{1, 4, 5, 8}},
		{"contains/i:'CHAPTER ONE'", []int{1, 4}},
		{"line-starts:'Introduction'", []int{1}},
		{"line-starts:'Chapter'", []int{1, 5}},
		{"line-starts/i:'methods'", []int{5}},
		{"regex:'Chapter (One|Two)'", []int{1, 5}},
		{"regex/i:'^summary'", []int{4, 8}},
		{"type:image", []int{3}},
		{"type:empty", []int{7, 10}},
		{"type:mixed", []int{8}},
		{"type:text", []int{1, 2, 4, 5, 6, 9}},
		{"size:<300KB", []int{1, 2}},
		{"size:>=900KB", []int{9, 10}},
		{"size:=500KB", []int{5}},
		{"contains:'Chapter'+1", []int{2, 6}},
		{"contains:'Chapter'-1", []int{4}},
		{"contains:'Nowhere'", nil},
	}
	for _, tt := range tests {
		p, err := parsePattern(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		s, err := p.evaluate(context.Background(), newPageFacts(newFakeDoc()), 10)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if got := s.pages(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPatternEvaluate_UnicodeFold(t *testing.T) {
	doc := newFakeDoc()
	doc.text[2] = "Die STRASSE ist lang"
	p, err := parsePattern("contains/i:'straße'")
	if err != nil {
		t.Fatal(err)
	}
	s, err := p.evaluate(context.Background(), newPageFacts(doc), 10)
	if err != nil {
		t.Fatal(err)
	}
	if !s.has(2) {
		t.Errorf("case folding did not match ß against SS: %v", s.pages())
	}
}
