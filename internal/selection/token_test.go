package selection

import (
	"reflect"
	"testing"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func operands(toks []Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == TokOperand {
			out = append(out, t.Text)
		}
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in       string
		kinds    []TokenKind
		operands []string
	}{
		{
			in:       "contains:'a & b' & type:text",
			kinds:    []TokenKind{TokOperand, TokAnd, TokOperand},
			operands: []string{"contains:'a & b'", "type:text"},
		},
		{
			in:       "(1-3 | 5) &!type:empty",
			kinds:    []TokenKind{TokLParen, TokOperand, TokOr, TokOperand, TokRParen, TokAnd, TokNot, TokOperand},
			operands: []string{"1-3", "5", "type:empty"},
		},
		{
			in:       "!!5",
			kinds:    []TokenKind{TokNot, TokNot, TokOperand},
			operands: []string{"5"},
		},
		{
			in:       "a&b",
			kinds:    []TokenKind{TokOperand},
			operands: []string{"a&b"},
		},
		{
			in:       `contains:"(x) | y"`,
			kinds:    []TokenKind{TokOperand},
			operands: []string{`contains:"(x) | y"`},
		},
		{
			in:       "contains:(x)",
			kinds:    []TokenKind{TokOperand, TokLParen, TokOperand, TokRParen},
			operands: []string{"contains:", "x"},
		},
		{
			in:       `contains:a\(b`,
			kinds:    []TokenKind{TokOperand},
			operands: []string{`contains:a\(b`},
		},
		{
			in:       "contains:'go to the store' | first 3",
			kinds:    []TokenKind{TokOperand, TokOr, TokOperand},
			operands: []string{"contains:'go to the store'", "first 3"},
		},
		{
			in:       "  5  ",
			kinds:    []TokenKind{TokOperand},
			operands: []string{"5"},
		},
		{
			in:       "contains:'it\\'s' & 1",
			kinds:    []TokenKind{TokOperand, TokAnd, TokOperand},
			operands: []string{"contains:'it\\'s'", "1"},
		},
	}
	for _, tt := range tests {
		toks := Tokenize(tt.in)
		if got := kinds(toks); !reflect.DeepEqual(got, tt.kinds) {
			t.Errorf("%q: kinds %v, want %v", tt.in, got, tt.kinds)
			continue
		}
		if got := operands(toks); !reflect.DeepEqual(got, tt.operands) {
			t.Errorf("%q: operands %q, want %q", tt.in, got, tt.operands)
		}
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks := Tokenize("(1 | 2)")
	want := []int{0, 1, 3, 5, 6}
	for i, tok := range toks {
		if tok.Pos != want[i] {
			t.Errorf("token %v: pos %d, want %d", tok, tok.Pos, want[i])
		}
	}
}

func TestTokenize_Empty(t *testing.T) {
	if toks := Tokenize("   "); len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v", toks)
	}
}

func TestCheckQuotes(t *testing.T) {
	for _, ok := range []string{"", "1-3", "contains:'x'", `contains:"it's"`, `contains:'a\'b'`} {
		if err := checkQuotes(ok); err != nil {
			t.Errorf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"contains:'x", `"abc`, `contains:'a\'`} {
		if err := checkQuotes(bad); !IsSyntax(err) {
			t.Errorf("%q: expected SyntaxError, got %v", bad, err)
		}
	}
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"1,2,3", []string{"1", "2", "3"}},
		{"contains:'a,b',5", []string{"contains:'a,b'", "5"}},
		{"(1 | 2,3) & 4,5", []string{"(1 | 2,3) & 4", "5"}},
		{"1", []string{"1"}},
		{"1,", []string{"1", ""}},
	}
	for _, tt := range tests {
		if got := splitTopLevel(tt.in, ','); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnquotedIndexes(t *testing.T) {
	if got := unquotedIndexes("contains:'a to b' To 5", " to "); !reflect.DeepEqual(got, []int{17}) {
		t.Errorf("got %v", got)
	}
	if got := unquotedIndexes("contains:'go to the store'", " to "); len(got) != 0 {
		t.Errorf("quoted separator detected: %v", got)
	}
}
