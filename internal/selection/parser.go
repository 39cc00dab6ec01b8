package selection

import (
	"strings"
)

// parser is a recursive-descent parser over the tokens of one comma-part:
//
//	expr    := and ( '|' and )*
//	and     := unary ( '&' unary )*
//	unary   := '!' unary | primary
//	primary := '(' expr ')' | operand
type parser struct {
	src     string
	toks    []Token
	pos     int
	total   int
	reverse ReverseRangeMode
}

// parseExpr compiles one comma-part into an AST. All static checks run
// here: operand syntax, numeric bounds and range pattern count.
func parseExpr(src string, total int, reverse ReverseRangeMode) (Node, error) {
	p := &parser{src: src, toks: Tokenize(src), total: total, reverse: reverse}
	if len(p.toks) == 0 {
		return nil, syntaxErr(src, -1, "could not resolve expression")
	}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok {
		if t.Kind == TokRParen {
			return nil, syntaxErr(src, t.Pos, "mismatched parentheses")
		}
		return nil, syntaxErr(src, t.Pos, "could not resolve expression")
	}
	if st := statsOf(n); st.ranges > 1 {
		return nil, semanticErr(src, "only one range pattern allowed")
	}
	return n, nil
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) expr() (Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Kind != TokOr {
			return left, nil
		}
		p.pos++
		right, err := p.operandFor(t, p.and)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpOr, Left: left, Right: right}
	}
}

func (p *parser) and() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Kind != TokAnd {
			return left, nil
		}
		p.pos++
		right, err := p.operandFor(t, p.unary)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpAnd, Left: left, Right: right}
	}
}

// operandFor parses the right-hand side of op, reporting a missing operand
// against the operator rather than the token that follows it.
func (p *parser) operandFor(op Token, next func() (Node, error)) (Node, error) {
	t, ok := p.peek()
	if !ok || t.Kind == TokAnd || t.Kind == TokOr || t.Kind == TokRParen {
		return nil, syntaxErr(p.src, op.Pos, "missing operand for '%s'", op.Kind)
	}
	return next()
}

func (p *parser) unary() (Node, error) {
	t, ok := p.peek()
	if ok && t.Kind == TokNot {
		p.pos++
		n, ok := p.peek()
		if !ok || n.Kind == TokAnd || n.Kind == TokOr || n.Kind == TokRParen {
			return nil, syntaxErr(p.src, t.Pos, "missing operand after '!'")
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, syntaxErr(p.src, -1, "could not resolve expression")
	}
	switch t.Kind {
	case TokLParen:
		p.pos++
		if n, ok := p.peek(); ok && n.Kind == TokRParen {
			return nil, syntaxErr(p.src, n.Pos, "empty parentheses")
		}
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		c, ok := p.peek()
		if !ok || c.Kind != TokRParen {
			return nil, syntaxErr(p.src, t.Pos, "mismatched parentheses")
		}
		p.pos++
		return x, nil
	case TokRParen:
		return nil, syntaxErr(p.src, t.Pos, "mismatched parentheses")
	case TokAnd, TokOr:
		return nil, syntaxErr(p.src, t.Pos, "missing operand for '%s'", t.Kind)
	case TokOperand:
		p.pos++
		return classifyOperand(t.Text, p.total, p.reverse)
	}
	return nil, syntaxErr(p.src, t.Pos, "could not resolve expression")
}

// classifyOperand is the single dispatch table for operand text. Order
// matters: an unquoted " to " makes a range even when both sides are
// patterns, and patterns are tried before numeric specs.
func classifyOperand(text string, total int, reverse ReverseRangeMode) (Node, error) {
	switch {
	case looksLikeRange(text):
		r, err := parseRange(text, total, reverse)
		if err != nil {
			return nil, err
		}
		return &Range{Spec: r}, nil
	case strings.EqualFold(text, "all"):
		return &All{}, nil
	case looksLikePattern(text):
		ps, err := parsePattern(text)
		if err != nil {
			return nil, err
		}
		return &Pattern{Spec: ps}, nil
	case looksNumeric(text):
		ns, err := parseNumeric(text)
		if err != nil {
			return nil, err
		}
		if _, err := ns.resolve(total, reverse); err != nil {
			return nil, err
		}
		return &Numeric{Spec: ns}, nil
	}
	if hasUnspacedOperator(text) {
		return nil, syntaxErr(text, -1, "invalid page specification (boolean operators need a space on each side)")
	}
	return nil, syntaxErr(text, -1, "invalid page specification")
}

func hasUnspacedOperator(s string) bool {
	for _, op := range []string{"&", "|", "!"} {
		if len(unquotedIndexes(s, op)) > 0 {
			return true
		}
	}
	return false
}
