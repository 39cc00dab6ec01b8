package selection

import (
	"fmt"
	"strings"
)

// TokenKind identifies the lexical class of a token in a boolean expression.
type TokenKind int

const (
	TokOperand TokenKind = iota
	TokAnd
	TokOr
	TokNot
	TokLParen
	TokRParen
)

func (k TokenKind) String() string {
	switch k {
	case TokOperand:
		return "operand"
	case TokAnd:
		return "&"
	case TokOr:
		return "|"
	case TokNot:
		return "!"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	default:
		return "unknown"
	}
}

// Token is one lexical unit. Pos is the byte offset of the token in the
// tokenized string.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

func (t Token) String() string {
	if t.Kind == TokOperand {
		return fmt.Sprintf("operand(%q)@%d", t.Text, t.Pos)
	}
	return fmt.Sprintf("%s@%d", t.Kind, t.Pos)
}

// Tokenize splits one comma-part into operands, operators and parentheses.
//
// Quoted text is copied verbatim, so operators, "to" and parentheses inside
// quotes are never special. Outside quotes every parenthesis is its own
// token. " & " and " | " are operators only with a single space on each
// side; " &!" is an AND followed by a NOT; '!' is a NOT when it begins an
// operand. A backslash keeps the following byte literally. Tokenize never
// fails: malformed input yields operands that the parser rejects.
func Tokenize(s string) []Token {
	var (
		toks  []Token
		buf   strings.Builder
		start = -1
		quote byte
	)
	flush := func() {
		if text := strings.TrimSpace(buf.String()); text != "" {
			toks = append(toks, Token{Kind: TokOperand, Text: text, Pos: start})
		}
		buf.Reset()
		start = -1
	}
	add := func(pos int, chunk string) {
		if start < 0 {
			start = pos
		}
		buf.WriteString(chunk)
	}
	emit := func(kind TokenKind, pos int) {
		flush()
		toks = append(toks, Token{Kind: kind, Text: kind.String(), Pos: pos})
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			add(i, s[i:i+2])
			i++
			continue
		}
		if quote != 0 {
			add(i, s[i:i+1])
			if c == quote {
				quote = 0
			}
			continue
		}
		rest := s[i:]
		switch {
		case c == '\'' || c == '"':
			quote = c
			add(i, s[i:i+1])
		case c == '(':
			emit(TokLParen, i)
		case c == ')':
			emit(TokRParen, i)
		case strings.HasPrefix(rest, " &!"):
			emit(TokAnd, i+1)
			emit(TokNot, i+2)
			i += 2
		case strings.HasPrefix(rest, " & "):
			// the trailing blank may lead the next operator
			emit(TokAnd, i+1)
			i++
		case strings.HasPrefix(rest, " | "):
			emit(TokOr, i+1)
			i++
		case c == '!' && strings.TrimSpace(buf.String()) == "":
			emit(TokNot, i)
		case (c == ' ' || c == '\t') && start < 0:
			// leading blanks
		default:
			add(i, s[i:i+1])
		}
	}
	flush()
	return toks
}

// checkQuotes returns a SyntaxError when s ends inside a quoted literal.
func checkQuotes(s string) error {
	var quote byte
	open := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			i++
			continue
		}
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
			open = i
		}
	}
	if quote != 0 {
		return syntaxErr(s, open, "unmatched quote %c", quote)
	}
	return nil
}

// SplitParts returns the comma parts of a selection expression the way
// Parse sees them: enclosing quotes stripped, parts trimmed.
func SplitParts(expr string) []string {
	parts := splitTopLevel(stripOuterQuotes(strings.TrimSpace(expr)), ',')
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// splitTopLevel splits s on sep where sep is outside quotes and outside
// parentheses. Parenthesis depth never drops below zero here; balance is
// checked by the parser.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		quote byte
		depth int
		last  int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			i++
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

// unquotedIndexes returns the offsets of every case-insensitive occurrence
// of needle in s that lies outside quotes.
func unquotedIndexes(s, needle string) []int {
	var (
		out   []int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			i++
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		if len(s)-i >= len(needle) && strings.EqualFold(s[i:i+len(needle)], needle) {
			out = append(out, i)
			i += len(needle) - 1
		}
	}
	return out
}
