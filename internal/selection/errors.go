package selection

import (
	"errors"
	"fmt"
)

// SyntaxError reports a malformed expression: unmatched quotes or
// parentheses, a missing boolean operand, an unparsable pattern value.
type SyntaxError struct {
	Spec string // offending sub-expression
	Pos  int    // byte offset inside Spec, -1 when unknown
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("syntax error in %q at %d: %s", e.Spec, e.Pos, e.Msg)
	}
	return fmt.Sprintf("syntax error in %q: %s", e.Spec, e.Msg)
}

// SemanticError reports a well-formed expression that cannot be satisfied:
// start > end, an explicit page outside the document, an anchor with no
// match, an empty result.
type SemanticError struct {
	Spec string
	Msg  string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Spec, e.Msg)
}

func syntaxErr(spec string, pos int, format string, args ...any) error {
	return &SyntaxError{Spec: spec, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func semanticErr(spec string, format string, args ...any) error {
	return &SemanticError{Spec: spec, Msg: fmt.Sprintf(format, args...)}
}

// IsSyntax reports whether err is (or wraps) a *SyntaxError.
func IsSyntax(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsSemantic reports whether err is (or wraps) a *SemanticError.
func IsSemantic(err error) bool {
	var se *SemanticError
	return errors.As(err, &se)
}

// IsSelectionError reports whether err belongs to the engine's own taxonomy,
// as opposed to an error returned by the content provider.
func IsSelectionError(err error) bool {
	return IsSyntax(err) || IsSemantic(err)
}
