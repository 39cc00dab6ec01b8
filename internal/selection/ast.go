package selection

import (
	"fmt"
	"strings"
)

// Node is a compiled selection expression.
type Node interface {
	String() string
	node()
}

// BinaryOp is the operator of a Binary node.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
)

func (op BinaryOp) String() string {
	if op == OpAnd {
		return "&"
	}
	return "|"
}

// Binary combines two sub-expressions with & or |.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

// Not is the complement of X over the document.
type Not struct {
	X Node
}

// Pattern is a content predicate operand.
type Pattern struct {
	Spec *PatternSpec
}

// Range is an "A to B" operand.
type Range struct {
	Spec *rangeSpec
}

// Numeric is a plain page specification operand.
type Numeric struct {
	Spec *numericSpec
}

// All selects every page.
type All struct{}

func (*Binary) node()  {}
func (*Not) node()     {}
func (*Pattern) node() {}
func (*Range) node()   {}
func (*Numeric) node() {}
func (*All) node()     {}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (n *Not) String() string     { return "!" + n.X.String() }
func (p *Pattern) String() string { return p.Spec.Text }
func (r *Range) String() string   { return "[" + r.Spec.Text + "]" }
func (n *Numeric) String() string { return n.Spec.Text }
func (*All) String() string       { return "all" }

// walk visits n and every node below it, depth first.
func walk(n Node, fn func(Node)) {
	fn(n)
	switch n := n.(type) {
	case *Binary:
		walk(n.Left, fn)
		walk(n.Right, fn)
	case *Not:
		walk(n.X, fn)
	}
}

// nodeStats summarises a compiled part for classification, validation
// and descriptions.
type nodeStats struct {
	ranges   int
	boolean  bool
	content  bool
	patterns int
}

func statsOf(n Node) nodeStats {
	var st nodeStats
	walk(n, func(n Node) {
		switch n := n.(type) {
		case *Binary, *Not:
			st.boolean = true
		case *Pattern:
			st.patterns++
			st.content = true
		case *Range:
			st.ranges++
			if n.Spec.From.needsContent() || n.Spec.To.needsContent() {
				st.content = true
			}
		}
	})
	return st
}

// partKind is the top-level classification of a comma-part.
type partKind int

const (
	partNumeric partKind = iota
	partPattern
	partBoolean
	partRange
	partAll
)

func (k partKind) String() string {
	return [...]string{"numeric", "pattern", "boolean", "range", "all"}[k]
}

func kindOf(n Node) partKind {
	switch n.(type) {
	case *Numeric:
		return partNumeric
	case *Pattern:
		return partPattern
	case *Range:
		return partRange
	case *All:
		return partAll
	default:
		return partBoolean
	}
}

// describeBoolean spells operators as words so the text is filename safe.
func describeBoolean(expr string) string {
	if len(expr) > 20 {
		return "boolean-match"
	}
	r := strings.NewReplacer(" & ", "-and-", " | ", "-or-", "!", "not-")
	return sanitize(r.Replace(expr), 20)
}
