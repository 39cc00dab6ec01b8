package selection

import (
	"context"
	"fmt"
)

// evaluator computes page sets for compiled nodes against one document.
type evaluator struct {
	ctx     context.Context
	facts   *pageFacts
	total   int
	reverse ReverseRangeMode
}

func (e *evaluator) eval(n Node) (pageSet, error) {
	switch n := n.(type) {
	case *All:
		return fullPageSet(e.total), nil
	case *Numeric:
		pages, err := n.Spec.resolve(e.total, e.reverse)
		if err != nil {
			return pageSet{}, err
		}
		return pageSetOf(e.total, pages...), nil
	case *Pattern:
		return n.Spec.evaluate(e.ctx, e.facts, e.total)
	case *Range:
		pages, err := n.Spec.resolve(e.ctx, e.facts, e.total, e.reverse)
		if err != nil {
			return pageSet{}, err
		}
		return pageSetOf(e.total, pages...), nil
	case *Not:
		x, err := e.eval(n.X)
		if err != nil {
			return pageSet{}, err
		}
		return x.complement(), nil
	case *Binary:
		l, err := e.eval(n.Left)
		if err != nil {
			return pageSet{}, err
		}
		r, err := e.eval(n.Right)
		if err != nil {
			return pageSet{}, err
		}
		if n.Op == OpAnd {
			return l.intersect(r), nil
		}
		return l.union(r), nil
	}
	return pageSet{}, fmt.Errorf("selection: unknown node %T", n)
}

// ordered evaluates n and returns its pages in produced order: numeric
// specs keep their own order (descending ranges included), ranges are
// ascending, everything else is the ascending set.
func (e *evaluator) ordered(n Node) ([]int, error) {
	switch n := n.(type) {
	case *Numeric:
		return n.Spec.resolve(e.total, e.reverse)
	case *Range:
		return n.Spec.resolve(e.ctx, e.facts, e.total, e.reverse)
	}
	s, err := e.eval(n)
	if err != nil {
		return nil, err
	}
	return s.pages(), nil
}
