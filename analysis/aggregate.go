package analysis

import "github.com/coregx/redoscheck/syntax"

// Aggregate combines the resolved tags of the tree rooted at root into one
// verdict.
//
// Reasons found by the classifier (Backreference, SubexpressionCall,
// AbsentOperator, Conditional) take precedence over AmbiguousRepetition,
// which the backtrack-risk analyzer derives. Within each class nodes are
// visited leftmost-innermost (children first, left to right) and the first
// NonLinear tag wins, so the verdict does not depend on map iteration or
// evaluation order.
func Aggregate(root *syntax.Node, tags Tags) Verdict {
	var structural, derived *Tag
	syntax.PostOrder(root, func(n *syntax.Node) {
		if structural != nil {
			return
		}
		t, ok := tags[n]
		if !ok || t.Kind != NonLinear {
			return
		}
		switch {
		case t.Reason.Structural():
			structural = &t
		case derived == nil:
			derived = &t
		}
	})
	t := structural
	if t == nil {
		t = derived
	}
	if t == nil {
		return Verdict{}
	}
	return Verdict{Reason: t.Reason, Node: t.Origin, Detail: t.Detail}
}
