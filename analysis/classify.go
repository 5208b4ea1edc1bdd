package analysis

import "github.com/coregx/redoscheck/syntax"

// Classify assigns a provisional tag to every node of pat in one bottom-up
// pass.
//
// Constructs that no finite automaton can match are NonLinear right away:
//   - backreferences (Backreference)
//   - subexpression calls (SubexpressionCall)
//   - absent operators (AbsentOperator)
//   - conditionals (Conditional)
//
// Empty, literal, character class and anchor nodes are Linear. A lookaround
// takes the tag of its body. Any other compound node inherits the first
// NonLinear tag among its children, left to right, and is otherwise Deferred
// to the backtrack-risk analyzer.
func Classify(pat *syntax.Pattern) Tags {
	tags := make(Tags)
	var graph *callGraph
	syntax.PostOrder(pat.Root, func(n *syntax.Node) {
		if n.Op == syntax.OpCall {
			if graph == nil {
				graph = newCallGraph(pat)
			}
			tags[n] = nonLinear(SubexpressionCall, n, graph.detail(n))
			return
		}
		tags[n] = classify(pat, n, tags)
	})
	return tags
}

func classify(pat *syntax.Pattern, n *syntax.Node, tags Tags) Tag {
	switch n.Op {
	case syntax.OpEmpty, syntax.OpLiteral, syntax.OpCharClass, syntax.OpAnchor:
		return linear()
	case syntax.OpBackref:
		return nonLinear(Backreference, n, "backreference to group "+refLabel(pat, n.Ref))
	case syntax.OpConditional:
		return nonLinear(Conditional, n, "conditional on group "+refLabel(pat, n.Ref))
	case syntax.OpLookaround:
		return tags[n.Sub[0]]
	case syntax.OpGroup:
		if n.Group == syntax.GroupAbsent {
			return nonLinear(AbsentOperator, n, "absent operator")
		}
	}
	for _, sub := range n.Sub {
		if t := tags[sub]; t.Kind == NonLinear {
			return t
		}
	}
	return Tag{Kind: Deferred}
}

func refLabel(pat *syntax.Pattern, ref *syntax.Ref) string {
	if ref.Name != "" {
		return ref.Name
	}
	return groupLabel(pat, ref.Index)
}
