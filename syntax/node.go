package syntax

import (
	"strconv"

	"github.com/coregx/redoscheck/charset"
)

// Op is the kind of a pattern node.
type Op uint8

const (
	OpEmpty       Op = iota + 1 // matches the empty string
	OpLiteral                   // matches Runes in sequence
	OpCharClass                 // matches one rune from Class
	OpConcat                    // matches Sub in sequence
	OpAlternate                 // matches one of Sub
	OpQuantifier                // matches Sub[0] repeated Min..Max times
	OpGroup                     // groups Sub[0]; see Group for the kind
	OpBackref                   // matches the text captured by Ref
	OpCall                      // invokes the pattern of group Ref
	OpAnchor                    // zero-width assertion; see Anchor
	OpLookaround                // zero-width assertion on Sub[0]
	OpConditional               // Sub[0] if group Ref matched, else Sub[1]
)

var opNames = [...]string{
	OpEmpty:       "Empty",
	OpLiteral:     "Literal",
	OpCharClass:   "CharClass",
	OpConcat:      "Concat",
	OpAlternate:   "Alternate",
	OpQuantifier:  "Quantifier",
	OpGroup:       "Group",
	OpBackref:     "Backref",
	OpCall:        "Call",
	OpAnchor:      "Anchor",
	OpLookaround:  "Lookaround",
	OpConditional: "Conditional",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "Op(" + strconv.Itoa(int(op)) + ")"
}

// GroupKind distinguishes the group constructs.
type GroupKind uint8

const (
	GroupCapture    GroupKind = iota + 1 // (...) or (?<name>...)
	GroupNonCapture                      // (?:...) and option groups
	GroupAtomic                          // (?>...)
	GroupAbsent                          // (?~...)
)

// Greediness is the matching mode of a quantifier.
type Greediness uint8

const (
	Greedy Greediness = iota
	Lazy
	Possessive
)

// Anchor is the kind of a zero-width assertion.
type Anchor uint8

const (
	AnchorBeginLine     Anchor = iota + 1 // ^
	AnchorEndLine                         // $
	AnchorBeginText                       // \A
	AnchorEndText                         // \z
	AnchorEndTextOptNL                    // \Z
	AnchorWordBoundary                    // \b
	AnchorNotWordBound                    // \B
	AnchorSearchStart                     // \G
	AnchorKeep                            // \K
)

// Ref identifies the group targeted by a backreference, call or conditional.
type Ref struct {
	// Name is the group name for named references.
	Name string
	// Index is the resolved absolute group number. Calls may use 0 for the
	// whole pattern.
	Index int
	// Level is the recursion level of \k<name+level>; valid when HasLevel.
	Level    int
	HasLevel bool

	num      int  // written group number, or relative offset
	relative bool // num is relative to the reference position
}

// Node is one construct of a parsed pattern. Which fields are meaningful
// depends on Op.
type Node struct {
	Op Op
	// Pos and End delimit the node's source text in bytes.
	Pos, End int
	// Flags in effect where the node appeared.
	Flags Flags
	Sub   []*Node

	Runes []rune      // OpLiteral
	Class charset.Set // OpCharClass; case folding already applied
	Folds charset.Set // OpCharClass: members that also match their multi-rune folding

	Min, Max int // OpQuantifier; Max is -1 when unbounded
	Mode     Greediness

	Group GroupKind // OpGroup
	Name  string    // OpGroup: capture name, if any
	Index int       // OpGroup: capture number for GroupCapture

	Ref *Ref // OpBackref, OpCall, OpConditional

	Anchor Anchor // OpAnchor

	Behind   bool // OpLookaround
	Negative bool // OpLookaround
}

// Capturing reports whether n is a capturing group.
func (n *Node) Capturing() bool {
	return n.Op == OpGroup && n.Group == GroupCapture
}

// Unbounded reports whether n is a quantifier without an upper bound.
func (n *Node) Unbounded() bool {
	return n.Op == OpQuantifier && n.Max < 0
}

// Text returns the source text of n within pattern source src.
func (n *Node) Text(src string) string {
	if n.Pos < 0 || n.End > len(src) || n.Pos > n.End {
		return ""
	}
	return src[n.Pos:n.End]
}

// RuneSet returns the set of runes matched at position i of a literal,
// with simple case folding applied when the literal is case-insensitive.
// Multi-rune foldings are not included; see MultiFold.
func (n *Node) RuneSet(i int) charset.Set {
	r := n.Runes[i]
	if n.Flags&IgnoreCase != 0 {
		return charset.FoldRune(r)
	}
	return charset.Of(r)
}

// MultiFold reports whether n is a case-insensitive literal or class that
// can match text through a multi-rune case folding, as /ß/i matches "ss"
// and /ss/i matches "ß". Such nodes do not match one rune per position.
func (n *Node) MultiFold() bool {
	if n.Flags&IgnoreCase == 0 {
		return false
	}
	switch n.Op {
	case OpLiteral:
		return charset.SpellsMultiFold(n.Runes)
	case OpCharClass:
		return !n.Folds.IsEmpty()
	}
	return false
}

// FoldRelated returns the runes that text matched by a MultiFold node may
// contain beyond those given by RuneSet or Class.
func (n *Node) FoldRelated() charset.Set {
	if !n.MultiFold() {
		return charset.Empty()
	}
	if n.Op == OpCharClass {
		return charset.MultiFoldRelated(n.Folds.Runes(n.Folds.Len()))
	}
	return charset.MultiFoldRelated(n.Runes)
}

// Walk calls fn for n and its descendants in pre-order. Children are not
// visited when fn returns false.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, sub := range n.Sub {
		Walk(sub, fn)
	}
}

// PostOrder calls fn for n and its descendants, children first, left to
// right. This is the canonical leftmost-innermost order.
func PostOrder(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	for _, sub := range n.Sub {
		PostOrder(sub, fn)
	}
	fn(n)
}
