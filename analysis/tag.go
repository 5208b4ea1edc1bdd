package analysis

import (
	"strconv"

	"github.com/coregx/redoscheck/syntax"
)

// Kind is the complexity class assigned to a node.
type Kind uint8

const (
	// Linear means the node can be matched by a linear-time automaton.
	Linear Kind = iota
	// NonLinear means the node needs backtracking or extra memory.
	NonLinear
	// Deferred means the classifier could not decide; the backtrack-risk
	// analyzer resolves the node to Linear or NonLinear.
	Deferred
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "Linear"
	case NonLinear:
		return "NonLinear"
	case Deferred:
		return "Deferred"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Reason explains why a node is non-linear. The zero value means none.
type Reason uint8

const (
	ReasonNone          Reason = iota
	Backreference              // \1, \k<name>
	SubexpressionCall          // \g<name>
	AmbiguousRepetition        // repetition that can split its input several ways
	AbsentOperator             // (?~...)
	Conditional                // (?(cond)yes|no)
)

var reasonNames = [...]string{
	ReasonNone:          "None",
	Backreference:       "Backreference",
	SubexpressionCall:   "SubexpressionCall",
	AmbiguousRepetition: "AmbiguousRepetition",
	AbsentOperator:      "AbsentOperator",
	Conditional:         "Conditional",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "Reason(" + strconv.Itoa(int(r)) + ")"
}

// Structural reports whether r comes from a construct that no finite
// automaton can match, rather than from how a repetition backtracks.
func (r Reason) Structural() bool {
	switch r {
	case Backreference, SubexpressionCall, AbsentOperator, Conditional:
		return true
	}
	return false
}

// Tag is the classification of one node. For NonLinear tags, Origin is the
// node that introduced the reason and Detail describes it; a parent that
// inherits a child's tag keeps the child's origin.
type Tag struct {
	Kind   Kind
	Reason Reason
	Origin *syntax.Node
	Detail string
}

// Tags maps every node of a pattern to its tag.
type Tags map[*syntax.Node]Tag

func linear() Tag {
	return Tag{Kind: Linear}
}

func nonLinear(reason Reason, origin *syntax.Node, detail string) Tag {
	return Tag{Kind: NonLinear, Reason: reason, Origin: origin, Detail: detail}
}

// Verdict is the result of analyzing a whole pattern.
type Verdict struct {
	// Reason is ReasonNone for linear patterns.
	Reason Reason
	// Node is the construct responsible for a non-linear verdict.
	Node *syntax.Node
	// Detail is a short human readable explanation.
	Detail string
}

// IsLinear reports whether the pattern is linear.
func (v Verdict) IsLinear() bool {
	return v.Reason == ReasonNone
}

func (v Verdict) String() string {
	if v.IsLinear() {
		return "Linear"
	}
	if v.Detail == "" {
		return "NonLinear(" + v.Reason.String() + ")"
	}
	return "NonLinear(" + v.Reason.String() + ": " + v.Detail + ")"
}
