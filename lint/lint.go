// Package lint maps analysis results of regexp literals to lint offenses.
//
// A Cop checks one literal at a time. It never analyzes interpolated
// literals, whose source is only known at run time, and it reports an
// offense covering the whole literal when the pattern is not linear:
//
//	cop := lint.New()
//	if off, ok := cop.Check(lit); ok {
//	    fmt.Println(off.Pos, off.Message)
//	}
//
// Patterns that cannot be analyzed are silently accepted unless the cop
// uses PolicyStrict.
package lint

import (
	"fmt"
	"strings"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/analysis"
	"github.com/coregx/redoscheck/syntax"
)

// Message is the offense message for non-linear patterns.
const Message = "Do not use non-linear features in regexp due to the risk of ReDoS."

// UnanalyzableMessage is the offense message for patterns that cannot be
// analyzed under PolicyStrict.
const UnanalyzableMessage = "Regexp could not be analyzed for the risk of ReDoS."

// Position locates a literal in a source file. Line and Column are 1-based;
// Column counts bytes.
type Position struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Literal is one regexp literal found in source code.
type Literal struct {
	// Source is the pattern between the delimiters.
	Source string
	Flags  syntax.Flags
	// Interpolated is set when the literal embeds #{...}; Source is then
	// incomplete and must not be analyzed.
	Interpolated bool
	Pos          Position
	// Len is the byte length of the whole literal, delimiters and flags
	// included.
	Len int
}

// Policy decides what happens to literals that cannot be analyzed.
type Policy uint8

const (
	// PolicyPassThrough accepts unanalyzable literals.
	PolicyPassThrough Policy = iota
	// PolicyStrict reports unanalyzable literals as offenses.
	PolicyStrict
)

func (p Policy) String() string {
	switch p {
	case PolicyPassThrough:
		return "pass-through"
	case PolicyStrict:
		return "strict"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy converts "pass-through" or "strict" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pass-through", "passthrough":
		return PolicyPassThrough, nil
	case "strict":
		return PolicyStrict, nil
	}
	return 0, fmt.Errorf("lint: unknown policy %q", s)
}

// Offense is a literal reported by a Cop.
type Offense struct {
	Pos     Position          `json:"position"`
	Len     int               `json:"length"`
	Message string            `json:"message"`
	Source  string            `json:"source"`
	Flags   string            `json:"flags,omitempty"`
	Status  redoscheck.Status `json:"status"`
	Reason  string            `json:"reason,omitempty"`
	Detail  string            `json:"detail,omitempty"`
	// Construct is the part of Source responsible for a non-linear verdict.
	Construct string `json:"construct,omitempty"`
}

func (o Offense) String() string {
	s := o.Pos.String() + ": " + o.Message
	if o.Detail != "" {
		s += " (" + o.Detail + ")"
	}
	return s
}

func newOffense(lit Literal, res redoscheck.Result) Offense {
	off := Offense{
		Pos:       lit.Pos,
		Len:       lit.Len,
		Message:   Message,
		Source:    lit.Source,
		Flags:     lit.Flags.String(),
		Status:    res.Status,
		Detail:    res.Detail,
		Construct: res.Text,
	}
	switch res.Status {
	case redoscheck.StatusNonLinear:
		off.Reason = res.Reason.String()
	case redoscheck.StatusUnanalyzable:
		off.Message = UnanalyzableMessage
		if res.Err != nil {
			off.Detail = res.Err.Error()
		}
	}
	return off
}

// Analyzer analyzes one pattern. redoscheck.Checker implements it.
type Analyzer interface {
	Analyze(pattern string, flags syntax.Flags) redoscheck.Result
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(pattern string, flags syntax.Flags) redoscheck.Result

// Analyze calls f.
func (f AnalyzerFunc) Analyze(pattern string, flags syntax.Flags) redoscheck.Result {
	return f(pattern, flags)
}

// reasonOf returns the reason of a non-linear result for logging.
func reasonOf(res redoscheck.Result) analysis.Reason {
	if res.Status != redoscheck.StatusNonLinear {
		return analysis.ReasonNone
	}
	return res.Reason
}
