// Package redoscheck detects regular expressions that risk catastrophic
// backtracking (ReDoS).
//
// A pattern is analyzed statically, without running it. The analysis
// reports whether a backtracking matcher is guaranteed to run in time linear
// in the input length and, if not, which construct prevents it:
//   - backreferences and subexpression calls, which no finite automaton can
//     match
//   - repetitions that can split the same text into iterations in more than
//     one way, like (a+)+ or (a|ab)*b
//   - adjacent repetitions that compete for the same text, like \w+\s*\w+
//
// Patterns use the Ruby (Onigmo) dialect.
//
// Basic usage:
//
//	res := redoscheck.Analyze(`(a+)+b`, 0)
//	if res.Status == redoscheck.StatusNonLinear {
//	    fmt.Println(res.Reason, res.Detail)
//	}
//
// The analysis is conservative: Linear is a guarantee, NonLinear is a
// warning that may be a false positive. Patterns that fail to parse are
// Unanalyzable; what to do with them is left to the caller.
package redoscheck

import (
	"fmt"
	"strconv"

	"github.com/coregx/redoscheck/analysis"
	"github.com/coregx/redoscheck/syntax"
)

// Status is the outcome of analyzing one pattern.
type Status uint8

const (
	// StatusLinear means matching is guaranteed to be linear.
	StatusLinear Status = iota
	// StatusNonLinear means the pattern may backtrack super-linearly.
	StatusNonLinear
	// StatusUnanalyzable means the pattern could not be analyzed.
	StatusUnanalyzable
)

var statusNames = [...]string{
	StatusLinear:       "linear",
	StatusNonLinear:    "non_linear",
	StatusUnanalyzable: "unanalyzable",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result describes the analysis of one pattern.
type Result struct {
	Status Status

	// Reason and Detail explain a StatusNonLinear result.
	Reason analysis.Reason
	Detail string

	// Pos is the byte offset of the responsible construct in the pattern,
	// or -1 when there is none.
	Pos int
	// Text is the source of the responsible construct.
	Text string

	// Err is set for StatusUnanalyzable. It wraps one of
	// syntax.ErrMalformedPattern, syntax.ErrUnresolvedReference,
	// ErrPatternTooLong or ErrInvalidConfig.
	Err error
}

// Analyze analyzes pattern with DefaultConfig.
//
// Example:
//
//	res := redoscheck.Analyze(`foo|bar`, 0)
//	// res.Status == redoscheck.StatusLinear
func Analyze(pattern string, flags syntax.Flags) Result {
	return AnalyzeWithConfig(pattern, flags, DefaultConfig())
}

// AnalyzeWithConfig analyzes pattern with a custom configuration. An
// invalid configuration makes every pattern Unanalyzable.
func AnalyzeWithConfig(pattern string, flags syntax.Flags, config Config) Result {
	if err := config.Validate(); err != nil {
		return unanalyzable(err)
	}
	return analyze(pattern, flags, config)
}

// Checker analyzes patterns with a fixed, validated configuration.
// A Checker is safe for concurrent use.
type Checker struct {
	config Config
}

// NewChecker validates config and returns a Checker using it.
func NewChecker(config Config) (*Checker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Checker{config: config}, nil
}

// Analyze analyzes pattern.
func (c *Checker) Analyze(pattern string, flags syntax.Flags) Result {
	return analyze(pattern, flags, c.config)
}

// Config returns the checker's configuration.
func (c *Checker) Config() Config {
	return c.config
}

func analyze(pattern string, flags syntax.Flags, config Config) (res Result) {
	if len(pattern) > config.MaxPatternLen {
		return unanalyzable(fmt.Errorf("%w: %d bytes exceeds limit of %d",
			ErrPatternTooLong, len(pattern), config.MaxPatternLen))
	}

	pat, err := syntax.Parse(pattern, flags)
	if err != nil {
		return unanalyzable(err)
	}

	defer func() {
		if r := recover(); r != nil {
			res = unanalyzable(fmt.Errorf("redoscheck: internal error analyzing %q: %v", pattern, r))
		}
	}()

	v := analysis.Analyze(pat, config.extractor())
	if v.IsLinear() {
		return Result{Status: StatusLinear, Pos: -1}
	}
	res = Result{
		Status: StatusNonLinear,
		Reason: v.Reason,
		Detail: v.Detail,
		Pos:    -1,
	}
	if v.Node != nil {
		res.Pos = v.Node.Pos
		res.Text = v.Node.Text(pattern)
	}
	return res
}

func unanalyzable(err error) Result {
	return Result{Status: StatusUnanalyzable, Pos: -1, Err: err}
}
