// Package analysis decides statically whether a parsed pattern can be
// matched in time linear in the input length.
//
// The decision is made in three passes over the pattern tree:
//
//  1. Classify tags constructs that a finite automaton cannot match
//     (backreferences, subexpression calls, absent operators, conditionals)
//     as NonLinear, plain leaves as Linear, and defers everything else.
//  2. Resolve summarizes each node bottom-up and tags deferred repetitions
//     and concatenations that can backtrack super-linearly.
//  3. Aggregate picks the first NonLinear tag in leftmost-innermost order,
//     preferring classifier reasons over AmbiguousRepetition.
//
// The analysis is conservative: a pattern is Linear only if no rule finds a
// possible source of super-linear backtracking. It is pure and does not
// modify the pattern, so patterns may be analyzed concurrently.
package analysis

import (
	"github.com/coregx/redoscheck/literal"
	"github.com/coregx/redoscheck/syntax"
)

// HeuristicVersion identifies the rule set used by Resolve. It changes
// whenever a pattern could receive a different verdict, so cached verdicts
// can be invalidated.
const HeuristicVersion = "1.1.0"

// Analyze runs all passes over pat. config bounds the finite-language
// enumeration used to prove repetitions unambiguous.
//
// Example:
//
//	pat := syntax.MustParse(`(a+)+b`, 0)
//	v := analysis.Analyze(pat, literal.DefaultConfig())
//	// v.Reason == analysis.AmbiguousRepetition
func Analyze(pat *syntax.Pattern, config literal.ExtractorConfig) Verdict {
	tags := Classify(pat)
	Resolve(pat, tags, config)
	return Aggregate(pat.Root, tags)
}
