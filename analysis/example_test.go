package analysis_test

import (
	"fmt"

	"github.com/coregx/redoscheck/analysis"
	"github.com/coregx/redoscheck/literal"
	"github.com/coregx/redoscheck/syntax"
)

func Example() {
	for _, src := range []string{`foo|bar`, `(a+)+b`, `("|').+\1`} {
		pat := syntax.MustParse(src, 0)
		fmt.Printf("%-10s %v\n", src, analysis.Analyze(pat, literal.DefaultConfig()))
	}
	// Output:
	// foo|bar    Linear
	// (a+)+b     NonLinear(AmbiguousRepetition: repetition can split the same text in more than one way)
	// ("|').+\1  NonLinear(Backreference: backreference to group 1)
}
