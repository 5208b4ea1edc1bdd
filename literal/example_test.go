package literal_test

import (
	"fmt"

	"github.com/coregx/redoscheck/literal"
	"github.com/coregx/redoscheck/syntax"
)

// Example demonstrates basic usage of literal sequences
func Example() {
	// A sequence for an alternation like /foo|bar|baz/
	seq := literal.NewSeq(
		literal.NewLiteral([]byte("foo")),
		literal.NewLiteral([]byte("bar")),
		literal.NewLiteral([]byte("baz")),
	)

	fmt.Printf("Sequence has %d literals\n", seq.Len())
	fmt.Printf("First literal: %s\n", seq.Get(0).Bytes)

	// Output:
	// Sequence has 3 literals
	// First literal: foo
}

// ExampleExtractor_Language enumerates the language of a small pattern
func ExampleExtractor_Language() {
	pat := syntax.MustParse("(?:ab|a)[cd]", 0)
	seq, ok := literal.New(literal.DefaultConfig()).Language(pat.Root)

	fmt.Println("finite:", ok)
	for i := 0; i < seq.Len(); i++ {
		fmt.Println(string(seq.Get(i).Bytes))
	}

	// Output:
	// finite: true
	// abc
	// abd
	// ac
	// ad
}

// ExamplePrefixFree shows why (?:ab|cd)+ is unambiguous and (?:a|ab)+ is not
func ExamplePrefixFree() {
	code := literal.NewSeq(
		literal.NewLiteral([]byte("ab")),
		literal.NewLiteral([]byte("cd")),
	)
	notCode := literal.NewSeq(
		literal.NewLiteral([]byte("a")),
		literal.NewLiteral([]byte("ab")),
	)

	ok, _ := literal.PrefixFree(code)
	fmt.Println("ab|cd:", ok)
	ok, _ = literal.PrefixFree(notCode)
	fmt.Println("a|ab:", ok)

	// Output:
	// ab|cd: true
	// a|ab: false
}
