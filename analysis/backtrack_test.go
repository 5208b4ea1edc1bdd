package analysis

import (
	"testing"

	"github.com/coregx/redoscheck/charset"
	"github.com/coregx/redoscheck/literal"
	"github.com/coregx/redoscheck/syntax"
)

func summarize(t *testing.T, pattern string) *summary {
	t.Helper()
	pat := syntax.MustParse(pattern, 0)
	a := &analyzer{
		lits: literal.New(literal.DefaultConfig()),
		sums: make(map[*syntax.Node]*summary),
		tags: Classify(pat),
	}
	syntax.PostOrder(pat.Root, a.visit)
	return a.sums[pat.Root]
}

// TestSummaryLengths tests the length bounds
func TestSummaryLengths(t *testing.T) {
	tests := []struct {
		pattern  string
		nullable bool
		min, max int
	}{
		{"abc", false, 3, 3},
		{"a|bc", false, 1, 2},
		{"a?", true, 0, 1},
		{"(?:ab){2,3}", false, 4, 6},
		{"a+", false, 1, -1},
		{"^$", true, 0, 0},
		{"a{0}", true, 0, 0},
		{"(?=x)y", false, 1, 1},
		{`(a)\1`, false, 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s := summarize(t, tt.pattern)
			if s.nullable != tt.nullable || s.minLen != tt.min || s.maxLen != tt.max {
				t.Errorf("got nullable=%v len=[%d,%d], want nullable=%v len=[%d,%d]",
					s.nullable, s.minLen, s.maxLen, tt.nullable, tt.min, tt.max)
			}
		})
	}
}

// TestSummarySets tests first, last, head and tail
func TestSummarySets(t *testing.T) {
	s := summarize(t, "ab?c")
	check := func(name string, got charset.Set, want string) {
		t.Helper()
		if !got.Equal(charset.Of([]rune(want)...)) {
			t.Errorf("%s = %v, want %q", name, got, want)
		}
	}
	check("first", s.first, "a")
	check("last", s.last, "c")
	check("head", s.head, "ab")
	check("tail", s.tail, "bc")
	check("chars", s.chars, "abc")
}

// TestSummaryAmbiguity tests the ambiguity flag
func TestSummaryAmbiguity(t *testing.T) {
	tests := []struct {
		pattern   string
		ambiguous bool
	}{
		{"a|b", false},
		{"a|a", true},
		{"(?:a|ab)(?:c|bc)", true},
		{"(?:a|ab)c", false},
		{"a*a", false},
		{"a*a*", true},
		{"a?b?", false},
		{"(?:a?)?", true},
		{"(?>a|a)", false},
		{`[a-z]+\d+`, false},
		{"x+x?", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := summarize(t, tt.pattern).ambiguous; got != tt.ambiguous {
				t.Errorf("ambiguous = %v, want %v", got, tt.ambiguous)
			}
		})
	}
}

// TestLoopTracking tests which repetitions can start or end a match
func TestLoopTracking(t *testing.T) {
	tests := []struct {
		pattern    string
		head, tail int
	}{
		{"a*", 1, 1},
		{"a*b", 1, 0},
		{"ba*", 0, 1},
		{"a*b?c*", 2, 2},
		{"(?>a*)", 1, 0},
		{"a*+", 1, 0},
		{"(?:a*|b+)", 2, 2},
		{"a{2,5}", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s := summarize(t, tt.pattern)
			if len(s.loopHead.loops) != tt.head || len(s.loopTail.loops) != tt.tail {
				t.Errorf("loops head=%d tail=%d, want head=%d tail=%d",
					len(s.loopHead.loops), len(s.loopTail.loops), tt.head, tt.tail)
			}
		})
	}
}

// TestLoopSpill tests that loops past the limit are kept as characters
func TestLoopSpill(t *testing.T) {
	pattern := ""
	for r := 'a'; r < 'a'+maxLoops+2; r++ {
		pattern += "(?:" + string(r) + "*|"
	}
	pattern += "x"
	for r := 'a'; r < 'a'+maxLoops+2; r++ {
		pattern += ")"
	}
	s := summarize(t, pattern)
	if len(s.loopHead.loops) != maxLoops {
		t.Fatalf("tracked %d loops, want %d", len(s.loopHead.loops), maxLoops)
	}
	if s.loopHead.spill.IsEmpty() {
		t.Error("spill should hold the characters of the extra loops")
	}
}

// TestFits tests the restricted-alphabet check used between repetitions
func TestFits(t *testing.T) {
	tests := []struct {
		pattern  string
		sub      int // index of the node under the root, or -1 for the root
		alphabet string
		possible bool
		nonEmpty bool
	}{
		{"abc", -1, "abc", true, true},
		{"abc", -1, "ab", false, false},
		{"a|x", -1, "a", true, true},
		{"x?", -1, "a", true, false},
		{"x+", -1, "a", false, false},
		{"^", -1, "a", true, false},
		{"(?:a|x)(?:b|y)", -1, "ab", true, true},
		{"a{0}", -1, "a", true, false},
		{`(z)\1`, 1, "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n := syntax.MustParse(tt.pattern, 0).Root
			if tt.sub >= 0 {
				n = n.Sub[tt.sub]
			}
			p, ne := fits(n, charset.Of([]rune(tt.alphabet)...))
			if p != tt.possible || ne != tt.nonEmpty {
				t.Errorf("fits = (%v, %v), want (%v, %v)", p, ne, tt.possible, tt.nonEmpty)
			}
		})
	}
}

func TestLengthArithmetic(t *testing.T) {
	if got := mulMax(lenCap, 2); got != -1 {
		t.Errorf("mulMax overflow = %d, want -1", got)
	}
	if got := mulMin(lenCap, 2); got != lenCap {
		t.Errorf("mulMin overflow = %d, want %d", got, lenCap)
	}
	if got := addMax(-1, 3); got != -1 {
		t.Errorf("addMax unbounded = %d, want -1", got)
	}
	if got := mulMax(0, -1); got != 0 {
		t.Errorf("mulMax empty body = %d, want 0", got)
	}
}
