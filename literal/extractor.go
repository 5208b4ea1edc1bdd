package literal

import (
	"github.com/coregx/redoscheck/charset"
	"github.com/coregx/redoscheck/syntax"
)

// ExtractorConfig configures language enumeration limits.
//
// These limits keep enumeration cheap on patterns whose language is finite
// but large:
//   - MaxLiterals: prevents memory bloat from alternations like (a|b|c|d|...)
//   - MaxLiteralLen: prevents enumerating very long strings
//   - MaxClassSize: prevents expanding large character classes like [a-z]
//   - MaxRepeat: prevents unrolling repetitions like x{1,1000}
//
// A sub-pattern that exceeds any limit is treated as having no finite
// language, and callers fall back to coarser reasoning.
type ExtractorConfig struct {
	// MaxLiterals limits the number of strings in one language. Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the byte length of each string. Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the size of character classes to expand.
	// Character classes like [abc] are expanded to ["a", "b", "c"].
	// Default: 10.
	MaxClassSize int

	// MaxRepeat limits the upper bound of a bounded repetition that is
	// unrolled. Default: 8.
	MaxRepeat int
}

// DefaultConfig returns the default extractor configuration.
//
// Example:
//
//	extractor := literal.New(literal.DefaultConfig())
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
		MaxRepeat:     8,
	}
}

// Extractor enumerates the finite language of a pattern node.
//
// Handled node kinds:
//   - OpEmpty: [""]
//   - OpLiteral: the literal, expanded over case folds when case-insensitive,
//     unless a multi-rune folding such as ß = ss applies
//   - OpCharClass: one string per member, if the class is small
//   - OpConcat: cross product of the parts
//   - OpAlternate: union of the branches, duplicates kept
//   - OpGroup: the body; atomic groups drop duplicates since they commit to
//     one path
//   - OpQuantifier: union of body^k for k in Min..Max, if bounded
//
// Everything else (anchors, lookaround, backreferences, calls, absent
// operators, unbounded repetition) has no finite language here.
//
// Example:
//
//	pat := syntax.MustParse("(?:ab|a)c", 0)
//	seq, ok := literal.New(literal.DefaultConfig()).Language(pat.Root)
//	// seq = ["abc", "ac"], ok = true
//
// Results are memoized per node, so an Extractor is bound to one analysis
// and is not safe for concurrent use. Returned sequences are shared with the
// memo and must not be modified.
type Extractor struct {
	config ExtractorConfig
	memo   map[*syntax.Node]memoEntry
}

type memoEntry struct {
	seq *Seq
	ok  bool
}

// New creates a new Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config, memo: make(map[*syntax.Node]memoEntry)}
}

// Language returns the strings n can match, one per derivation. It reports
// false if n has no finite language or the language exceeds the configured
// limits.
func (e *Extractor) Language(n *syntax.Node) (*Seq, bool) {
	return e.language(n, 0)
}

// language is the internal recursive implementation.
// The depth parameter bounds recursion on deeply nested patterns.
func (e *Extractor) language(n *syntax.Node, depth int) (*Seq, bool) {
	if depth > 100 {
		return nil, false
	}
	if m, ok := e.memo[n]; ok {
		return m.seq, m.ok
	}
	seq, ok := e.compute(n, depth)
	if !ok {
		seq = nil
	}
	e.memo[n] = memoEntry{seq: seq, ok: ok}
	return seq, ok
}

func (e *Extractor) compute(n *syntax.Node, depth int) (*Seq, bool) {
	switch n.Op {
	case syntax.OpEmpty:
		return NewSeq(NewLiteral(nil)), true

	case syntax.OpLiteral:
		// Text matched through a multi-rune folding is not one member
		// per position.
		if n.MultiFold() {
			return nil, false
		}
		seq := NewSeq(NewLiteral(nil))
		for i := range n.Runes {
			set, ok := e.expandSet(n.RuneSet(i))
			if !ok {
				return nil, false
			}
			if seq, ok = seq.Cross(set, e.config.MaxLiterals, e.config.MaxLiteralLen); !ok {
				return nil, false
			}
		}
		return seq, true

	case syntax.OpCharClass:
		if n.MultiFold() {
			return nil, false
		}
		return e.expandSet(n.Class)

	case syntax.OpConcat:
		seq := NewSeq(NewLiteral(nil))
		for _, sub := range n.Sub {
			part, ok := e.language(sub, depth+1)
			if !ok {
				return nil, false
			}
			if seq, ok = seq.Cross(part, e.config.MaxLiterals, e.config.MaxLiteralLen); !ok {
				return nil, false
			}
		}
		return seq, true

	case syntax.OpAlternate:
		seq := NewSeq()
		for _, sub := range n.Sub {
			branch, ok := e.language(sub, depth+1)
			if !ok || !seq.Append(branch, e.config.MaxLiterals) {
				return nil, false
			}
		}
		return seq, true

	case syntax.OpGroup:
		switch n.Group {
		case syntax.GroupCapture, syntax.GroupNonCapture:
			return e.language(n.Sub[0], depth+1)
		case syntax.GroupAtomic:
			seq, ok := e.language(n.Sub[0], depth+1)
			if !ok {
				return nil, false
			}
			seq = seq.Clone()
			seq.Dedup()
			return seq, true
		}
		return nil, false

	case syntax.OpQuantifier:
		return e.repeat(n, depth)

	default:
		return nil, false
	}
}

// repeat unrolls a bounded repetition into the union of its powers.
func (e *Extractor) repeat(n *syntax.Node, depth int) (*Seq, bool) {
	if n.Max < 0 || n.Max > e.config.MaxRepeat {
		return nil, false
	}
	body, ok := e.language(n.Sub[0], depth+1)
	if !ok {
		return nil, false
	}
	power := NewSeq(NewLiteral(nil))
	out := NewSeq()
	for k := 0; k <= n.Max; k++ {
		if k >= n.Min && !out.Append(power, e.config.MaxLiterals) {
			return nil, false
		}
		if k == n.Max {
			break
		}
		if power, ok = power.Cross(body, e.config.MaxLiterals, e.config.MaxLiteralLen); !ok {
			return nil, false
		}
	}
	if n.Mode == syntax.Possessive {
		out.Dedup()
	}
	return out, true
}

// expandSet expands a character set to one literal per member.
//
// Examples:
//
//	[abc]   → ["a", "b", "c"] (3 chars, under limit)
//	[a-z]   → not finite (26 chars, over default limit of 10)
func (e *Extractor) expandSet(set charset.Set) (*Seq, bool) {
	runes := set.Runes(e.config.MaxClassSize)
	if runes == nil {
		return nil, false
	}
	if len(runes) > e.config.MaxLiterals {
		return nil, false
	}
	lits := make([]Literal, 0, len(runes))
	for _, r := range runes {
		lits = append(lits, NewLiteral([]byte(string(r))))
	}
	return NewSeq(lits...), true
}
