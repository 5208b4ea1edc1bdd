// Package literal enumerates the finite languages of small sub-patterns and
// answers questions about them: whether a string is derivable in more than
// one way, and whether the language is a prefix code.
//
// Key concepts:
//   - A Literal is one string of the language, as UTF-8 bytes
//   - A Seq is a multiset of literals: a string appears once per derivation
//   - Cross and Append build the languages of concatenation and alternation
//
// The analysis package uses these answers to tell a repeated alternation such
// as (?:ab|cd)+ apart from an ambiguous one such as (?:a|ab)+.
package literal

import (
	"bytes"
	"sort"
)

// Literal is one string of a finite language.
//
// Example:
//   - Pattern /hello/ → Literal{[]byte("hello")}
//   - Pattern /[ab]c/ → Literal{"ac"}, Literal{"bc"}
type Literal struct {
	// Bytes contains the UTF-8 encoding of the string.
	Bytes []byte
}

// NewLiteral creates a new Literal from the given byte sequence.
func NewLiteral(b []byte) Literal {
	return Literal{Bytes: b}
}

// Len returns the length of the literal in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

// String returns a string representation of the literal for debugging purposes.
// Format: "literal{bytes}"
func (l Literal) String() string {
	return "literal{" + string(l.Bytes) + "}"
}

// Seq represents the strings a sub-pattern can match, one entry per way of
// matching it. A string that occurs twice can be derived along two paths.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]byte("foo")),
//	    literal.NewLiteral([]byte("bar")),
//	)
//	fmt.Printf("Sequence has %d literals\n", seq.Len()) // Output: Sequence has 2 literals
type Seq struct {
	literals []Literal
}

// NewSeq creates a new sequence from the given literals.
//
// Example with empty sequence:
//
//	seq := literal.NewSeq()
//	fmt.Println(seq.IsEmpty()) // Output: true
func NewSeq(lits ...Literal) *Seq {
	return &Seq{
		literals: lits,
	}
}

// Len returns the number of literals in the sequence.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// Get returns the literal at the specified index.
// Panics if index is out of bounds.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// IsEmpty returns true if the sequence has no literals. An empty sequence is
// the empty language: nothing matches, not even the empty string.
func (s *Seq) IsEmpty() bool {
	return s == nil || len(s.literals) == 0
}

// Clone returns a deep copy of the sequence.
// All literals and their byte slices are duplicated.
func (s *Seq) Clone() *Seq {
	if s == nil {
		return nil
	}

	cloned := make([]Literal, len(s.literals))
	for i, lit := range s.literals {
		bytesCopy := make([]byte, len(lit.Bytes))
		copy(bytesCopy, lit.Bytes)
		cloned[i] = Literal{Bytes: bytesCopy}
	}

	return &Seq{literals: cloned}
}

// Append adds the literals of other to s, keeping duplicates. This is the
// language of an alternation. It reports false if the result would exceed
// maxLiterals entries.
func (s *Seq) Append(other *Seq, maxLiterals int) bool {
	if s.Len()+other.Len() > maxLiterals {
		return false
	}
	s.literals = append(s.literals, other.literals...)
	return true
}

// Cross returns the concatenation language of s followed by other. Every
// pairing is kept, so ambiguity in either operand or in the split point shows
// up as a duplicate. It reports false if the result would exceed maxLiterals
// entries or a literal would exceed maxLen bytes.
//
// Example:
//
//	["a", "ab"] x ["bc", "c"] → ["abc", "ac", "abbc", "abc"]
func (s *Seq) Cross(other *Seq, maxLiterals, maxLen int) (*Seq, bool) {
	if s.Len()*other.Len() > maxLiterals {
		return nil, false
	}
	out := make([]Literal, 0, s.Len()*other.Len())
	for _, a := range s.literals {
		for _, b := range other.literals {
			if len(a.Bytes)+len(b.Bytes) > maxLen {
				return nil, false
			}
			joined := make([]byte, 0, len(a.Bytes)+len(b.Bytes))
			joined = append(joined, a.Bytes...)
			joined = append(joined, b.Bytes...)
			out = append(out, Literal{Bytes: joined})
		}
	}
	return &Seq{literals: out}, true
}

// Sort orders the literals by length, then bytewise.
func (s *Seq) Sort() {
	if s.IsEmpty() {
		return
	}
	sort.Slice(s.literals, func(i, j int) bool {
		a, b := s.literals[i].Bytes, s.literals[j].Bytes
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return bytes.Compare(a, b) < 0
	})
}

// HasDuplicates reports whether some string occurs more than once.
func (s *Seq) HasDuplicates() bool {
	if s.Len() < 2 {
		return false
	}
	seen := make(map[string]struct{}, s.Len())
	for _, lit := range s.literals {
		if _, ok := seen[string(lit.Bytes)]; ok {
			return true
		}
		seen[string(lit.Bytes)] = struct{}{}
	}
	return false
}

// Dedup removes repeated strings, keeping the first occurrence.
func (s *Seq) Dedup() {
	if s.Len() < 2 {
		return
	}
	seen := make(map[string]struct{}, s.Len())
	kept := s.literals[:0]
	for _, lit := range s.literals {
		if _, ok := seen[string(lit.Bytes)]; ok {
			continue
		}
		seen[string(lit.Bytes)] = struct{}{}
		kept = append(kept, lit)
	}
	s.literals = kept
}

// Helper functions

// isPrefix returns true if prefix is a prefix of s.
func isPrefix(prefix, s []byte) bool {
	if len(prefix) > len(s) {
		return false
	}
	return bytes.Equal(prefix, s[:len(prefix)])
}
