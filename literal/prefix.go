package literal

import (
	"github.com/coregx/ahocorasick"
)

// smallPrefixSet is the size up to which PrefixFree compares pairs directly
// instead of building automata.
const smallPrefixSet = 8

// PrefixFree reports whether s is a prefix code: no string occurs twice and
// no string is a proper prefix of another. Repeating a prefix code can split
// its input in only one way.
//
// Small sets are compared pairwise. Larger sets are checked length class by
// length class with an Aho-Corasick automaton over all strictly shorter
// strings: a leftmost match starting at offset 0 is a shorter string that
// prefixes the candidate.
//
// Example:
//
//	["ab", "cd"]  → true
//	["a", "ab"]   → false
//	["x", "x"]    → false
func PrefixFree(s *Seq) (bool, error) {
	if s.Len() < 2 {
		return true, nil
	}
	if s.HasDuplicates() {
		return false, nil
	}

	sorted := s.Clone()
	sorted.Sort()
	lits := sorted.literals
	if len(lits[0].Bytes) == 0 {
		// The empty string prefixes everything.
		return false, nil
	}

	if len(lits) <= smallPrefixSet {
		for i := range lits {
			for j := i + 1; j < len(lits); j++ {
				if isPrefix(lits[i].Bytes, lits[j].Bytes) {
					return false, nil
				}
			}
		}
		return true, nil
	}

	// lits is sorted by length; [start, end) is the current length class.
	for start := 0; start < len(lits); {
		end := start + 1
		for end < len(lits) && len(lits[end].Bytes) == len(lits[start].Bytes) {
			end++
		}
		if start > 0 {
			builder := ahocorasick.NewBuilder()
			for _, lit := range lits[:start] {
				builder.AddPattern(lit.Bytes)
			}
			auto, err := builder.Build()
			if err != nil {
				return false, err
			}
			for _, lit := range lits[start:end] {
				if m := auto.Find(lit.Bytes, 0); m != nil && m.Start == 0 {
					return false, nil
				}
			}
		}
		start = end
	}
	return true, nil
}
