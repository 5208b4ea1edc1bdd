// Package charset provides rune sets for static regex analysis.
//
// A Set is a normalized list of inclusive rune ranges: sorted by Lo,
// non-overlapping and non-adjacent. Sets are values and are never mutated
// after construction, so they can be shared freely between goroutines.
//
// The analyzer uses sets to approximate which characters a sub-pattern can
// start with, end with or contain. Every operation is exact on the range
// representation; the approximation happens in the callers.
package charset

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Range is an inclusive rune interval.
type Range struct {
	Lo, Hi rune
}

// Set is an immutable set of runes.
type Set struct {
	ranges []Range
}

// Empty returns the empty set.
func Empty() Set {
	return Set{}
}

// Any returns the set of all runes (0 to unicode.MaxRune).
func Any() Set {
	return Set{ranges: []Range{{0, unicode.MaxRune}}}
}

// Of returns the set containing exactly the given runes.
func Of(runes ...rune) Set {
	rs := make([]Range, len(runes))
	for i, r := range runes {
		rs[i] = Range{r, r}
	}
	return FromRanges(rs...)
}

// FromRanges builds a set from arbitrary, possibly overlapping ranges.
// Ranges with Lo > Hi are ignored.
func FromRanges(rs ...Range) Set {
	if len(rs) == 0 {
		return Set{}
	}
	tmp := make([]Range, 0, len(rs))
	for _, r := range rs {
		if r.Lo > r.Hi {
			continue
		}
		if r.Lo < 0 {
			r.Lo = 0
		}
		if r.Hi > unicode.MaxRune {
			r.Hi = unicode.MaxRune
		}
		tmp = append(tmp, r)
	}
	return Set{ranges: normalize(tmp)}
}

// normalize sorts and merges ranges in place.
func normalize(rs []Range) []Range {
	if len(rs) < 2 {
		return rs
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Lo != rs[j].Lo {
			return rs[i].Lo < rs[j].Lo
		}
		return rs[i].Hi < rs[j].Hi
	})
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		// Merge overlapping and adjacent ranges.
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Ranges returns the normalized ranges of s. The returned slice must not be
// modified.
func (s Set) Ranges() []Range {
	return s.ranges
}

// IsEmpty reports whether s contains no runes.
func (s Set) IsEmpty() bool {
	return len(s.ranges) == 0
}

// IsAny reports whether s contains every rune.
func (s Set) IsAny() bool {
	return len(s.ranges) == 1 && s.ranges[0].Lo == 0 && s.ranges[0].Hi == unicode.MaxRune
}

// Contains reports whether r is a member of s.
func (s Set) Contains(r rune) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Hi >= r })
	return i < len(s.ranges) && s.ranges[i].Lo <= r
}

// Len returns the number of runes in s.
func (s Set) Len() int {
	n := 0
	for _, r := range s.ranges {
		n += int(r.Hi-r.Lo) + 1
	}
	return n
}

// Single returns the only rune of s when s has exactly one member.
func (s Set) Single() (rune, bool) {
	if len(s.ranges) == 1 && s.ranges[0].Lo == s.ranges[0].Hi {
		return s.ranges[0].Lo, true
	}
	return 0, false
}

// Runes returns the members of s in ascending order, or nil when s has more
// than limit members.
func (s Set) Runes(limit int) []rune {
	if s.Len() > limit {
		return nil
	}
	out := make([]rune, 0, s.Len())
	for _, r := range s.ranges {
		for c := r.Lo; c <= r.Hi; c++ {
			out = append(out, c)
		}
	}
	return out
}

// Union returns s ∪ t.
func (s Set) Union(t Set) Set {
	switch {
	case t.IsEmpty():
		return s
	case s.IsEmpty():
		return t
	}
	rs := make([]Range, 0, len(s.ranges)+len(t.ranges))
	rs = append(rs, s.ranges...)
	rs = append(rs, t.ranges...)
	return Set{ranges: normalize(rs)}
}

// Intersect returns s ∩ t.
func (s Set) Intersect(t Set) Set {
	var out []Range
	i, j := 0, 0
	for i < len(s.ranges) && j < len(t.ranges) {
		a, b := s.ranges[i], t.ranges[j]
		lo, hi := max(a.Lo, b.Lo), min(a.Hi, b.Hi)
		if lo <= hi {
			out = append(out, Range{lo, hi})
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return Set{ranges: out}
}

// Intersects reports whether s and t share at least one rune.
// It does not allocate.
func (s Set) Intersects(t Set) bool {
	i, j := 0, 0
	for i < len(s.ranges) && j < len(t.ranges) {
		a, b := s.ranges[i], t.ranges[j]
		if max(a.Lo, b.Lo) <= min(a.Hi, b.Hi) {
			return true
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return false
}

// Negate returns the complement of s over [0, unicode.MaxRune].
func (s Set) Negate() Set {
	var out []Range
	next := rune(0)
	for _, r := range s.ranges {
		if r.Lo > next {
			out = append(out, Range{next, r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, Range{next, unicode.MaxRune})
	}
	return Set{ranges: out}
}

// Minus returns s \ t.
func (s Set) Minus(t Set) Set {
	return s.Intersect(t.Negate())
}

// Equal reports whether s and t contain the same runes.
func (s Set) Equal(t Set) bool {
	if len(s.ranges) != len(t.ranges) {
		return false
	}
	for i := range s.ranges {
		if s.ranges[i] != t.ranges[i] {
			return false
		}
	}
	return true
}

// String renders s in bracket notation, e.g. [a-z_].
func (s Set) String() string {
	if s.IsAny() {
		return "[any]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range s.ranges {
		writeRune(&b, r.Lo)
		if r.Hi > r.Lo {
			if r.Hi > r.Lo+1 {
				b.WriteByte('-')
			}
			writeRune(&b, r.Hi)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeRune(b *strings.Builder, r rune) {
	if unicode.IsPrint(r) && r != '\\' && r != ']' && r != '-' {
		b.WriteRune(r)
		return
	}
	b.WriteString(`\x{`)
	b.WriteString(strconv.FormatInt(int64(r), 16))
	b.WriteByte('}')
}
