package charset

import "unicode"

// Runes outside [minFold, maxFold] have no simple case folding partners.
const (
	minFold = 0x0041
	maxFold = 0x1e943
)

// Fold returns the closure of s under Unicode simple case folding, so that
// a case-insensitive matcher for s matches exactly the members of the result.
func (s Set) Fold() Set {
	if s.IsEmpty() {
		return s
	}
	// A set covering the whole folding range is already closed.
	if s.Intersect(Set{ranges: []Range{{minFold, maxFold}}}).Len() == maxFold-minFold+1 {
		return s
	}
	var extra []Range
	for _, r := range s.ranges {
		lo, hi := max(r.Lo, minFold), min(r.Hi, maxFold)
		for c := lo; c <= hi; c++ {
			for f := unicode.SimpleFold(c); f != c; f = unicode.SimpleFold(f) {
				if f < r.Lo || f > r.Hi {
					extra = append(extra, Range{f, f})
				}
			}
		}
	}
	if len(extra) == 0 {
		return s
	}
	return s.Union(FromRanges(extra...))
}

// FoldRune returns the case folding orbit of r (r itself included).
func FoldRune(r rune) Set {
	if r < minFold || r > maxFold {
		return Of(r)
	}
	runes := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		runes = append(runes, f)
	}
	return Of(runes...)
}
