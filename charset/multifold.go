package charset

import (
	"slices"
	"unicode"
)

// fullFolds holds the runes whose full case folding is more than one rune
// (CaseFolding.txt status F). Case-insensitive matching treats such a rune
// and its folding as the same text, so /ß/i matches "ss" and /ss/i "ß".
var fullFolds = map[rune][]rune{
	0x00DF: {0x0073, 0x0073},         // ß
	0x0130: {0x0069, 0x0307},         // İ
	0x0149: {0x02BC, 0x006E},         // ŉ
	0x01F0: {0x006A, 0x030C},         // ǰ
	0x0390: {0x03B9, 0x0308, 0x0301}, // ΐ
	0x03B0: {0x03C5, 0x0308, 0x0301}, // ΰ
	0x0587: {0x0565, 0x0582},         // և
	0x1E96: {0x0068, 0x0331},         // ẖ
	0x1E97: {0x0074, 0x0308},         // ẗ
	0x1E98: {0x0077, 0x030A},         // ẘ
	0x1E99: {0x0079, 0x030A},         // ẙ
	0x1E9A: {0x0061, 0x02BE},         // ẚ
	0x1E9E: {0x0073, 0x0073},         // ẞ
	0x1F50: {0x03C5, 0x0313},
	0x1F52: {0x03C5, 0x0313, 0x0300},
	0x1F54: {0x03C5, 0x0313, 0x0301},
	0x1F56: {0x03C5, 0x0313, 0x0342},
	0x1FB2: {0x1F70, 0x03B9},
	0x1FB3: {0x03B1, 0x03B9},
	0x1FB4: {0x03AC, 0x03B9},
	0x1FB6: {0x03B1, 0x0342},
	0x1FB7: {0x03B1, 0x0342, 0x03B9},
	0x1FBC: {0x03B1, 0x03B9},
	0x1FC2: {0x1F74, 0x03B9},
	0x1FC3: {0x03B7, 0x03B9},
	0x1FC4: {0x03AE, 0x03B9},
	0x1FC6: {0x03B7, 0x0342},
	0x1FC7: {0x03B7, 0x0342, 0x03B9},
	0x1FCC: {0x03B7, 0x03B9},
	0x1FD2: {0x03B9, 0x0308, 0x0300},
	0x1FD3: {0x03B9, 0x0308, 0x0301},
	0x1FD6: {0x03B9, 0x0342},
	0x1FD7: {0x03B9, 0x0308, 0x0342},
	0x1FE2: {0x03C5, 0x0308, 0x0300},
	0x1FE3: {0x03C5, 0x0308, 0x0301},
	0x1FE4: {0x03C1, 0x0313},
	0x1FE6: {0x03C5, 0x0342},
	0x1FE7: {0x03C5, 0x0308, 0x0342},
	0x1FF2: {0x1F7C, 0x03B9},
	0x1FF3: {0x03C9, 0x03B9},
	0x1FF4: {0x03CE, 0x03B9},
	0x1FF6: {0x03C9, 0x0342},
	0x1FF7: {0x03C9, 0x0342, 0x03B9},
	0x1FFC: {0x03C9, 0x03B9},
	0xFB00: {0x0066, 0x0066}, // ﬀ
	0xFB01: {0x0066, 0x0069}, // ﬁ
	0xFB02: {0x0066, 0x006C}, // ﬂ
	0xFB03: {0x0066, 0x0066, 0x0069},
	0xFB04: {0x0066, 0x0066, 0x006C},
	0xFB05: {0x0073, 0x0074}, // ﬅ
	0xFB06: {0x0073, 0x0074}, // ﬆ
	0xFB13: {0x0574, 0x0576},
	0xFB14: {0x0574, 0x0565},
	0xFB15: {0x0574, 0x056B},
	0xFB16: {0x057E, 0x0576},
	0xFB17: {0x0574, 0x056D},
}

var (
	// multiFoldRunes is the set of runes with a multi-rune folding, closed
	// under simple folding.
	multiFoldRunes Set
	// byFirst indexes fullFolds by every rune that folds like the first
	// rune of the folding.
	byFirst = make(map[rune][]rune)
)

// MaxFullFold is the longest multi-rune folding, in runes.
const MaxFullFold = 3

func init() {
	// Greek letters with ypogegrammeni or prosgegrammeni: each block of
	// eight folds to the base letter followed by iota.
	for i := rune(0); i < 8; i++ {
		for _, base := range [...]struct{ from, to rune }{
			{0x1F80, 0x1F00}, {0x1F88, 0x1F00},
			{0x1F90, 0x1F20}, {0x1F98, 0x1F20},
			{0x1FA0, 0x1F60}, {0x1FA8, 0x1F60},
		} {
			fullFolds[base.from+i] = []rune{base.to + i, 0x03B9}
		}
	}
	runes := make([]rune, 0, len(fullFolds))
	for r, e := range fullFolds {
		runes = append(runes, r)
		for _, f := range FoldRune(e[0]).Runes(8) {
			byFirst[f] = append(byFirst[f], r)
		}
	}
	multiFoldRunes = Of(runes...).Fold()
}

// MultiFoldRunes returns the runes whose case-insensitive match can span
// several runes of text.
func MultiFoldRunes() Set {
	return multiFoldRunes
}

// FullFold returns the multi-rune case folding of r, or nil if r folds to a
// single rune.
func FullFold(r rune) []rune {
	if f, ok := fullFolds[r]; ok {
		return f
	}
	// Members of a simple folding orbit share the full folding.
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if e, ok := fullFolds[f]; ok {
			return e
		}
	}
	return nil
}

// SpellsMultiFold reports whether case-insensitive matching of runes can
// involve a multi-rune folding: one of the runes has one, or a run of the
// runes spells one.
func SpellsMultiFold(runes []rune) bool {
	for i, r := range runes {
		if multiFoldRunes.Contains(r) {
			return true
		}
		if spelledAt(runes, i) != nil {
			return true
		}
	}
	return false
}

// MultiFoldRelated returns the runes that may appear in text matched
// case-insensitively by runes through multi-rune foldings and that simple
// folding alone does not account for: the runes a folding expands to, and
// the runes whose folding is spelled by a run of runes.
func MultiFoldRelated(runes []rune) Set {
	var out []rune
	for i, r := range runes {
		if e := FullFold(r); e != nil {
			out = append(out, e...)
			// A folding may itself spell shorter ones, as ffi spells ﬀ.
			for j := range e {
				out = append(out, spelledAt(e, j)...)
			}
		}
		out = append(out, spelledAt(runes, i)...)
	}
	if len(out) == 0 {
		return Empty()
	}
	return Of(out...).Fold()
}

// spelledAt returns the runes whose multi-rune folding is spelled,
// case-insensitively, by runes starting at i.
func spelledAt(runes []rune, i int) []rune {
	var out []rune
	for _, r := range byFirst[runes[i]] {
		e := fullFolds[r]
		if i+len(e) <= len(runes) && slices.EqualFunc(runes[i:i+len(e)], e, foldEqual) {
			out = append(out, r)
		}
	}
	return out
}

// foldEqual reports whether a and b are in the same simple folding orbit.
func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
