package charset

import (
	"strings"
	"sync"
	"unicode"
)

// Shorthand classes. Ruby's \d, \w, \s and \h are ASCII-only by default.
var (
	digit     = FromRanges(Range{'0', '9'})
	word      = FromRanges(Range{'0', '9'}, Range{'A', 'Z'}, Range{'_', '_'}, Range{'a', 'z'})
	space     = FromRanges(Range{'\t', '\r'}, Range{' ', ' '})
	hexDigit  = FromRanges(Range{'0', '9'}, Range{'A', 'F'}, Range{'a', 'f'})
	lineBreak = FromRanges(Range{'\n', '\r'}, Range{0x85, 0x85}, Range{0x2028, 0x2029})
	newline   = Of('\n')
)

// Digit returns the \d set.
func Digit() Set { return digit }

// Word returns the \w set.
func Word() Set { return word }

// Space returns the \s set.
func Space() Set { return space }

// HexDigit returns the \h set.
func HexDigit() Set { return hexDigit }

// LineBreak returns the single-character members of \R.
func LineBreak() Set { return lineBreak }

// Dot returns the set matched by '.': every rune except newline, or every
// rune when dotAll is set (Ruby's /m option).
func Dot(dotAll bool) Set {
	if dotAll {
		return Any()
	}
	return newline.Negate()
}

// posixNames lists the names accepted inside POSIX brackets ([:name:]).
var posixNames = map[string]bool{
	"alnum": true, "alpha": true, "ascii": true, "blank": true,
	"cntrl": true, "digit": true, "graph": true, "lower": true,
	"print": true, "punct": true, "space": true, "upper": true,
	"xdigit": true, "word": true,
}

var (
	propOnce  sync.Once
	propTable map[string]func() Set
)

// Property returns the set for a character property name as accepted by
// \p{...}. Names are matched case-insensitively and ignore spaces,
// underscores and hyphens. It reports false for unknown names.
func Property(name string) (Set, bool) {
	propOnce.Do(buildPropTable)
	fn, ok := propTable[normalizeName(name)]
	if !ok {
		return Set{}, false
	}
	return fn(), true
}

// Posix returns the set for a POSIX bracket name such as "alpha".
func Posix(name string) (Set, bool) {
	if !posixNames[name] {
		return Set{}, false
	}
	return Property(name)
}

func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func buildPropTable() {
	propTable = make(map[string]func() Set)

	// Scripts, categories and binary properties from the unicode package.
	for name, t := range unicode.Scripts {
		propTable[normalizeName(name)] = lazyTable(t)
	}
	for name, t := range unicode.Properties {
		propTable[normalizeName(name)] = lazyTable(t)
	}
	for name, t := range unicode.Categories {
		propTable[normalizeName(name)] = lazyTable(t)
	}

	alpha := lazy(func() Set {
		return fromTables(unicode.L, unicode.Nl, unicode.Other_Alphabetic)
	})
	upper := lazy(func() Set { return fromTables(unicode.Lu, unicode.Other_Uppercase) })
	lower := lazy(func() Set { return fromTables(unicode.Ll, unicode.Other_Lowercase) })
	punct := lazy(func() Set {
		// Onigmo counts the ASCII symbols as punctuation as well.
		return fromTables(unicode.P).Union(Of('$', '+', '<', '=', '>', '^', '`', '|', '~'))
	})
	graph := lazy(func() Set {
		return fromTables(unicode.White_Space, unicode.C).Negate()
	})

	propTable["any"] = Any
	propTable["ascii"] = func() Set { return FromRanges(Range{0, 0x7f}) }
	propTable["alpha"] = alpha
	propTable["digit"] = lazyTable(unicode.Nd)
	propTable["alnum"] = func() Set { return alpha().Union(fromTables(unicode.Nd)) }
	propTable["upper"] = upper
	propTable["lower"] = lower
	propTable["space"] = lazyTable(unicode.White_Space)
	propTable["blank"] = func() Set { return fromTables(unicode.Zs).Union(Of('\t')) }
	propTable["cntrl"] = lazyTable(unicode.Cc)
	propTable["xdigit"] = func() Set { return hexDigit }
	propTable["punct"] = punct
	propTable["graph"] = graph
	propTable["print"] = func() Set { return graph().Union(fromTables(unicode.Zs)) }
	propTable["word"] = lazy(func() Set {
		return fromTables(unicode.L, unicode.M, unicode.Nd, unicode.Pc)
	})
	propTable["letter"] = lazyTable(unicode.L)
	propTable["mark"] = lazyTable(unicode.M)
	propTable["number"] = lazyTable(unicode.N)
	propTable["punctuation"] = lazyTable(unicode.P)
	propTable["symbol"] = lazyTable(unicode.S)
	propTable["separator"] = lazyTable(unicode.Z)
	propTable["other"] = lazyTable(unicode.C)
}

func lazyTable(t *unicode.RangeTable) func() Set {
	return lazy(func() Set { return fromTables(t) })
}

func lazy(fn func() Set) func() Set {
	var (
		once sync.Once
		set  Set
	)
	return func() Set {
		once.Do(func() { set = fn() })
		return set
	}
}

// fromTables converts unicode range tables into a Set.
func fromTables(tables ...*unicode.RangeTable) Set {
	var rs []Range
	for _, t := range tables {
		for _, r := range t.R16 {
			rs = appendStrided(rs, rune(r.Lo), rune(r.Hi), rune(r.Stride))
		}
		for _, r := range t.R32 {
			rs = appendStrided(rs, rune(r.Lo), rune(r.Hi), rune(r.Stride))
		}
	}
	return FromRanges(rs...)
}

func appendStrided(rs []Range, lo, hi, stride rune) []Range {
	if stride == 1 {
		return append(rs, Range{lo, hi})
	}
	for c := lo; c <= hi; c += stride {
		rs = append(rs, Range{c, c})
	}
	return rs
}
