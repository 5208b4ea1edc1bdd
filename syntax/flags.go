package syntax

import "strings"

// Flags are the regexp options that change how the source is read or what
// characters a construct matches.
type Flags uint8

const (
	// IgnoreCase is Ruby's /i: letters match case-insensitively.
	IgnoreCase Flags = 1 << iota
	// Extended is Ruby's /x: unescaped whitespace and #-comments are ignored.
	Extended
	// Multiline is Ruby's /m: '.' also matches newline.
	Multiline
)

// ParseFlags converts Ruby literal option letters (the "imx" in /re/imx)
// into Flags. The letters o, n, e, s and u only affect interpolation or
// encoding and are accepted without effect.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for i, c := range s {
		switch c {
		case 'i':
			f |= IgnoreCase
		case 'x':
			f |= Extended
		case 'm':
			f |= Multiline
		case 'o', 'n', 'e', 's', 'u':
		default:
			return 0, &Error{Code: ErrInvalidFlag, Pos: i, Expr: s}
		}
	}
	return f, nil
}

// String returns the option letters in Ruby's canonical order.
func (f Flags) String() string {
	var b strings.Builder
	if f&Multiline != 0 {
		b.WriteByte('m')
	}
	if f&IgnoreCase != 0 {
		b.WriteByte('i')
	}
	if f&Extended != 0 {
		b.WriteByte('x')
	}
	return b.String()
}

// optionFlag maps an inline option letter to its flag.
func optionFlag(c byte) (Flags, bool) {
	switch c {
	case 'i':
		return IgnoreCase, true
	case 'x':
		return Extended, true
	case 'm':
		return Multiline, true
	}
	return 0, false
}
