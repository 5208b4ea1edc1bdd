// Package syntax parses Ruby (Onigmo) regular expression source text into a
// tree of pattern nodes for static analysis.
//
// The parser accepts the Onigmo constructs that influence matching cost:
// groups of every kind, lookaround, backreferences, subexpression calls,
// absent operators, conditionals, possessive and lazy quantifiers, and the
// full character class syntax. It never compiles or executes the pattern.
package syntax

import (
	"errors"
	"fmt"
)

// Common parse errors. Every *Error wraps exactly one of them.
var (
	// ErrMalformedPattern indicates the source is not valid regex syntax
	// for the supported dialect.
	ErrMalformedPattern = errors.New("malformed pattern")

	// ErrUnresolvedReference indicates a backreference, subexpression call
	// or conditional names a group that does not exist.
	ErrUnresolvedReference = errors.New("unresolved group reference")
)

// ErrorCode describes a specific parse failure.
type ErrorCode string

// Malformed pattern codes.
const (
	ErrMissingParen          ErrorCode = "end pattern with unmatched parenthesis"
	ErrUnexpectedParen       ErrorCode = "unmatched close parenthesis"
	ErrMissingBracket        ErrorCode = "premature end of char-class"
	ErrEmptyCharClass        ErrorCode = "empty char-class"
	ErrTrailingBackslash     ErrorCode = "end pattern at escape"
	ErrInvalidEscape         ErrorCode = "invalid escape sequence"
	ErrInvalidCharRange      ErrorCode = "empty range in char class"
	ErrInvalidRangeEnd       ErrorCode = "char-class value at end of range"
	ErrMissingRepeatArgument ErrorCode = "target of repeat operator is not specified"
	ErrInvalidRepeatTarget   ErrorCode = "target of repeat operator is invalid"
	ErrInvalidRepeatSize     ErrorCode = "too big number for repeat range"
	ErrInvalidRepeatRange    ErrorCode = "upper bound must be greater than lower bound"
	ErrInvalidGroupName      ErrorCode = "invalid group name"
	ErrUndefinedGroupOption  ErrorCode = "undefined group option"
	ErrInvalidConditional    ErrorCode = "invalid conditional pattern"
	ErrInvalidPropertyName   ErrorCode = "invalid character property name"
	ErrInvalidPosixBracket   ErrorCode = "invalid POSIX bracket type"
	ErrInvalidFlag           ErrorCode = "unknown regexp option"
	ErrNestingDepth          ErrorCode = "nesting too deep"
)

// Unresolved reference codes.
const (
	ErrUndefinedGroup       ErrorCode = "invalid backref number/name"
	ErrUndefinedName        ErrorCode = "undefined name reference"
	ErrNumberedRefWithNames ErrorCode = "numbered backref/call is not allowed. (use name)"
	ErrMultiplexCall        ErrorCode = "multiplex definition name call"
)

func (c ErrorCode) unresolved() bool {
	switch c {
	case ErrUndefinedGroup, ErrUndefinedName, ErrNumberedRefWithNames, ErrMultiplexCall:
		return true
	}
	return false
}

// Error describes a failure to parse a pattern.
type Error struct {
	Code ErrorCode
	// Pos is the byte offset in Expr where the problem was detected.
	Pos  int
	Expr string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d: /%s/", e.Code, e.Pos, e.Expr)
}

// Unwrap returns ErrUnresolvedReference or ErrMalformedPattern.
func (e *Error) Unwrap() error {
	if e.Code.unresolved() {
		return ErrUnresolvedReference
	}
	return ErrMalformedPattern
}
