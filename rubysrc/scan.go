// Package rubysrc finds regexp literals in Ruby source code.
//
// Sources are parsed with tree-sitter's Ruby grammar, so regexps are told
// apart from division, and literals inside strings, comments and heredocs
// are ignored. Both /.../flags and %r{...}flags forms are recognized.
package rubysrc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/coregx/redoscheck/lint"
	"github.com/coregx/redoscheck/syntax"
)

// DefaultMaxFileSize is the largest source accepted by default.
const DefaultMaxFileSize = 10 << 20

var (
	// ErrFileTooLarge indicates the source exceeds the scanner's size limit.
	ErrFileTooLarge = errors.New("rubysrc: file too large")
)

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxFileSize sets the largest source Scan accepts, in bytes.
func WithMaxFileSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// WithLogger sets the logger used for malformed literals.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scanner extracts regexp literals from Ruby files.
//
// A Scanner is safe for concurrent use; each Scan call creates its own
// tree-sitter parser.
type Scanner struct {
	maxFileSize int
	logger      *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the regexp literals of src in source order. file is only
// used for positions.
//
// Syntax errors elsewhere in the file do not stop the scan; tree-sitter
// recovers and the literals it still recognizes are returned.
func (s *Scanner) Scan(ctx context.Context, file string, src []byte) ([]lint.Literal, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan canceled before start: %w", err)
	}
	if len(src) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %s: size %d exceeds limit %d", ErrFileTooLarge, file, len(src), s.maxFileSize)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(ruby.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %s: %w", file, err)
	}
	defer tree.Close()

	var lits []lint.Literal
	stack := []*sitter.Node{tree.RootNode()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "regex" {
			if lit, ok := s.literal(file, n, src); ok {
				lits = append(lits, lit)
			}
			continue
		}
		// Push in reverse so children pop in source order.
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}
	return lits, nil
}

// Scan scans src with a default Scanner.
func Scan(ctx context.Context, file string, src []byte) ([]lint.Literal, error) {
	return NewScanner().Scan(ctx, file, src)
}

func (s *Scanner) literal(file string, n *sitter.Node, src []byte) (lint.Literal, bool) {
	text := n.Content(src)
	body, opts, ok := splitLiteral(text)
	start := n.StartPoint()
	pos := lint.Position{
		File:   file,
		Line:   int(start.Row) + 1,
		Column: int(start.Column) + 1,
		Offset: int(n.StartByte()),
	}
	if !ok {
		s.logger.Debug("unrecognized regexp literal", slog.String("position", pos.String()))
		return lint.Literal{}, false
	}

	flags, err := syntax.ParseFlags(opts)
	if err != nil {
		s.logger.Warn("ignoring regexp options",
			slog.String("position", pos.String()),
			slog.String("options", opts),
			slog.Any("error", err))
		flags = 0
	}

	return lint.Literal{
		Source:       body,
		Flags:        flags,
		Interpolated: hasInterpolation(n),
		Pos:          pos,
		Len:          len(text),
	}, true
}

// splitLiteral splits the text of a regexp literal into the pattern source
// and the option letters.
//
//	/ab+c/ix  → "ab+c", "ix"
//	%r{a/b}m  → "a/b", "m"
func splitLiteral(text string) (body, opts string, ok bool) {
	var (
		head   int
		closer byte
	)
	switch {
	case strings.HasPrefix(text, "/"):
		head, closer = 1, '/'
	case strings.HasPrefix(text, "%r") && len(text) > 2:
		head, closer = 3, closingDelimiter(text[2])
	default:
		return "", "", false
	}

	end := strings.LastIndexByte(text, closer)
	if end < head {
		return "", "", false
	}
	return unescapeDelimiter(text[head:end], closer), text[end+1:], true
}

func closingDelimiter(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	}
	return open
}

// unescapeDelimiter turns an escaped delimiter back into itself. Ruby does
// this before handing the source to the regexp engine, except for bracket
// delimiters, which stay meaningful as \{ or \(.
func unescapeDelimiter(body string, closer byte) string {
	switch closer {
	case ')', ']', '}', '>':
		return body
	}
	esc := `\` + string(closer)
	if !strings.Contains(body, esc) {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			if body[i+1] == closer {
				b.WriteByte(closer)
			} else {
				b.WriteByte('\\')
				b.WriteByte(body[i+1])
			}
			i++
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

func hasInterpolation(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		if c.Type() == "interpolation" || hasInterpolation(c) {
			return true
		}
	}
	return false
}
