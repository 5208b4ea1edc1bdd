package syntax

import (
	"strings"

	"github.com/coregx/redoscheck/charset"
)

// parseEscape parses a backslash sequence outside a character class.
func (p *parser) parseEscape() (*Node, error) {
	start := p.pos
	p.pos++
	if !p.more() {
		return nil, p.error(ErrTrailingBackslash, start)
	}
	c := p.peek()
	switch c {
	case 'd', 'D', 'w', 'W', 's', 'S', 'h', 'H':
		p.next()
		return p.classNode(start, p.shorthand(c)), nil
	case 'p', 'P':
		p.next()
		set, err := p.parseProperty(c == 'P', start)
		if err != nil {
			return nil, err
		}
		return p.classNode(start, set), nil
	case 'R':
		p.next()
		return p.lineBreak(start), nil
	case 'X':
		p.next()
		return p.grapheme(start), nil
	case 'A', 'z', 'Z', 'b', 'B', 'G', 'K':
		p.next()
		return p.anchor(start, escapeAnchors[c]), nil
	case 'k':
		p.next()
		return p.parseNamedRef(start, OpBackref)
	case 'g':
		p.next()
		return p.parseNamedRef(start, OpCall)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.parseNumberEscape(start)
	case 'u':
		if p.lookingAt("u{") {
			p.next()
			runes, err := p.codepoints(start)
			if err != nil {
				return nil, err
			}
			return p.literal(start, runes...), nil
		}
	}
	r, err := p.escapeRune(start, false)
	if err != nil {
		return nil, err
	}
	return p.literal(start, r), nil
}

var escapeAnchors = map[rune]Anchor{
	'A': AnchorBeginText,
	'z': AnchorEndText,
	'Z': AnchorEndTextOptNL,
	'b': AnchorWordBoundary,
	'B': AnchorNotWordBound,
	'G': AnchorSearchStart,
	'K': AnchorKeep,
}

// escapeRune decodes a single-character escape; p.pos is just past the
// backslash.
func (p *parser) escapeRune(start int, inClass bool) (rune, error) {
	c := p.next()
	switch c {
	case 't':
		return '\t', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case 'a':
		return '\a', nil
	case 'e':
		return 0x1b, nil
	case 'b':
		if inClass {
			return '\b', nil
		}
	case '0':
		v := 0
		for i := 0; i < 2 && p.more() && isOctal(p.src[p.pos]); i++ {
			v = v*8 + int(p.src[p.pos]-'0')
			p.pos++
		}
		return rune(v), nil
	case 'x':
		v, n := scanHex(p.src[p.pos:], 2)
		if n == 0 {
			return 0, p.error(ErrInvalidEscape, start)
		}
		p.pos += n
		return rune(v), nil
	case 'u':
		v, n := scanHex(p.src[p.pos:], 4)
		if n != 4 {
			return 0, p.error(ErrInvalidEscape, start)
		}
		p.pos += n
		return rune(v), nil
	case 'c':
		return p.control(start)
	case 'C':
		if !p.lookingAt("-") {
			return 0, p.error(ErrInvalidEscape, start)
		}
		p.pos++
		return p.control(start)
	case 'M':
		if !p.lookingAt("-") || p.pos+1 >= len(p.src) {
			return 0, p.error(ErrInvalidEscape, start)
		}
		p.pos++
		r := p.next()
		if r == '\\' {
			if !p.more() {
				return 0, p.error(ErrTrailingBackslash, start)
			}
			var err error
			if r, err = p.escapeRune(start, inClass); err != nil {
				return 0, err
			}
		}
		if r > 0x7f {
			return 0, p.error(ErrInvalidEscape, start)
		}
		return (r & 0xff) | 0x80, nil
	}
	// Any other escaped character stands for itself.
	return c, nil
}

// control decodes the character after \c or \C-.
func (p *parser) control(start int) (rune, error) {
	if !p.more() {
		return 0, p.error(ErrInvalidEscape, start)
	}
	r := p.next()
	if r == '\\' {
		if !p.more() {
			return 0, p.error(ErrTrailingBackslash, start)
		}
		var err error
		if r, err = p.escapeRune(start, false); err != nil {
			return 0, err
		}
	}
	if r == '?' {
		return 0x7f, nil
	}
	if r > 0x7f {
		return 0, p.error(ErrInvalidEscape, start)
	}
	return r & 0x9f, nil
}

// codepoints decodes \u{h h ...}; p.pos is at the opening brace.
func (p *parser) codepoints(start int) ([]rune, error) {
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return nil, p.error(ErrInvalidEscape, start)
	}
	fields := strings.Fields(p.src[p.pos+1 : p.pos+end])
	if len(fields) == 0 {
		return nil, p.error(ErrInvalidEscape, start)
	}
	runes := make([]rune, 0, len(fields))
	for _, f := range fields {
		v, n := scanHex(f, 6)
		if n != len(f) || v > 0x10ffff {
			return nil, p.error(ErrInvalidEscape, start)
		}
		runes = append(runes, rune(v))
	}
	p.pos += end + 1
	return runes, nil
}

// parseNumberEscape parses \N: a backreference when it can be one, otherwise
// an octal escape. p.pos is at the first digit.
func (p *parser) parseNumberEscape(start int) (*Node, error) {
	digitsStart := p.pos
	end := digitsStart
	for end < len(p.src) && isDigit(p.src[end]) {
		end++
	}
	digits := p.src[digitsStart:end]
	n, _ := scanInt(digits)

	if len(digits) > 1 && n > len(p.groups) && isOctal(digits[0]) {
		v, i := 0, 0
		for i < len(digits) && i < 3 && isOctal(digits[i]) {
			v = v*8 + int(digits[i]-'0')
			i++
		}
		p.pos = digitsStart + i
		return p.literal(start, rune(v)), nil
	}

	p.pos = end
	node := &Node{Op: OpBackref, Pos: start, End: end, Flags: p.flags, Ref: &Ref{num: n}}
	p.addRef(node, refBackref)
	return node, nil
}

// parseNamedRef parses the <...> or '...' part of \k and \g.
func (p *parser) parseNamedRef(start int, op Op) (*Node, error) {
	if !p.more() {
		return nil, p.error(ErrInvalidEscape, start)
	}
	var term byte
	switch p.src[p.pos] {
	case '<':
		term = '>'
	case '\'':
		term = '\''
	default:
		return nil, p.error(ErrInvalidEscape, start)
	}
	p.pos++
	end := strings.IndexByte(p.src[p.pos:], term)
	if end < 0 {
		return nil, p.error(ErrInvalidGroupName, start)
	}
	spec := p.src[p.pos : p.pos+end]
	p.pos += end + 1

	ref, ok := parseRefSpec(spec, op == OpBackref, op == OpCall)
	if !ok {
		return nil, p.error(ErrInvalidGroupName, start)
	}
	node := &Node{Op: op, Pos: start, End: p.pos, Flags: p.flags, Ref: ref}
	kind := refBackref
	if op == OpCall {
		kind = refCall
	}
	p.addRef(node, kind)
	return node, nil
}

// parseRefSpec parses "name", "n", "-n", "+n" (calls only) and, for
// backreferences, an optional "+level" or "-level" suffix.
func parseRefSpec(s string, level, plus bool) (*Ref, bool) {
	ref := &Ref{}
	body := s
	if level {
		if i := strings.LastIndexAny(s, "+-"); i > 0 && allDigits(s[i+1:]) {
			lvl, _ := scanInt(s[i+1:])
			if s[i] == '-' {
				lvl = -lvl
			}
			ref.Level, ref.HasLevel = lvl, true
			body = s[:i]
		}
	}
	if body == "" {
		return nil, false
	}
	switch {
	case body[0] == '-' || body[0] == '+':
		if body[0] == '+' && !plus || !allDigits(body[1:]) {
			return nil, false
		}
		n, _ := scanInt(body[1:])
		if n == 0 {
			return nil, false
		}
		if body[0] == '-' {
			n = -n
		}
		ref.num, ref.relative = n, true
	case allDigits(body):
		ref.num, _ = scanInt(body)
	default:
		if !validName(body) {
			return nil, false
		}
		ref.Name = body
	}
	return ref, true
}

// parseProperty parses {Name} or {^Name} after \p or \P.
func (p *parser) parseProperty(negated bool, start int) (charset.Set, error) {
	if !p.lookingAt("{") {
		return charset.Set{}, p.error(ErrInvalidPropertyName, start)
	}
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return charset.Set{}, p.error(ErrInvalidPropertyName, start)
	}
	name := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1
	if strings.HasPrefix(name, "^") {
		negated = !negated
		name = name[1:]
	}
	set, ok := charset.Property(name)
	if !ok {
		return charset.Set{}, p.error(ErrInvalidPropertyName, start)
	}
	set = p.fold(set)
	if negated {
		set = set.Negate()
	}
	return set, nil
}

// shorthand returns the set for \d \w \s \h and their negations.
func (p *parser) shorthand(c rune) charset.Set {
	var set charset.Set
	switch c {
	case 'd', 'D':
		set = charset.Digit()
	case 'w', 'W':
		set = charset.Word()
	case 's', 'S':
		set = charset.Space()
	case 'h', 'H':
		set = charset.HexDigit()
	}
	set = p.fold(set)
	if c >= 'A' && c <= 'Z' {
		set = set.Negate()
	}
	return set
}

// lineBreak builds \R, which is (?>\r\n|[\n\v\f\r\x85\u2028\u2029]).
func (p *parser) lineBreak(start int) *Node {
	crlf := p.literal(start, '\r', '\n')
	crlf.Flags &^= IgnoreCase
	alt := &Node{Op: OpAlternate, Pos: start, End: p.pos, Flags: p.flags,
		Sub: []*Node{crlf, p.classNode(start, charset.LineBreak())}}
	return &Node{Op: OpGroup, Group: GroupAtomic, Pos: start, End: p.pos, Flags: p.flags, Sub: []*Node{alt}}
}

// grapheme approximates \X as (?>.\p{M}*), an atomic base plus its marks.
func (p *parser) grapheme(start int) *Node {
	mark, _ := charset.Property("M")
	marks := &Node{Op: OpQuantifier, Pos: start, End: p.pos, Flags: p.flags,
		Sub: []*Node{p.classNode(start, mark)}, Min: 0, Max: -1}
	seq := &Node{Op: OpConcat, Pos: start, End: p.pos, Flags: p.flags,
		Sub: []*Node{p.classNode(start, charset.Any()), marks}}
	return &Node{Op: OpGroup, Group: GroupAtomic, Pos: start, End: p.pos, Flags: p.flags, Sub: []*Node{seq}}
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isOctal(c byte) bool { return '0' <= c && c <= '7' }

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// scanHex reads up to max hex digits.
func scanHex(s string, max int) (int, int) {
	v, n := 0, 0
	for n < len(s) && n < max {
		d := hexVal(s[n])
		if d < 0 {
			break
		}
		v = v*16 + d
		n++
	}
	return v, n
}

func hexVal(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
