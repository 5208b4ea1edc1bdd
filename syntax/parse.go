package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/redoscheck/charset"
)

const (
	// maxNesting bounds group and class nesting so recursion stays shallow.
	maxNesting = 1000
	// maxRepeat is Onigmo's ONIG_MAX_REPEAT_NUM.
	maxRepeat = 100000
)

type refKind uint8

const (
	refBackref refKind = iota
	refCall
	refCond
)

// pendingRef is a reference waiting for resolution once all groups are known.
type pendingRef struct {
	node *Node
	kind refKind
	// opened is the number of capture candidates opened before the reference.
	opened int
}

type parser struct {
	src   string
	pos   int
	flags Flags
	depth int

	// groups holds every capture candidate in order of its opening paren.
	groups []*Node
	refs   []pendingRef
}

// Parse parses src as a Ruby regular expression read with the given flags.
//
// On failure the returned error is a *Error wrapping ErrMalformedPattern or
// ErrUnresolvedReference.
func Parse(src string, flags Flags) (*Pattern, error) {
	p := &parser{src: src, flags: flags}
	root, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if p.more() {
		// Only an unmatched ')' stops the top-level alternation early.
		return nil, p.error(ErrUnexpectedParen, p.pos)
	}
	return p.finish(root)
}

// MustParse is like Parse but panics on error. It simplifies tests and
// package-level patterns.
func MustParse(src string, flags Flags) *Pattern {
	pat, err := Parse(src, flags)
	if err != nil {
		panic("syntax: Parse(`" + src + "`): " + err.Error())
	}
	return pat
}

func (p *parser) more() bool {
	return p.pos < len(p.src)
}

func (p *parser) lookingAt(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) peek() rune {
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) next() rune {
	r, w := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += w
	return r
}

func (p *parser) error(code ErrorCode, pos int) *Error {
	return &Error{Code: code, Pos: pos, Expr: p.src}
}

// skipExtended skips whitespace and comments in extended mode.
func (p *parser) skipExtended() {
	if p.flags&Extended == 0 {
		return
	}
	for p.more() {
		switch c := p.src[p.pos]; c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		case '#':
			for p.more() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// parseAlternation parses branch ('|' branch)* up to ')' or end of input.
func (p *parser) parseAlternation() (*Node, error) {
	start := p.pos
	var branches []*Node
	for {
		b, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
		if p.more() && p.src[p.pos] == '|' {
			p.pos++
			continue
		}
		break
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	return &Node{Op: OpAlternate, Pos: start, End: p.pos, Flags: p.flags, Sub: branches}, nil
}

// parseConcat parses a sequence of quantified atoms.
func (p *parser) parseConcat() (*Node, error) {
	start := p.pos
	var items []*Node
	for {
		p.skipExtended()
		if !p.more() || p.src[p.pos] == '|' || p.src[p.pos] == ')' {
			break
		}
		// An option switch such as (?i) covers the rest of the enclosing
		// group, alternatives included: a(?i)b|c reads as a(?i:b|c).
		if flags, n, ok := p.inlineOptions(); ok {
			p.pos += n
			saved := p.flags
			p.flags = flags
			rest, err := p.parseAlternation()
			p.flags = saved
			if err != nil {
				return nil, err
			}
			items = append(items, rest)
			break
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if atom == nil {
			continue
		}
		atom, err = p.parseRepeat(atom)
		if err != nil {
			return nil, err
		}
		items = appendItem(items, atom)
	}
	switch len(items) {
	case 0:
		return &Node{Op: OpEmpty, Pos: start, End: p.pos, Flags: p.flags}, nil
	case 1:
		return items[0], nil
	}
	return &Node{Op: OpConcat, Pos: start, End: p.pos, Flags: p.flags, Sub: items}, nil
}

// appendItem appends n to a concatenation, merging adjacent literals.
func appendItem(items []*Node, n *Node) []*Node {
	if n.Op == OpLiteral && len(items) > 0 {
		last := items[len(items)-1]
		if last.Op == OpLiteral && last.Flags == n.Flags {
			last.Runes = append(last.Runes, n.Runes...)
			last.End = n.End
			return items
		}
	}
	return append(items, n)
}

// inlineOptions recognizes an option switch "(?imx-imx)" at the current
// position and returns the resulting flags and its length.
func (p *parser) inlineOptions() (Flags, int, bool) {
	if !p.lookingAt("(?") {
		return 0, 0, false
	}
	flags, n, term, ok := parseOptions(p.src[p.pos+2:], p.flags)
	if !ok || term != ')' {
		return 0, 0, false
	}
	return flags, n + 3, true
}

// parseOptions reads "[imx]*(-[imx]*)?" followed by ')' or ':'. It returns
// the updated flags, the bytes consumed before the terminator, and the
// terminator itself.
func parseOptions(s string, flags Flags) (Flags, int, byte, bool) {
	on := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '-':
			if !on {
				return 0, 0, 0, false
			}
			on = false
		case c == ')' || c == ':':
			if i == 0 {
				return 0, 0, 0, false
			}
			return flags, i, c, true
		default:
			f, ok := optionFlag(c)
			if !ok {
				return 0, 0, 0, false
			}
			if on {
				flags |= f
			} else {
				flags &^= f
			}
		}
	}
	return 0, 0, 0, false
}

// parseAtom parses one unquantified construct. It returns a nil node for
// comments.
func (p *parser) parseAtom() (*Node, error) {
	start := p.pos
	switch c := p.src[p.pos]; c {
	case '(':
		return p.parseGroup()
	case '[':
		set, err := p.parseClass(0)
		if err != nil {
			return nil, err
		}
		n := p.classNode(start, set)
		// Members of a positive bracket class also match their multi-rune
		// folding under /i.
		if p.flags&IgnoreCase != 0 && !strings.HasPrefix(p.src[start+1:], "^") {
			n.Folds = set.Intersect(charset.MultiFoldRunes())
		}
		return n, nil
	case '.':
		p.pos++
		return p.classNode(start, charset.Dot(p.flags&Multiline != 0)), nil
	case '^':
		p.pos++
		return p.anchor(start, AnchorBeginLine), nil
	case '$':
		p.pos++
		return p.anchor(start, AnchorEndLine), nil
	case '\\':
		return p.parseEscape()
	case '*', '+', '?':
		return nil, p.error(ErrMissingRepeatArgument, start)
	case '{':
		if _, ok := p.interval(); ok {
			return nil, p.error(ErrMissingRepeatArgument, start)
		}
		p.pos++
		return p.literal(start, '{'), nil
	}
	r := p.next()
	return p.literal(start, r), nil
}

func (p *parser) literal(start int, runes ...rune) *Node {
	return &Node{Op: OpLiteral, Pos: start, End: p.pos, Flags: p.flags, Runes: runes}
}

func (p *parser) classNode(start int, set charset.Set) *Node {
	return &Node{Op: OpCharClass, Pos: start, End: p.pos, Flags: p.flags, Class: set}
}

func (p *parser) anchor(start int, kind Anchor) *Node {
	return &Node{Op: OpAnchor, Pos: start, End: p.pos, Flags: p.flags, Anchor: kind}
}

// fold applies case folding to a positive set when /i is in effect.
func (p *parser) fold(set charset.Set) charset.Set {
	if p.flags&IgnoreCase != 0 {
		return set.Fold()
	}
	return set
}

// interval describes a {n,m} repeat.
type interval struct {
	min, max int
	exact    bool // {n}
	n        int  // bytes consumed
}

// interval recognizes {n}, {n,}, {,m} and {n,m} at the current position.
// Anything else is not an interval and the brace is a literal.
func (p *parser) interval() (interval, bool) {
	s := p.src[p.pos:]
	if len(s) == 0 || s[0] != '{' {
		return interval{}, false
	}
	i := 1
	lo, nlo := scanInt(s[i:])
	i += nlo
	if i < len(s) && s[i] == '}' {
		if nlo == 0 {
			return interval{}, false
		}
		return interval{min: lo, max: lo, exact: true, n: i + 1}, true
	}
	if i >= len(s) || s[i] != ',' {
		return interval{}, false
	}
	i++
	hi, nhi := scanInt(s[i:])
	i += nhi
	if i >= len(s) || s[i] != '}' || (nlo == 0 && nhi == 0) {
		return interval{}, false
	}
	if nhi == 0 {
		hi = -1
	}
	return interval{min: lo, max: hi, n: i + 1}, true
}

// scanInt reads a decimal number, saturating just above maxRepeat.
func scanInt(s string) (int, int) {
	v, n := 0, 0
	for n < len(s) && isDigit(s[n]) {
		if v <= maxRepeat {
			v = v*10 + int(s[n]-'0')
		}
		n++
	}
	return v, n
}

// parseRepeat applies any quantifiers following atom.
func (p *parser) parseRepeat(atom *Node) (*Node, error) {
	for {
		p.skipExtended()
		if !p.more() {
			return atom, nil
		}
		start := p.pos
		var (
			min, max int
			brace    bool
			exact    bool
		)
		switch p.src[p.pos] {
		case '*':
			min, max = 0, -1
			p.pos++
		case '+':
			min, max = 1, -1
			p.pos++
		case '?':
			min, max = 0, 1
			p.pos++
		case '{':
			iv, ok := p.interval()
			if !ok {
				return atom, nil
			}
			min, max, exact, brace = iv.min, iv.max, iv.exact, true
			p.pos += iv.n
		default:
			return atom, nil
		}

		if atom.Op == OpAnchor || atom.Op == OpLookaround {
			return nil, p.error(ErrInvalidRepeatTarget, start)
		}
		if min > maxRepeat || max > maxRepeat {
			return nil, p.error(ErrInvalidRepeatSize, start)
		}
		if max >= 0 && min > max {
			return nil, p.error(ErrInvalidRepeatRange, start)
		}

		// In Ruby {n}? is an optional {n}, and {n,m}+ is a nested greedy
		// repeat; only the single-character operators take a possessive +.
		mode := Greedy
		if p.more() {
			switch p.src[p.pos] {
			case '?':
				if !exact {
					mode = Lazy
					p.pos++
				}
			case '+':
				if !brace {
					mode = Possessive
					p.pos++
				}
			}
		}
		atom = &Node{
			Op:    OpQuantifier,
			Pos:   atom.Pos,
			End:   p.pos,
			Flags: p.flags,
			Sub:   []*Node{atom},
			Min:   min,
			Max:   max,
			Mode:  mode,
		}
	}
}

// parseGroup parses a parenthesized construct starting at '('.
func (p *parser) parseGroup() (*Node, error) {
	start := p.pos
	p.pos++
	if !p.lookingAt("?") {
		return p.groupBody(p.openCapture(""), start)
	}
	p.pos++
	if !p.more() {
		return nil, p.error(ErrMissingParen, start)
	}

	switch c := p.src[p.pos]; c {
	case ':':
		p.pos++
		return p.groupBody(&Node{Op: OpGroup, Group: GroupNonCapture}, start)
	case '>':
		p.pos++
		return p.groupBody(&Node{Op: OpGroup, Group: GroupAtomic}, start)
	case '~':
		p.pos++
		return p.groupBody(&Node{Op: OpGroup, Group: GroupAbsent}, start)
	case '=', '!':
		p.pos++
		return p.groupBody(&Node{Op: OpLookaround, Negative: c == '!'}, start)
	case '<':
		if p.lookingAt("<=") || p.lookingAt("<!") {
			neg := p.src[p.pos+1] == '!'
			p.pos += 2
			return p.groupBody(&Node{Op: OpLookaround, Behind: true, Negative: neg}, start)
		}
		p.pos++
		name, err := p.groupName('>')
		if err != nil {
			return nil, err
		}
		return p.groupBody(p.openCapture(name), start)
	case '\'':
		p.pos++
		name, err := p.groupName('\'')
		if err != nil {
			return nil, err
		}
		return p.groupBody(p.openCapture(name), start)
	case '#':
		end := strings.IndexByte(p.src[p.pos:], ')')
		if end < 0 {
			return nil, p.error(ErrMissingParen, start)
		}
		p.pos += end + 1
		return nil, nil
	case '(':
		return p.parseConditional(start)
	}

	flags, n, term, ok := parseOptions(p.src[p.pos:], p.flags)
	if !ok || term != ':' {
		return nil, p.error(ErrUndefinedGroupOption, start)
	}
	p.pos += n + 1
	saved := p.flags
	p.flags = flags
	g, err := p.groupBody(&Node{Op: OpGroup, Group: GroupNonCapture}, start)
	p.flags = saved
	return g, err
}

// openCapture registers a capture candidate. Unnamed groups stop capturing
// when the pattern also has named groups; finish renumbers them.
func (p *parser) openCapture(name string) *Node {
	g := &Node{Op: OpGroup, Group: GroupCapture, Name: name}
	p.groups = append(p.groups, g)
	g.Index = len(p.groups)
	return g
}

// groupBody parses the body of g up to and including the closing paren.
func (p *parser) groupBody(g *Node, start int) (*Node, error) {
	p.depth++
	if p.depth > maxNesting {
		return nil, p.error(ErrNestingDepth, start)
	}
	flags := p.flags
	body, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if !p.more() || p.src[p.pos] != ')' {
		return nil, p.error(ErrMissingParen, start)
	}
	p.pos++
	p.depth--
	g.Pos, g.End, g.Flags, g.Sub = start, p.pos, flags, []*Node{body}
	return g, nil
}

// groupName reads a group name terminated by term.
func (p *parser) groupName(term byte) (string, error) {
	start := p.pos
	end := strings.IndexByte(p.src[p.pos:], term)
	if end < 0 {
		return "", p.error(ErrInvalidGroupName, start)
	}
	name := p.src[p.pos : p.pos+end]
	if !validName(name) {
		return "", p.error(ErrInvalidGroupName, start)
	}
	p.pos += end + 1
	return name, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// parseConditional parses (?(cond)yes|no); p.pos is at the inner '('.
func (p *parser) parseConditional(start int) (*Node, error) {
	p.pos++
	end := strings.IndexByte(p.src[p.pos:], ')')
	if end < 0 {
		return nil, p.error(ErrInvalidConditional, start)
	}
	spec := p.src[p.pos : p.pos+end]
	if len(spec) >= 2 && (spec[0] == '<' && spec[len(spec)-1] == '>' ||
		spec[0] == '\'' && spec[len(spec)-1] == '\'') {
		spec = spec[1 : len(spec)-1]
	}
	ref, ok := parseRefSpec(spec, false, false)
	if !ok {
		return nil, p.error(ErrInvalidConditional, start)
	}
	p.pos += end + 1

	cond := &Node{Op: OpConditional, Ref: ref}
	p.addRef(cond, refCond)
	g, err := p.groupBody(cond, start)
	if err != nil {
		return nil, err
	}
	body := g.Sub[0]
	switch {
	case body.Op != OpAlternate:
		g.Sub = []*Node{body, {Op: OpEmpty, Pos: g.End - 1, End: g.End - 1, Flags: g.Flags}}
	case len(body.Sub) > 2:
		return nil, p.error(ErrInvalidConditional, start)
	default:
		g.Sub = body.Sub
	}
	return g, nil
}

func (p *parser) addRef(n *Node, kind refKind) {
	p.refs = append(p.refs, pendingRef{node: n, kind: kind, opened: len(p.groups)})
}
