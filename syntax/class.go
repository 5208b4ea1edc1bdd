package syntax

import (
	"strings"

	"github.com/coregx/redoscheck/charset"
)

// classOperand is one side of a && intersection inside a bracket expression.
type classOperand struct {
	set   charset.Set
	items int
}

// parseClass parses a bracket expression starting at '[' and returns the
// set it matches, with case folding and negation applied.
func (p *parser) parseClass(depth int) (charset.Set, error) {
	start := p.pos
	if depth >= maxNesting {
		return charset.Set{}, p.error(ErrNestingDepth, start)
	}
	p.pos++
	negated := false
	if p.lookingAt("^") {
		negated = true
		p.pos++
	}

	var (
		operands []classOperand
		cur      classOperand
		first    = true
	)
	for {
		if !p.more() {
			return charset.Set{}, p.error(ErrMissingBracket, start)
		}
		c := p.src[p.pos]
		if c == ']' {
			p.pos++
			if first {
				// A leading ']' is literal unless it closes an empty class.
				if strings.IndexByte(p.src[p.pos:], ']') < 0 {
					return charset.Set{}, p.error(ErrEmptyCharClass, start)
				}
				cur.add(charset.Of(']'))
				first = false
				continue
			}
			break
		}
		first = false

		switch {
		case p.lookingAt("&&"):
			p.pos += 2
			operands = append(operands, cur)
			cur = classOperand{}
			continue
		case p.lookingAt("[:"):
			set, ok, err := p.posixBracket()
			if err != nil {
				return charset.Set{}, err
			}
			if ok {
				cur.add(set)
				continue
			}
			fallthrough
		case c == '[':
			set, err := p.parseClass(depth + 1)
			if err != nil {
				return charset.Set{}, err
			}
			cur.add(set)
			continue
		}

		lo, loSet, err := p.classAtom()
		if err != nil {
			return charset.Set{}, err
		}
		if loSet != nil {
			// A '-' after a set such as \d is read as a literal next round.
			cur.add(*loSet)
			continue
		}
		if !p.lookingAt("-") || p.lookingAt("-]") || p.pos+1 >= len(p.src) ||
			p.src[p.pos+1] == '[' || p.lookingAt("-&&") {
			cur.add(charset.Of(lo))
			continue
		}
		p.pos++
		hi, hiSet, err := p.classAtom()
		if err != nil {
			return charset.Set{}, err
		}
		if hiSet != nil {
			return charset.Set{}, p.error(ErrInvalidRangeEnd, start)
		}
		if hi < lo {
			return charset.Set{}, p.error(ErrInvalidCharRange, start)
		}
		cur.add(charset.FromRanges(charset.Range{Lo: lo, Hi: hi}))
	}

	result := cur.value()
	for _, op := range operands {
		result = result.Intersect(op.value())
	}
	result = p.fold(result)
	if negated {
		result = result.Negate()
	}
	return result, nil
}

func (o *classOperand) add(set charset.Set) {
	o.set = o.set.Union(set)
	o.items++
}

// value returns the operand's set. An empty operand of && is universal, so
// [a-z&&] is [a-z].
func (o classOperand) value() charset.Set {
	if o.items == 0 {
		return charset.Any()
	}
	return o.set
}

// classAtom parses one class member. It returns either a single rune or,
// for escapes such as \d and \p{..}, a set.
func (p *parser) classAtom() (rune, *charset.Set, error) {
	start := p.pos
	if p.src[p.pos] != '\\' {
		return p.next(), nil, nil
	}
	p.pos++
	if !p.more() {
		return 0, nil, p.error(ErrMissingBracket, start)
	}
	switch c := p.peek(); c {
	case 'd', 'D', 'w', 'W', 's', 'S', 'h', 'H':
		p.next()
		set := p.shorthand(c)
		return 0, &set, nil
	case 'p', 'P':
		p.next()
		set, err := p.parseProperty(c == 'P', start)
		if err != nil {
			return 0, nil, err
		}
		return 0, &set, nil
	case 'u':
		if p.lookingAt("u{") {
			p.next()
			runes, err := p.codepoints(start)
			if err != nil {
				return 0, nil, err
			}
			if len(runes) == 1 {
				return runes[0], nil, nil
			}
			set := charset.Of(runes...)
			return 0, &set, nil
		}
	}
	r, err := p.escapeRune(start, true)
	return r, nil, err
}

// posixBracket parses [:name:] or [:^name:]. It reports false when the text
// does not have that shape, in which case '[' opens a nested class.
func (p *parser) posixBracket() (charset.Set, bool, error) {
	start := p.pos
	i := p.pos + 2
	negated := false
	if i < len(p.src) && p.src[i] == '^' {
		negated = true
		i++
	}
	nameStart := i
	for i < len(p.src) && isLetter(p.src[i]) {
		i++
	}
	if i == nameStart || i+1 >= len(p.src) || p.src[i] != ':' || p.src[i+1] != ']' {
		return charset.Set{}, false, nil
	}
	set, ok := charset.Posix(p.src[nameStart:i])
	if !ok {
		return charset.Set{}, false, p.error(ErrInvalidPosixBracket, start)
	}
	p.pos = i + 2
	set = p.fold(set)
	if negated {
		set = set.Negate()
	}
	return set, true, nil
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
