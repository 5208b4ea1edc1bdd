package analysis

import (
	"github.com/coregx/redoscheck/charset"
	"github.com/coregx/redoscheck/literal"
	"github.com/coregx/redoscheck/syntax"
)

// maxLoops bounds the repetitions tracked individually at the start or end
// of a sub-pattern. Further ones are merged into a character set.
const maxLoops = 16

// lenCap saturates minimum lengths; maximum lengths overflow to unbounded.
const lenCap = 1 << 30

const (
	detailRepetition = "repetition can split the same text in more than one way"
	detailAdjacent   = "adjacent repetitions can match the same text"
)

// summary over-approximates the strings a node can match.
//
// The rune sets describe positions within one match: first and last hold
// the possible first and last characters, head the characters at a
// position that is not the last one, tail the characters at a position that
// is not the first one, and chars every character.
type summary struct {
	nullable bool
	minLen   int
	maxLen   int // -1 when unbounded

	first, last charset.Set
	head, tail  charset.Set
	chars       charset.Set

	// ambiguous is set when some string may have more than one derivation.
	ambiguous bool
	// atomic is set when the node matches in at most one way from a given
	// position, so backtracking never retries it.
	atomic bool

	// loopHead holds the unbounded repetitions that can match at the start
	// of the node, loopTail those that can match at the end and give text
	// back to what follows.
	loopHead, loopTail loopSet
}

// loopSet is a small set of unbounded quantifier nodes. Loops past maxLoops
// only contribute the characters of their bodies to spill.
type loopSet struct {
	loops []*syntax.Node
	spill charset.Set
}

func (s loopSet) isEmpty() bool {
	return len(s.loops) == 0 && s.spill.IsEmpty()
}

func emptySummary() *summary {
	return &summary{nullable: true, atomic: true}
}

// unknownSummary describes a node whose language is not modelled.
func unknownSummary() *summary {
	return &summary{
		nullable:  true,
		maxLen:    -1,
		first:     charset.Any(),
		last:      charset.Any(),
		head:      charset.Any(),
		tail:      charset.Any(),
		chars:     charset.Any(),
		ambiguous: true,
	}
}

// analyzer resolves Deferred tags. It is used for a single pattern.
type analyzer struct {
	lits *literal.Extractor
	sums map[*syntax.Node]*summary
	tags Tags
}

// Resolve replaces every Deferred tag in tags with Linear or NonLinear.
//
// Nodes are visited children first. A Deferred node takes the first
// NonLinear tag of its children; otherwise it is NonLinear with
// AmbiguousRepetition when one of these holds:
//   - it is a repeating quantifier whose body can split some text into
//     iterations in more than one way
//   - it is a concatenation where a repetition that can give back text is
//     followed by a repetition that can consume that text
//
// Everything else resolves to Linear. The checks are conservative: when the
// summaries cannot rule out ambiguity, the node is NonLinear.
func Resolve(pat *syntax.Pattern, tags Tags, config literal.ExtractorConfig) {
	a := &analyzer{
		lits: literal.New(config),
		sums: make(map[*syntax.Node]*summary),
		tags: tags,
	}
	syntax.PostOrder(pat.Root, a.visit)
}

func (a *analyzer) visit(n *syntax.Node) {
	s, risk := a.summarize(n)
	a.sums[n] = s

	if a.tags[n].Kind != Deferred {
		return
	}
	for _, sub := range n.Sub {
		if t := a.tags[sub]; t.Kind == NonLinear {
			a.tags[n] = t
			return
		}
	}
	if risk != "" {
		a.tags[n] = nonLinear(AmbiguousRepetition, n, risk)
		return
	}
	a.tags[n] = linear()
}

// summarize computes the summary of n from its children and reports the
// detail of a backtracking risk found at n, if any.
func (a *analyzer) summarize(n *syntax.Node) (*summary, string) {
	var (
		s    *summary
		risk string
	)
	switch n.Op {
	case syntax.OpEmpty, syntax.OpAnchor, syntax.OpLookaround:
		return emptySummary(), ""
	case syntax.OpLiteral:
		return literalSummary(n), ""
	case syntax.OpCharClass:
		cs := &summary{
			minLen: 1,
			maxLen: 1,
			first:  n.Class,
			last:   n.Class,
			chars:  n.Class,
			atomic: true,
		}
		if n.MultiFold() {
			widenFolds(cs, n, 1)
		}
		return cs, ""
	case syntax.OpConcat:
		s, risk = a.concat(n)
	case syntax.OpAlternate:
		s = a.alternate(n)
	case syntax.OpQuantifier:
		s, risk = a.quantifier(n)
	case syntax.OpGroup:
		s = a.group(n)
	default:
		return unknownSummary(), ""
	}

	if lang, ok := a.lits.Language(n); ok {
		s.ambiguous = lang.HasDuplicates()
	}
	return s, risk
}

func literalSummary(n *syntax.Node) *summary {
	size := len(n.Runes)
	if size == 0 {
		return emptySummary()
	}
	s := &summary{
		minLen: size,
		maxLen: size,
		first:  n.RuneSet(0),
		last:   n.RuneSet(size - 1),
		atomic: true,
	}
	for i := 0; i < size; i++ {
		set := n.RuneSet(i)
		s.chars = s.chars.Union(set)
		if i < size-1 {
			s.head = s.head.Union(set)
		}
		if i > 0 {
			s.tail = s.tail.Union(set)
		}
	}
	if n.MultiFold() {
		widenFolds(s, n, size)
	}
	return s
}

// widenFolds extends the summary of a literal or class of size runes that
// matches through multi-rune case foldings. Each rune may stand for up to
// charset.MaxFullFold runes of text and as many runes may fold to one, so
// only the widened sets and lengths are known.
func widenFolds(s *summary, n *syntax.Node, size int) {
	rel := n.FoldRelated()
	s.minLen = (size + charset.MaxFullFold - 1) / charset.MaxFullFold
	s.maxLen = size * charset.MaxFullFold
	s.first = s.first.Union(rel)
	s.last = s.last.Union(rel)
	s.head = s.head.Union(rel).Union(s.chars)
	s.tail = s.tail.Union(rel).Union(s.chars)
	s.chars = s.chars.Union(rel)
	s.atomic = false
}

func (a *analyzer) concat(n *syntax.Node) (*summary, string) {
	if len(n.Sub) == 0 {
		return emptySummary(), ""
	}
	risk := ""
	acc := a.sums[n.Sub[0]]
	for _, sub := range n.Sub[1:] {
		next := a.sums[sub]
		if risk == "" && a.overlap(acc.loopTail, next.loopHead) {
			risk = detailAdjacent
		}
		acc = a.seq(acc, next)
	}
	return acc, risk
}

// seq returns the summary of x followed by y.
func (a *analyzer) seq(x, y *summary) *summary {
	s := &summary{
		nullable: x.nullable && y.nullable,
		minLen:   addMin(x.minLen, y.minLen),
		maxLen:   addMax(x.maxLen, y.maxLen),
		first:    x.first,
		last:     y.last,
		head:     x.head.Union(y.head),
		tail:     x.tail.Union(y.tail),
		chars:    x.chars.Union(y.chars),
		atomic:   x.atomic && y.atomic,
		loopHead: x.loopHead,
		loopTail: y.loopTail,
	}
	if x.nullable {
		s.first = s.first.Union(y.first)
		s.loopHead = a.mergeLoops(x.loopHead, y.loopHead)
	}
	if y.nullable {
		s.last = s.last.Union(x.last)
		s.loopTail = a.mergeLoops(y.loopTail, x.loopTail)
	}
	if y.maxLen != 0 {
		s.head = s.head.Union(x.chars)
	}
	if x.maxLen != 0 {
		s.tail = s.tail.Union(y.chars)
	}

	// Two splits of one string differ by a piece z that x can take or leave
	// to y. Both sides then need a variable length, and z starts y's part
	// while lying past the start of x's part unless x matched nothing.
	s.ambiguous = x.ambiguous || y.ambiguous
	if !s.ambiguous && x.minLen != x.maxLen && y.minLen != y.maxLen {
		given := x.tail
		if x.minLen == 0 {
			given = x.chars
		}
		s.ambiguous = given.Intersects(y.first)
	}
	return s
}

func (a *analyzer) alternate(n *syntax.Node) *summary {
	if len(n.Sub) == 0 {
		return emptySummary()
	}
	s := &summary{minLen: lenCap}
	for _, sub := range n.Sub {
		b := a.sums[sub]
		s.nullable = s.nullable || b.nullable
		s.minLen = min(s.minLen, b.minLen)
		if s.maxLen >= 0 && (b.maxLen < 0 || b.maxLen > s.maxLen) {
			s.maxLen = b.maxLen
		}
		s.first = s.first.Union(b.first)
		s.last = s.last.Union(b.last)
		s.head = s.head.Union(b.head)
		s.tail = s.tail.Union(b.tail)
		s.chars = s.chars.Union(b.chars)
		s.loopHead = a.mergeLoops(s.loopHead, b.loopHead)
		s.loopTail = a.mergeLoops(s.loopTail, b.loopTail)
		s.ambiguous = s.ambiguous || b.ambiguous
	}
	if len(n.Sub) == 1 {
		s.atomic = a.sums[n.Sub[0]].atomic
	}

	// A string matched by two branches shares their first and last
	// characters and a length; the empty string needs both to be nullable.
	for i := 0; i < len(n.Sub) && !s.ambiguous; i++ {
		x := a.sums[n.Sub[i]]
		for _, sub := range n.Sub[i+1:] {
			y := a.sums[sub]
			if x.nullable && y.nullable ||
				x.first.Intersects(y.first) && x.last.Intersects(y.last) && lengthsOverlap(x, y) {
				s.ambiguous = true
				break
			}
		}
	}
	return s
}

func (a *analyzer) quantifier(n *syntax.Node) (*summary, string) {
	b := a.sums[n.Sub[0]]
	if n.Max == 0 {
		return emptySummary(), ""
	}
	s := &summary{
		nullable: n.Min == 0 || b.nullable,
		minLen:   mulMin(b.minLen, n.Min),
		maxLen:   mulMax(b.maxLen, n.Max),
		first:    b.first,
		last:     b.last,
		head:     b.head,
		tail:     b.tail,
		chars:    b.chars,
		loopHead: b.loopHead,
		loopTail: b.loopTail,
	}
	if n.Max != 1 {
		s.tail = s.tail.Union(b.chars)
		if b.maxLen != 0 {
			s.head = s.head.Union(b.chars)
		}
	}
	if n.Unbounded() {
		s.loopHead = a.addLoop(s.loopHead, n)
		s.loopTail = a.addLoop(s.loopTail, n)
	}

	if n.Mode == syntax.Possessive {
		s.loopTail = loopSet{}
		s.atomic = true
		return s, ""
	}

	risk := ""
	if n.Max < 0 || n.Max > 1 {
		if !a.uniqueIterations(n, b) {
			risk = detailRepetition
		}
	} else {
		s.atomic = n.Min == 1 && b.atomic
	}
	s.ambiguous = b.ambiguous || n.Min == 0 && b.nullable || risk != ""
	return s, risk
}

// uniqueIterations reports whether any text can be split into iterations of
// the body of the repetition n in at most one way.
func (a *analyzer) uniqueIterations(n *syntax.Node, b *summary) bool {
	switch {
	case b.maxLen == 0:
		// Only empty iterations; the matcher stops on them.
		return true
	case b.atomic:
		return true
	case b.nullable, b.ambiguous:
		return false
	case b.minLen == b.maxLen:
		return true
	case !b.first.Intersects(b.tail):
		// An iteration boundary cannot fall inside another iteration.
		return true
	case !b.last.Intersects(b.head):
		return true
	}
	lang, ok := a.lits.Language(n.Sub[0])
	if !ok {
		return false
	}
	free, err := literal.PrefixFree(lang)
	return err == nil && free
}

func (a *analyzer) group(n *syntax.Node) *summary {
	switch n.Group {
	case syntax.GroupCapture, syntax.GroupNonCapture:
		s := *a.sums[n.Sub[0]]
		return &s
	case syntax.GroupAtomic:
		s := *a.sums[n.Sub[0]]
		s.loopTail = loopSet{}
		s.ambiguous = false
		s.atomic = true
		return &s
	}
	return unknownSummary()
}

// overlap reports whether a repetition in tails can give back text that a
// repetition in heads can consume.
func (a *analyzer) overlap(tails, heads loopSet) bool {
	if tails.isEmpty() || heads.isEmpty() {
		return false
	}
	for _, q := range tails.loops {
		for _, r := range heads.loops {
			if _, ne := fits(q.Sub[0], a.sums[r.Sub[0]].chars); ne {
				return true
			}
		}
		if !heads.spill.IsEmpty() {
			if _, ne := fits(q.Sub[0], heads.spill); ne {
				return true
			}
		}
	}
	if tails.spill.IsEmpty() {
		return false
	}
	for _, r := range heads.loops {
		if tails.spill.Intersects(a.sums[r.Sub[0]].chars) {
			return true
		}
	}
	return tails.spill.Intersects(heads.spill)
}

func (a *analyzer) addLoop(s loopSet, q *syntax.Node) loopSet {
	return a.mergeLoops(s, loopSet{loops: []*syntax.Node{q}})
}

// mergeLoops returns the union of x and y without modifying either.
func (a *analyzer) mergeLoops(x, y loopSet) loopSet {
	if y.isEmpty() {
		return x
	}
	if x.isEmpty() {
		return y
	}
	out := loopSet{
		loops: make([]*syntax.Node, 0, min(len(x.loops)+len(y.loops), maxLoops)),
		spill: x.spill.Union(y.spill),
	}
	for _, list := range [2][]*syntax.Node{x.loops, y.loops} {
		for _, q := range list {
			switch {
			case containsNode(out.loops, q):
			case len(out.loops) < maxLoops:
				out.loops = append(out.loops, q)
			default:
				out.spill = out.spill.Union(a.sums[q.Sub[0]].chars)
			}
		}
	}
	return out
}

func containsNode(list []*syntax.Node, n *syntax.Node) bool {
	for _, m := range list {
		if m == n {
			return true
		}
	}
	return false
}

// fits reports whether n can match some string made only of characters in
// c, and whether it can match a non-empty one.
func fits(n *syntax.Node, c charset.Set) (possible, nonEmpty bool) {
	switch n.Op {
	case syntax.OpEmpty, syntax.OpAnchor, syntax.OpLookaround:
		return true, false
	case syntax.OpLiteral:
		if n.MultiFold() {
			ok := n.FoldRelated().Intersects(c)
			for i := range n.Runes {
				ok = ok || n.RuneSet(i).Intersects(c)
			}
			return ok, ok
		}
		for i := range n.Runes {
			if !n.RuneSet(i).Intersects(c) {
				return false, false
			}
		}
		return true, len(n.Runes) > 0
	case syntax.OpCharClass:
		ok := n.Class.Intersects(c) || n.FoldRelated().Intersects(c)
		return ok, ok
	case syntax.OpConcat:
		for _, sub := range n.Sub {
			p, ne := fits(sub, c)
			if !p {
				return false, false
			}
			nonEmpty = nonEmpty || ne
		}
		return true, nonEmpty
	case syntax.OpAlternate:
		for _, sub := range n.Sub {
			p, ne := fits(sub, c)
			possible = possible || p
			nonEmpty = nonEmpty || ne
		}
		return possible, nonEmpty
	case syntax.OpQuantifier:
		if n.Max == 0 {
			return true, false
		}
		p, ne := fits(n.Sub[0], c)
		return n.Min == 0 || p, ne
	case syntax.OpGroup:
		if n.Group != syntax.GroupAbsent {
			return fits(n.Sub[0], c)
		}
	}
	return true, true
}

func lengthsOverlap(x, y *summary) bool {
	if x.maxLen >= 0 && x.maxLen < y.minLen {
		return false
	}
	if y.maxLen >= 0 && y.maxLen < x.minLen {
		return false
	}
	return true
}

func addMin(x, y int) int {
	return min(x+y, lenCap)
}

func addMax(x, y int) int {
	if x < 0 || y < 0 || x+y > lenCap {
		return -1
	}
	return x + y
}

func mulMin(x, k int) int {
	if x == 0 || k == 0 {
		return 0
	}
	if x > lenCap/k {
		return lenCap
	}
	return x * k
}

func mulMax(x, k int) int {
	if x == 0 || k == 0 {
		return 0
	}
	if x < 0 || k < 0 || x > lenCap/k {
		return -1
	}
	return x * k
}
