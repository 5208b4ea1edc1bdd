package lint

import (
	"log/slog"
	"sync"
	"time"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/syntax"
)

// DefaultMemoSize is the number of verdicts a Cop remembers by default.
const DefaultMemoSize = 4096

// Observer is notified of every literal a Cop handles.
type Observer interface {
	// Analyzed is called once per checked literal; cached is set when the
	// result came from the memo.
	Analyzed(res redoscheck.Result, elapsed time.Duration, cached bool)
	// Skipped is called for literals that are not analyzed.
	Skipped()
}

// Option configures a Cop.
type Option func(*Cop)

// WithAnalyzer replaces the default analyzer, redoscheck.Analyze.
func WithAnalyzer(a Analyzer) Option {
	return func(c *Cop) {
		if a != nil {
			c.analyzer = a
		}
	}
}

// WithPolicy sets the policy for unanalyzable literals.
func WithPolicy(p Policy) Option {
	return func(c *Cop) {
		c.policy = p
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cop) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(c *Cop) {
		c.observer = o
	}
}

// WithMemoSize sets how many verdicts are remembered by (source, flags).
// Zero disables memoization.
func WithMemoSize(n int) Option {
	return func(c *Cop) {
		c.memoSize = max(n, 0)
	}
}

// Cop reports regexp literals that are not linear.
//
// A Cop is safe for concurrent use. Identical patterns are analyzed once
// while they stay in the memo.
type Cop struct {
	analyzer Analyzer
	policy   Policy
	logger   *slog.Logger
	observer Observer

	memoSize int
	mu       sync.Mutex
	memo     map[memoKey]redoscheck.Result
}

type memoKey struct {
	source string
	flags  syntax.Flags
}

// New creates a Cop.
//
// Example:
//
//	cop := lint.New(lint.WithPolicy(lint.PolicyStrict), lint.WithLogger(logger))
func New(opts ...Option) *Cop {
	c := &Cop{
		analyzer: AnalyzerFunc(redoscheck.Analyze),
		logger:   slog.New(slog.DiscardHandler),
		memoSize: DefaultMemoSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.memoSize > 0 {
		c.memo = make(map[memoKey]redoscheck.Result)
	}
	return c
}

// Policy returns the cop's policy for unanalyzable literals.
func (c *Cop) Policy() Policy {
	return c.policy
}

// Check reports an offense for lit, or false if lit is acceptable.
//
// Interpolated literals are never analyzed. A non-linear pattern is always
// an offense; an unanalyzable one only under PolicyStrict.
func (c *Cop) Check(lit Literal) (Offense, bool) {
	if lit.Interpolated {
		c.logger.Debug("skipping interpolated regexp", slog.String("position", lit.Pos.String()))
		if c.observer != nil {
			c.observer.Skipped()
		}
		return Offense{}, false
	}

	res := c.analyze(lit)
	switch res.Status {
	case redoscheck.StatusNonLinear:
		c.logger.Debug("non-linear regexp",
			slog.String("position", lit.Pos.String()),
			slog.String("reason", reasonOf(res).String()),
			slog.String("detail", res.Detail))
		return newOffense(lit, res), true
	case redoscheck.StatusUnanalyzable:
		c.logger.Warn("regexp could not be analyzed",
			slog.String("position", lit.Pos.String()),
			slog.String("policy", c.policy.String()),
			slog.Any("error", res.Err))
		if c.policy == PolicyStrict {
			return newOffense(lit, res), true
		}
	}
	return Offense{}, false
}

// CheckAll checks every literal and returns the offenses in input order.
func (c *Cop) CheckAll(lits []Literal) []Offense {
	var out []Offense
	for _, lit := range lits {
		if off, ok := c.Check(lit); ok {
			out = append(out, off)
		}
	}
	return out
}

func (c *Cop) analyze(lit Literal) redoscheck.Result {
	key := memoKey{source: lit.Source, flags: lit.Flags}
	start := time.Now()

	if c.memo != nil {
		c.mu.Lock()
		res, ok := c.memo[key]
		c.mu.Unlock()
		if ok {
			c.observe(res, time.Since(start), true)
			return res
		}
	}

	res := c.analyzer.Analyze(lit.Source, lit.Flags)
	c.observe(res, time.Since(start), false)

	if c.memo != nil {
		c.mu.Lock()
		if len(c.memo) >= c.memoSize {
			clear(c.memo)
		}
		c.memo[key] = res
		c.mu.Unlock()
	}
	return res
}

func (c *Cop) observe(res redoscheck.Result, elapsed time.Duration, cached bool) {
	if c.observer != nil {
		c.observer.Analyzed(res, elapsed, cached)
	}
}
