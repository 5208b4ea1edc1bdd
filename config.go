package redoscheck

import (
	"errors"

	"github.com/coregx/redoscheck/literal"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("redoscheck: invalid config")

// ErrPatternTooLong reports a pattern longer than Config.MaxPatternLen.
var ErrPatternTooLong = errors.New("redoscheck: pattern too long")

// Config bounds the work done for one pattern.
//
// The literal limits control how far the analyzer enumerates finite
// languages when it tries to prove a repetition unambiguous. Lower limits
// make analysis cheaper and more conservative: a repetition that cannot be
// proven safe is reported as non-linear.
//
// Example:
//
//	config := redoscheck.DefaultConfig()
//	config.MaxPatternLen = 4096
//	res := redoscheck.AnalyzeWithConfig(src, 0, config)
type Config struct {
	// MaxPatternLen is the longest pattern source accepted, in bytes.
	// Longer patterns are Unanalyzable. Default: 65536
	MaxPatternLen int

	// MaxLiterals limits the number of strings in one enumerated language.
	// Default: 64
	MaxLiterals int

	// MaxLiteralLen limits the byte length of each enumerated string.
	// Default: 64
	MaxLiteralLen int

	// MaxClassSize is the largest character class expanded to its members.
	// Default: 10
	MaxClassSize int

	// MaxRepeatExpand is the largest repetition bound that is unrolled.
	// Default: 8
	MaxRepeatExpand int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	lits := literal.DefaultConfig()
	return Config{
		MaxPatternLen:   64 << 10,
		MaxLiterals:     lits.MaxLiterals,
		MaxLiteralLen:   lits.MaxLiteralLen,
		MaxClassSize:    lits.MaxClassSize,
		MaxRepeatExpand: lits.MaxRepeat,
	}
}

// Validate checks that every limit is in range.
//
// Valid ranges:
//   - MaxPatternLen: 1 to 1,048,576
//   - MaxLiterals: 1 to 10,000
//   - MaxLiteralLen: 1 to 1,024
//   - MaxClassSize: 1 to 256
//   - MaxRepeatExpand: 1 to 64
func (c Config) Validate() error {
	checks := []struct {
		field    string
		value    int
		max      int
		maxLabel string
	}{
		{"MaxPatternLen", c.MaxPatternLen, 1 << 20, "1,048,576"},
		{"MaxLiterals", c.MaxLiterals, 10_000, "10,000"},
		{"MaxLiteralLen", c.MaxLiteralLen, 1_024, "1,024"},
		{"MaxClassSize", c.MaxClassSize, 256, "256"},
		{"MaxRepeatExpand", c.MaxRepeatExpand, 64, "64"},
	}
	for _, chk := range checks {
		if chk.value < 1 || chk.value > chk.max {
			return &ConfigError{
				Field:   chk.field,
				Message: "must be between 1 and " + chk.maxLabel,
			}
		}
	}
	return nil
}

func (c Config) extractor() literal.ExtractorConfig {
	return literal.ExtractorConfig{
		MaxLiterals:   c.MaxLiterals,
		MaxLiteralLen: c.MaxLiteralLen,
		MaxClassSize:  c.MaxClassSize,
		MaxRepeat:     c.MaxRepeatExpand,
	}
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "redoscheck: invalid config: " + e.Field + ": " + e.Message
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
