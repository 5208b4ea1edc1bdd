package redoscheck

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/coregx/redoscheck/analysis"
	"github.com/coregx/redoscheck/syntax"
)

// TestAnalyzeStatus tests the three outcomes
func TestAnalyzeStatus(t *testing.T) {
	tests := []struct {
		pattern string
		flags   syntax.Flags
		status  Status
		reason  analysis.Reason
	}{
		{"foo|bar", 0, StatusLinear, analysis.ReasonNone},
		{"a+", 0, StatusLinear, analysis.ReasonNone},
		{"[^x]*", 0, StatusLinear, analysis.ReasonNone},
		{"(a+)+b", 0, StatusNonLinear, analysis.AmbiguousRepetition},
		{`("|').+\1`, 0, StatusNonLinear, analysis.Backreference},
		{`\A(?<a>|.|(?:(?<b>.)\g<a>\k<b+0>))\z`, 0, StatusNonLinear, analysis.SubexpressionCall},
		{"(?i)a*A*", 0, StatusNonLinear, analysis.AmbiguousRepetition},
		{"(unclosed", 0, StatusUnanalyzable, analysis.ReasonNone},
		{`\k<nope>`, 0, StatusUnanalyzable, analysis.ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			res := Analyze(tt.pattern, tt.flags)
			if res.Status != tt.status {
				t.Fatalf("Status = %v, want %v (err %v)", res.Status, tt.status, res.Err)
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %v, want %v", res.Reason, tt.reason)
			}
			if (res.Err != nil) != (tt.status == StatusUnanalyzable) {
				t.Errorf("Err = %v for status %v", res.Err, res.Status)
			}
		})
	}
}

// TestAnalyzePosition tests the location of the responsible construct
func TestAnalyzePosition(t *testing.T) {
	res := Analyze(`x(a+)+b`, 0)
	if res.Pos != 1 || res.Text != "(a+)+" {
		t.Errorf("Pos = %d, Text = %q, want 1, %q", res.Pos, res.Text, "(a+)+")
	}
	if res := Analyze("abc", 0); res.Pos != -1 || res.Text != "" {
		t.Errorf("linear result Pos = %d, Text = %q", res.Pos, res.Text)
	}
}

// TestAnalyzeErrors tests the sentinel errors of unanalyzable results
func TestAnalyzeErrors(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		res := Analyze("(unclosed", 0)
		if !errors.Is(res.Err, syntax.ErrMalformedPattern) {
			t.Errorf("Err = %v, want ErrMalformedPattern", res.Err)
		}
		var synErr *syntax.Error
		if !errors.As(res.Err, &synErr) {
			t.Fatalf("Err type = %T, want *syntax.Error", res.Err)
		}
		if synErr.Code != syntax.ErrMissingParen {
			t.Errorf("Code = %q", synErr.Code)
		}
	})

	t.Run("unresolved", func(t *testing.T) {
		res := Analyze(`(a)\2`, 0)
		if !errors.Is(res.Err, syntax.ErrUnresolvedReference) {
			t.Errorf("Err = %v, want ErrUnresolvedReference", res.Err)
		}
	})

	t.Run("too long", func(t *testing.T) {
		config := DefaultConfig()
		config.MaxPatternLen = 8
		res := AnalyzeWithConfig(strings.Repeat("a", 9), 0, config)
		if res.Status != StatusUnanalyzable || !errors.Is(res.Err, ErrPatternTooLong) {
			t.Errorf("got %v, %v, want Unanalyzable with ErrPatternTooLong", res.Status, res.Err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		res := AnalyzeWithConfig("a", 0, Config{})
		if !errors.Is(res.Err, ErrInvalidConfig) {
			t.Errorf("Err = %v, want ErrInvalidConfig", res.Err)
		}
	})
}

// TestAnalyzeIdempotent tests that analysis is a pure function
func TestAnalyzeIdempotent(t *testing.T) {
	for _, pattern := range []string{"(a+)+b", "foo|bar", "(x", `(\w+\s?)+$`} {
		first := Analyze(pattern, 0)
		second := Analyze(pattern, 0)
		if first.Status != second.Status || first.Reason != second.Reason ||
			first.Pos != second.Pos || first.Detail != second.Detail {
			t.Errorf("Analyze(%q) not idempotent: %+v vs %+v", pattern, first, second)
		}
	}
}

// TestCheckerConcurrent tests concurrent use of one Checker
func TestCheckerConcurrent(t *testing.T) {
	checker, err := NewChecker(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	patterns := []string{"(a+)+b", "foo|bar", `("|').+\1`, "a*a*", `\d+\.\d+`}
	want := make([]Result, len(patterns))
	for i, p := range patterns {
		want[i] = checker.Analyze(p, 0)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range patterns {
				if got := checker.Analyze(p, 0); got.Status != want[i].Status || got.Reason != want[i].Reason {
					t.Errorf("Analyze(%q) = %v/%v, want %v/%v", p, got.Status, got.Reason, want[i].Status, want[i].Reason)
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewCheckerRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.MaxClassSize = 0
	if _, err := NewChecker(config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewChecker error = %v, want ErrInvalidConfig", err)
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusLinear:       "linear",
		StatusNonLinear:    "non_linear",
		StatusUnanalyzable: "unanalyzable",
		Status(9):          "Status(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
		text, _ := s.MarshalText()
		if string(text) != want {
			t.Errorf("MarshalText() = %q, want %q", text, want)
		}
	}
}

// FuzzAnalyze checks that analysis never panics and is deterministic.
func FuzzAnalyze(f *testing.F) {
	seeds := []string{
		"(a+)+b", "foo|bar", `("|').+\1`, `\g<0>`, "[[:alpha:]&&[^a]]+",
		"(?<n>a)(?(<n>)b|c)", "(?~abc)", `\p{Alpha}*\P{L}`, "a{2,}?x", "(?i:a)*A",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, pattern string) {
		res := Analyze(pattern, 0)
		if res.Status > StatusUnanalyzable {
			t.Fatalf("invalid status %v", res.Status)
		}
		if res.Status == StatusUnanalyzable && res.Err == nil {
			t.Fatal("unanalyzable without error")
		}
		again := Analyze(pattern, 0)
		if again.Status != res.Status || again.Reason != res.Reason || again.Pos != res.Pos {
			t.Fatalf("non-deterministic: %+v vs %+v", res, again)
		}
	})
}
