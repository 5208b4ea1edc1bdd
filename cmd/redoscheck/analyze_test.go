package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/redoscheck"
)

func TestAnalyzeCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"linear", []string{"analyze", "foo|bar"}, ExitOK, "linear\n"},
		{"non-linear", []string{"analyze", "(a+)+b"}, ExitOffenses,
			"non_linear: AmbiguousRepetition: repetition can split the same text in more than one way\n  (a+)+b\n  ^\n"},
		{"backreference", []string{"analyze", `x("|').+\1`}, ExitOffenses,
			"non_linear: Backreference: backreference to group 1\n  x(\"|').+\\1\n          ^\n"},
		{"unanalyzable", []string{"analyze", "(unclosed"}, ExitError, "unanalyzable: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, _ := execute(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestAnalyzeCommandJSON(t *testing.T) {
	code, out, _ := execute(t, "analyze", "--json", "--flags", "i", "(a|A)*b")
	assert.Equal(t, ExitOffenses, code)

	var res resultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "(a|A)*b", res.Pattern)
	assert.Equal(t, "i", res.Flags)
	assert.Equal(t, redoscheck.StatusNonLinear, res.Status)
	assert.Equal(t, "AmbiguousRepetition", res.Reason)
	require.NotNil(t, res.Position)
	assert.Equal(t, 0, *res.Position)
}

func TestAnalyzeCommandErrors(t *testing.T) {
	code, _, errOut := execute(t, "analyze", "--flags", "q", "a")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Error:")

	code, _, _ = execute(t, "analyze")
	assert.Equal(t, ExitError, code)

	t.Setenv("REDOSCHECK_MAX_PATTERN_LEN", "3")
	code, out, _ := execute(t, "analyze", "abcd")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "unanalyzable")
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	writeResult(&buf, "é(a+)+", redoscheck.Analyze("é(a+)+", 0))
	// The caret counts runes, not bytes.
	assert.Contains(t, buf.String(), "\n  é(a+)+\n   ^\n")
}
