package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/syntax"
)

// resultJSON is the wire form of a redoscheck.Result, shared by the analyze
// command and the HTTP API.
type resultJSON struct {
	Pattern   string            `json:"pattern"`
	Flags     string            `json:"flags,omitempty"`
	Status    redoscheck.Status `json:"status"`
	Reason    string            `json:"reason,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Position  *int              `json:"position,omitempty"`
	Construct string            `json:"construct,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func newResultJSON(pattern string, flags syntax.Flags, res redoscheck.Result) resultJSON {
	out := resultJSON{
		Pattern: pattern,
		Flags:   flags.String(),
		Status:  res.Status,
	}
	switch res.Status {
	case redoscheck.StatusNonLinear:
		out.Reason = res.Reason.String()
		out.Detail = res.Detail
		out.Construct = res.Text
		if res.Pos >= 0 {
			pos := res.Pos
			out.Position = &pos
		}
	case redoscheck.StatusUnanalyzable:
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
	}
	return out
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var flags struct {
		options string
		json    bool
	}
	cmd := &cobra.Command{
		Use:   "analyze PATTERN",
		Short: "Analyze a single regexp",
		Long: `Analyze a single regexp in Ruby (Onigmo) syntax.

Examples:
  redoscheck analyze 'foo|bar'
  redoscheck analyze --flags i '(a|A)+b'
  redoscheck analyze --json '("|'\'').+\1'

Exit Codes:
  0 = linear
  1 = non-linear
  2 = unanalyzable or error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := syntax.ParseFlags(flags.options)
			if err != nil {
				return err
			}
			checker, err := redoscheck.NewChecker(a.cfg.checkerConfig())
			if err != nil {
				return err
			}

			pattern := args[0]
			res := checker.Analyze(pattern, opts)
			a.logger.Debug("analyzed pattern",
				"pattern", pattern,
				"status", res.Status.String())

			if flags.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(newResultJSON(pattern, opts, res)); err != nil {
					return err
				}
			} else {
				writeResult(cmd.OutOrStdout(), pattern, res)
			}

			switch res.Status {
			case redoscheck.StatusNonLinear:
				return &exitError{code: ExitOffenses}
			case redoscheck.StatusUnanalyzable:
				return &exitError{code: ExitError}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.options, "flags", "", "regexp options, any of i, m, x")
	cmd.Flags().BoolVar(&flags.json, "json", false, "output as JSON")
	return cmd
}

// writeResult prints res for humans, pointing at the responsible construct:
//
//	non_linear: AmbiguousRepetition: repetition can split the same text in more than one way
//	  (a+)+b
//	  ^
func writeResult(w io.Writer, pattern string, res redoscheck.Result) {
	switch res.Status {
	case redoscheck.StatusLinear:
		fmt.Fprintln(w, res.Status)
	case redoscheck.StatusNonLinear:
		fmt.Fprintf(w, "%s: %s: %s\n", res.Status, res.Reason, res.Detail)
		if res.Pos >= 0 && res.Pos <= len(pattern) && !strings.ContainsAny(pattern, "\n\t") {
			fmt.Fprintf(w, "  %s\n  %s^\n", pattern, strings.Repeat(" ", utf8.RuneCountInString(pattern[:res.Pos])))
		}
	default:
		fmt.Fprintf(w, "%s: %v\n", res.Status, res.Err)
	}
}
