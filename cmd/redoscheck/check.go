package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/lint"
	"github.com/coregx/redoscheck/rubysrc"
)

// checkReport holds the results of a check run.
type checkReport struct {
	Offenses      []lint.Offense `json:"offenses"`
	FilesScanned  int            `json:"files_scanned"`
	LiteralsFound int            `json:"literals_found"`
	Errors        []fileError    `json:"errors,omitempty"`
	DurationMs    int64          `json:"duration_ms"`
}

type fileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// fileResult is the outcome of scanning one file.
type fileResult struct {
	offenses []lint.Offense
	literals int
	err      error
}

func newCheckCmd(a *app) *cobra.Command {
	var flags struct {
		strict  bool
		json    bool
		workers int
		include []string
		exclude []string
		watch   bool
	}
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Check Ruby sources for non-linear regexp literals",
		Long: `Scan Ruby files for regexp literals that cannot be matched in linear time.

Directories are walked recursively; files named on the command line are
always checked. Interpolated literals are skipped.

Examples:
  redoscheck check
  redoscheck check app lib --exclude "vendor,*_spec.rb"
  redoscheck check --strict --json .
  redoscheck check --watch app

Exit Codes:
  0 = No offenses
  1 = Offenses found
  2 = Error (invalid path, unreadable file)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			set := cmd.Flags()
			if set.Changed("strict") {
				cfg.Strict = flags.strict
			}
			if set.Changed("workers") {
				cfg.Workers = flags.workers
			}
			if set.Changed("include") {
				cfg.Include = flags.include
			}
			if set.Changed("exclude") {
				cfg.Exclude = flags.exclude
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = []string{"."}
			}
			check := func() (*checkReport, error) {
				report, err := runCheck(cmd.Context(), a.logger, cfg, paths)
				if err != nil {
					return nil, err
				}
				if flags.json {
					return report, writeCheckJSON(cmd.OutOrStdout(), report)
				}
				writeCheckText(cmd.OutOrStdout(), cmd.ErrOrStderr(), report)
				return report, nil
			}

			report, err := check()
			if err != nil {
				return err
			}
			if flags.watch {
				w, err := newWatcher(a.logger, paths, cfg.Exclude)
				if err != nil {
					return err
				}
				return w.run(cmd.Context(), func() {
					if _, err := check(); err != nil {
						a.logger.Error("check failed", "error", err)
					}
				})
			}

			switch {
			case len(report.Errors) > 0:
				return &exitError{code: ExitError}
			case len(report.Offenses) > 0:
				return &exitError{code: ExitOffenses}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.strict, "strict", false, "report regexps that cannot be analyzed")
	f.BoolVar(&flags.json, "json", false, "output as JSON")
	f.IntVar(&flags.workers, "workers", 0, "number of files scanned in parallel (0 = GOMAXPROCS)")
	f.StringSliceVar(&flags.include, "include", nil, "only check files matching these globs")
	f.StringSliceVar(&flags.exclude, "exclude", nil, "skip files and directories matching these globs")
	f.BoolVar(&flags.watch, "watch", false, "check again whenever files change, until interrupted")
	return cmd
}

// runCheck scans the files under paths concurrently. Offenses are reported
// in file order, then source order.
func runCheck(ctx context.Context, logger *slog.Logger, cfg fileConfig, paths []string) (*checkReport, error) {
	start := time.Now()

	files, err := collectFiles(paths, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	checker, err := redoscheck.NewChecker(cfg.checkerConfig())
	if err != nil {
		return nil, err
	}
	policy := lint.PolicyPassThrough
	if cfg.Strict {
		policy = lint.PolicyStrict
	}
	cop := lint.New(
		lint.WithAnalyzer(checker),
		lint.WithPolicy(policy),
		lint.WithLogger(logger),
	)
	scanner := rubysrc.NewScanner(
		rubysrc.WithMaxFileSize(cfg.MaxFileSize),
		rubysrc.WithLogger(logger),
	)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger.Info("checking files",
		slog.Int("files", len(files)),
		slog.Int("workers", workers),
		slog.String("policy", policy.String()))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			results[i] = checkFile(gctx, scanner, cop, path)
			if errors.Is(results[i].err, context.Canceled) {
				return results[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &checkReport{Offenses: []lint.Offense{}}
	for i, res := range results {
		if res.err != nil {
			report.Errors = append(report.Errors, fileError{File: files[i], Error: res.err.Error()})
			continue
		}
		report.FilesScanned++
		report.LiteralsFound += res.literals
		report.Offenses = append(report.Offenses, res.offenses...)
	}
	report.DurationMs = time.Since(start).Milliseconds()
	return report, nil
}

func checkFile(ctx context.Context, scanner *rubysrc.Scanner, cop *lint.Cop, path string) fileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return fileResult{err: err}
	}
	lits, err := scanner.Scan(ctx, path, src)
	if err != nil {
		return fileResult{err: err}
	}
	return fileResult{offenses: cop.CheckAll(lits), literals: len(lits)}
}

// collectFiles expands paths into the files to check. Directories are
// walked in lexical order; named files are kept as given.
func collectFiles(paths, include, exclude []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("path not found: %w", err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && matchesAny(path, exclude) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || matchesAny(path, exclude) || !matchesAny(path, include) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return files, nil
}

// matchesAny reports whether path matches one of the globs. A glob with no
// slash is matched against the base name; otherwise against as many
// trailing path elements as the glob has.
func matchesAny(path string, globs []string) bool {
	elems := strings.Split(filepath.ToSlash(path), "/")
	for _, g := range globs {
		n := strings.Count(g, "/") + 1
		if n > len(elems) {
			continue
		}
		if ok, _ := filepath.Match(g, strings.Join(elems[len(elems)-n:], "/")); ok {
			return true
		}
	}
	return false
}

func writeCheckJSON(w io.Writer, report *checkReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeCheckText prints offenses in the usual file:line:col form followed
// by a summary line.
func writeCheckText(out, errOut io.Writer, report *checkReport) {
	for _, off := range report.Offenses {
		fmt.Fprintln(out, off)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(errOut, "%s: %s\n", e.File, e.Error)
	}
	fmt.Fprintf(out, "\n%s inspected, %s detected\n",
		plural(report.FilesScanned, "file"),
		plural(len(report.Offenses), "offense"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
