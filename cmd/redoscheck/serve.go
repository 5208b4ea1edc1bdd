package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/internal/telemetry"
	"github.com/coregx/redoscheck/lint"
	"github.com/coregx/redoscheck/rubysrc"
	"github.com/coregx/redoscheck/syntax"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second

	// jsonEscapeFactor is the most one byte grows when JSON-encoded (\u00XX).
	jsonEscapeFactor = 6
	// bodySlack covers the JSON object around the encoded string.
	bodySlack = 4 << 10
)

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Pattern string `json:"pattern"`
	// Flags holds regexp options, any of "imx".
	Flags string `json:"flags,omitempty"`
}

// ScanRequest is the body of POST /v1/scan.
type ScanRequest struct {
	// File names the source in reported positions.
	File   string `json:"file,omitempty"`
	Source string `json:"source"`
}

// ScanResponse lists the offenses found in a Ruby source.
type ScanResponse struct {
	Offenses []lint.Offense `json:"offenses"`
	Literals int            `json:"literals"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// server exposes the analyzer over HTTP.
type server struct {
	checker *redoscheck.Checker
	scanner *rubysrc.Scanner
	cop     *lint.Cop
	metrics *telemetry.Metrics
	logger  *slog.Logger

	// Request body limits, derived from max_pattern_len and max_file_size.
	analyzeLimit int64
	scanLimit    int64
}

func newServer(cfg fileConfig, logger *slog.Logger, metrics *telemetry.Metrics) (*server, error) {
	checker, err := redoscheck.NewChecker(cfg.checkerConfig())
	if err != nil {
		return nil, err
	}
	policy := lint.PolicyPassThrough
	if cfg.Strict {
		policy = lint.PolicyStrict
	}
	return &server{
		checker: checker,
		scanner: rubysrc.NewScanner(
			rubysrc.WithMaxFileSize(cfg.MaxFileSize),
			rubysrc.WithLogger(logger),
		),
		cop: lint.New(
			lint.WithAnalyzer(checker),
			lint.WithPolicy(policy),
			lint.WithLogger(logger),
			lint.WithObserver(metrics),
		),
		metrics:      metrics,
		logger:       logger,
		analyzeLimit: bodyLimit(cfg.MaxPatternLen),
		scanLimit:    bodyLimit(cfg.MaxFileSize),
	}, nil
}

// bodyLimit returns the largest request body that can carry a JSON string
// of n bytes.
func bodyLimit(n int) int64 {
	return int64(n)*jsonEscapeFactor + bodySlack
}

// routes builds the gin engine.
//
//	POST /v1/analyze  analyze one pattern
//	POST /v1/scan     check the regexp literals of a Ruby source
//	GET  /healthz     liveness
//	GET  /metrics     Prometheus metrics
func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.instrument())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/analyze", s.handleAnalyze)
	v1.POST("/scan", s.handleScan)
	return r
}

// requestID propagates the caller's X-Request-ID or assigns a new one.
func (s *server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.Request(route, c.Writer.Status())
	}
}

func (s *server) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return s.logger.With("request_id", c.GetString("request_id"), "handler", handler)
}

// bindJSON decodes the request body into v, reading at most limit bytes. On
// failure it writes the error response and returns false.
func (s *server) bindJSON(c *gin.Context, logger *slog.Logger, limit int64, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.Warn("request body too large", "limit", tooLarge.Limit)
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			Code:  "REQUEST_TOO_LARGE",
		})
		return false
	}
	logger.Warn("invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
	return false
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
}

// handleAnalyze handles POST /v1/analyze.
//
// Response:
//
//	200 OK: resultJSON, whatever the verdict
//	400 Bad Request: malformed body or unknown flags
//	413 Request Entity Too Large: body far over max_pattern_len
func (s *server) handleAnalyze(c *gin.Context) {
	logger := s.requestLogger(c, "analyze")

	var req AnalyzeRequest
	if !s.bindJSON(c, logger, s.analyzeLimit, &req) {
		return
	}
	flags, err := syntax.ParseFlags(req.Flags)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_FLAGS"})
		return
	}

	start := time.Now()
	res := s.checker.Analyze(req.Pattern, flags)
	s.metrics.Analyzed(res, time.Since(start), false)

	logger.Debug("analyzed pattern", "status", res.Status.String())
	c.JSON(http.StatusOK, newResultJSON(req.Pattern, flags, res))
}

// handleScan handles POST /v1/scan.
//
// Response:
//
//	200 OK: ScanResponse
//	400 Bad Request: malformed body
//	413 Request Entity Too Large: source over max_file_size
//	500 Internal Server Error: parse failure
func (s *server) handleScan(c *gin.Context) {
	logger := s.requestLogger(c, "scan")

	var req ScanRequest
	if !s.bindJSON(c, logger, s.scanLimit, &req) {
		return
	}
	file := req.File
	if file == "" {
		file = "(request)"
	}

	lits, err := s.scanner.Scan(c.Request.Context(), file, []byte(req.Source))
	if err != nil {
		s.metrics.FileScanned("error")
		status, code := http.StatusInternalServerError, "SCAN_FAILED"
		if errors.Is(err, rubysrc.ErrFileTooLarge) {
			status, code = http.StatusRequestEntityTooLarge, "SOURCE_TOO_LARGE"
		}
		logger.Error("scan failed", "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	offenses := s.cop.CheckAll(lits)
	if offenses == nil {
		offenses = []lint.Offense{}
	}
	outcome := "ok"
	if len(offenses) > 0 {
		outcome = "offenses"
	}
	s.metrics.FileScanned(outcome)

	c.JSON(http.StatusOK, ScanResponse{Offenses: offenses, Literals: len(lits)})
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Long: `Serve the analyzer over HTTP until interrupted.

Endpoints:
  POST /v1/analyze  {"pattern": "(a+)+b", "flags": "i"}
  POST /v1/scan     {"file": "app.rb", "source": "..."}
  GET  /healthz
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			gin.SetMode(gin.ReleaseMode)

			srv, err := newServer(cfg, a.logger, telemetry.New())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), a.logger, cfg.Addr, srv.routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// serve runs handler on addr until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
