package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/internal/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, modify func(*fileConfig)) (*gin.Engine, *telemetry.Metrics) {
	t.Helper()
	cfg := defaultFileConfig()
	if modify != nil {
		modify(&cfg)
	}
	metrics := telemetry.New()
	srv, err := newServer(cfg, slog.New(slog.DiscardHandler), metrics)
	require.NoError(t, err)
	return srv.routes(), metrics
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleAnalyze(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus redoscheck.Status
		wantReason string
	}{
		{"linear", `{"pattern": "foo|bar"}`, redoscheck.StatusLinear, ""},
		{"ambiguous", `{"pattern": "(a+)+b"}`, redoscheck.StatusNonLinear, "AmbiguousRepetition"},
		{"call", `{"pattern": "(a)\\g<1>"}`, redoscheck.StatusNonLinear, "SubexpressionCall"},
		{"unanalyzable", `{"pattern": "(unclosed"}`, redoscheck.StatusUnanalyzable, ""},
		{"empty", `{"pattern": ""}`, redoscheck.StatusLinear, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/v1/analyze", tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			var res resultJSON
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantReason, res.Reason)
			if tt.wantStatus == redoscheck.StatusUnanalyzable {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func TestHandleAnalyzeBadRequest(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/v1/analyze", `{"pattern":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")

	w = doRequest(router, http.MethodPost, "/v1/analyze", `{"pattern": "a", "flags": "z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FLAGS")
}

func TestHandleScan(t *testing.T) {
	router, metrics := newTestRouter(t, nil)

	body := `{"file": "app.rb", "source": "A = /foo/\nB = /(a+)+c/\nC = /#{x}(a+)+/\n"}`
	w := doRequest(router, http.MethodPost, "/v1/scan", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Literals)
	require.Len(t, resp.Offenses, 1)
	assert.Equal(t, "app.rb", resp.Offenses[0].Pos.File)
	assert.Equal(t, 2, resp.Offenses[0].Pos.Line)
	assert.Equal(t, "(a+)+c", resp.Offenses[0].Source)

	n, err := testutil.GatherAndCount(metrics.Registry(), "redoscheck_files_scanned_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w = doRequest(router, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), "redoscheck_skipped_total 1")
	assert.Contains(t, w.Body.String(), `redoscheck_files_scanned_total{outcome="offenses"} 1`)
}

func TestHandleScanTooLarge(t *testing.T) {
	router, _ := newTestRouter(t, func(c *fileConfig) { c.MaxFileSize = 8 })

	w := doRequest(router, http.MethodPost, "/v1/scan", `{"source": "A = /foo/\n"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "SOURCE_TOO_LARGE")
}

func TestRequestBodyLimit(t *testing.T) {
	router, _ := newTestRouter(t, func(c *fileConfig) {
		c.MaxFileSize = 8
		c.MaxPatternLen = 3
	})
	huge := strings.Repeat("a", 64<<10)

	w := doRequest(router, http.MethodPost, "/v1/scan", `{"source": "`+huge+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")

	w = doRequest(router, http.MethodPost, "/v1/analyze", `{"pattern": "`+huge+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")

	// Within the body limit an overlong pattern is still reported as a verdict.
	w = doRequest(router, http.MethodPost, "/v1/analyze", `{"pattern": "abcd"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res resultJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, redoscheck.StatusUnanalyzable, res.Status)
}

func TestHandleScanStrict(t *testing.T) {
	body := `{"source": "A = /\\k<nope>/\n"}`

	router, _ := newTestRouter(t, nil)
	w := doRequest(router, http.MethodPost, "/v1/scan", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"offenses":[]`)

	router, _ = newTestRouter(t, func(c *fileConfig) { c.Strict = true })
	w = doRequest(router, http.MethodPost, "/v1/scan", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Regexp could not be analyzed")
}

func TestRequestID(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	doRequest(router, http.MethodPost, "/v1/analyze", `{"pattern": "(a+)+b"}`)
	doRequest(router, http.MethodGet, "/missing", "")

	w := doRequest(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `redoscheck_analyses_total{cached="false",reason="AmbiguousRepetition",status="non_linear"} 1`)
	assert.Contains(t, body, `route="/v1/analyze"`)
	assert.Contains(t, body, `route="unmatched"`)
}
