// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/scoring"
)

// stubScorer labels by a fixed probability, echoing the normalized URL.
type stubScorer struct {
	probability float64
}

func (s stubScorer) Score(_ context.Context, rawURL, source string) scoring.Result {
	label := scoring.LabelBenign
	if s.probability > 0.5 {
		label = scoring.LabelPhishing
	}
	return scoring.Result{
		URL:         scoring.NormalizeURL(rawURL),
		Probability: s.probability,
		Label:       label,
		Source:      source,
	}
}

type stubMonitor struct{ state string }

func (s stubMonitor) State() string { return s.state }

type stubChannel struct{ depth int64 }

func (s stubChannel) Depth() int64 { return s.depth }

func testRouter(t *testing.T, probability float64, cfg *ChiMiddlewareConfig) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	handler := NewHandler(stubScorer{probability: probability}, stubMonitor{state: "connected"}, stubChannel{depth: 3}, nil, zerolog.Nop())
	router := NewRouter(handler, NewChiMiddleware(cfg), m, "")
	return router.Setup(), m
}

func postPredict(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPredictEndpoint(t *testing.T) {
	t.Run("critical risk above threshold", func(t *testing.T) {
		h, _ := testRouter(t, 0.9, nil)
		rec := postPredict(t, h, `{"url": "secure-bank-login-1.com"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp PredictResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.URL != "secure-bank-login-1.com" {
			t.Errorf("url = %q, want the submitted value echoed", resp.URL)
		}
		if resp.Prediction != "phishing" || resp.RiskLevel != RiskLevelCritical {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("low risk at threshold", func(t *testing.T) {
		// Exactly 0.8 is not strictly greater than the threshold.
		h, _ := testRouter(t, 0.8, nil)
		rec := postPredict(t, h, `{"url": "http://example.org"}`)

		var resp PredictResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.RiskLevel != RiskLevelLow {
			t.Errorf("risk_level = %q, want LOW at exactly 0.8", resp.RiskLevel)
		}
	})

	t.Run("missing url fails validation", func(t *testing.T) {
		h, _ := testRouter(t, 0.5, nil)
		rec := postPredict(t, h, `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Code != "VALIDATION_ERROR" {
			t.Errorf("code = %q", resp.Code)
		}
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		h, _ := testRouter(t, 0.5, nil)
		rec := postPredict(t, h, `{"url": `)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "INVALID_JSON") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := testRouter(t, 0.5, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || !resp.ModelReady {
		t.Errorf("response = %+v", resp)
	}
	if resp.DriftMonitor != "connected" {
		t.Errorf("drift_monitor = %q", resp.DriftMonitor)
	}
	if resp.StreamDepth != 3 {
		t.Errorf("stream_depth = %d", resp.StreamDepth)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := testRouter(t, 0.5, nil)

	// Score once through the API so labeled collectors have samples.
	postPredict(t, h, `{"url": "http://example.org"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "api_requests_total") {
		t.Errorf("exposition missing api_requests_total:\n%s", body)
	}
	if !strings.Contains(body, `endpoint="/api/v1/predict"`) {
		t.Errorf("request counter not labeled with route pattern:\n%s", body)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	h, _ := testRouter(t, 0.5, cfg)

	var last int
	for i := 0; i < 3; i++ {
		last = postPredict(t, h, `{"url": "http://example.org"}`).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}

	// Health endpoint uses the permissive tier and is unaffected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d under api rate limit", rec.Code)
	}
}

func TestWebSocketEndpointWithoutHub(t *testing.T) {
	h, _ := testRouter(t, 0.5, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when the live feed is disabled", rec.Code)
	}
}
