// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/scoring"
	"github.com/tomtom215/phishstream/internal/validation"
)

// Risk levels reported to clients.
const (
	RiskLevelCritical = "CRITICAL"
	RiskLevelLow      = "LOW"
)

// riskThreshold separates CRITICAL from LOW. Strictly greater-than.
const riskThreshold = 0.8

// Scorer is the scoring surface the handlers need. *scoring.Service
// satisfies it.
type Scorer interface {
	Score(ctx context.Context, rawURL, source string) scoring.Result
}

// DriftStater reports the drift monitor's connection state.
type DriftStater interface {
	State() string
}

// DepthReporter reports the stream channel backlog.
type DepthReporter interface {
	Depth() int64
}

// WSUpgrader serves the websocket upgrade for the live feed.
type WSUpgrader interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Handler holds the endpoint implementations and their dependencies.
type Handler struct {
	scorer  Scorer
	monitor DriftStater
	channel DepthReporter
	hub     WSUpgrader
	logger  zerolog.Logger
	started time.Time
}

// NewHandler wires the endpoint handler. monitor, channel, and hub may
// be nil; the corresponding health fields and endpoints degrade
// gracefully.
func NewHandler(scorer Scorer, monitor DriftStater, channel DepthReporter, hub WSUpgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		scorer:  scorer,
		monitor: monitor,
		channel: channel,
		hub:     hub,
		logger:  logger.With().Str("component", "api").Logger(),
		started: time.Now(),
	}
}

// PredictRequest is the POST /api/v1/predict body.
type PredictRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// PredictResponse is the scoring result returned to clients. URL echoes
// the submitted value, before normalization.
type PredictResponse struct {
	URL        string  `json:"url"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	RiskLevel  string  `json:"risk_level"`
}

// Predict scores a submitted URL.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return
	}

	result := h.scorer.Score(r.Context(), req.URL, metrics.SourceUser)

	riskLevel := RiskLevelLow
	if result.Probability > riskThreshold {
		riskLevel = RiskLevelCritical
	}

	respondJSON(w, http.StatusOK, PredictResponse{
		URL:        req.URL,
		Prediction: result.Label,
		Confidence: result.Probability,
		RiskLevel:  riskLevel,
	})
}

// HealthResponse is the GET /api/v1/health body.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ModelReady    bool   `json:"model_ready"`
	DriftMonitor  string `json:"drift_monitor,omitempty"`
	StreamDepth   int64  `json:"stream_depth"`
}

// Health reports process liveness and pipeline state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		ModelReady:    h.scorer != nil,
	}
	if h.monitor != nil {
		resp.DriftMonitor = h.monitor.State()
	}
	if h.channel != nil {
		resp.StreamDepth = h.channel.Depth()
	}
	respondJSON(w, http.StatusOK, resp)
}

// WebSocket upgrades the connection and attaches it to the live feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "FEED_UNAVAILABLE", "Live feed is not enabled")
		return
	}
	h.hub.ServeWS(w, r)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Code: code, Message: message})
}
