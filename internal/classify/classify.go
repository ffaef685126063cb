// Package classify wraps the remote fake-news prediction service.
//
// Every public call degrades gracefully: transport failures, bad statuses and
// malformed payloads never surface as errors. Analyze returns a fallback
// UNCERTAIN result and the read-only calls return error-shaped values, so the
// caller can always show the user something.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Label is the classification verdict for a piece of content.
type Label string

const (
	LabelReal      Label = "REAL"
	LabelFake      Label = "FAKE"
	LabelUncertain Label = "UNCERTAIN"
)

// FallbackModelVersion marks results synthesized locally after a failure.
const FallbackModelVersion = "fallback"

const (
	defaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 5 * time.Second
	userAgent             = "newsproof-client/1.0"
)

// Result is what the caller always gets back from Analyze, success or not.
// A degraded result carries LabelUncertain, confidence 0.5 and a non-empty
// ErrorMessage. Confidence is passed through from the service verbatim, not
// clamped to [0,1].
type Result struct {
	Label          Label
	Confidence     float64
	ProcessingTime float64 // seconds, client-measured, millisecond precision
	ModelVersion   string
	Features       map[string]any
	Index          int // position in the originating batch; 0 for single calls
	ErrorMessage   string
}

// AnalysisRequest is one item of content to classify. ContentType is one of
// "text", "url" or "image".
type AnalysisRequest struct {
	Content     string `json:"news"`
	ContentType string `json:"content_type"`
}

// HealthStatus mirrors the service's /health payload.
type HealthStatus struct {
	Status      string  `json:"status"`
	ModelLoaded bool    `json:"model_loaded"`
	Version     string  `json:"version"`
	Uptime      float64 `json:"uptime"`
	Timestamp   float64 `json:"timestamp"`
	Error       string  `json:"error,omitempty"`
}

// ModelInfo mirrors the service's /info payload.
type ModelInfo struct {
	Name          string  `json:"name"`
	Version       string  `json:"version"`
	Accuracy      float64 `json:"accuracy"`
	TrainedAt     string  `json:"trained_at"`
	FeaturesCount int     `json:"features_count"`
	Error         string  `json:"error,omitempty"`
}

// UsageStats mirrors the service's /stats payload.
type UsageStats struct {
	RequestsToday   int     `json:"requests_today"`
	RequestsTotal   int     `json:"requests_total"`
	AvgResponseTime float64 `json:"avg_response_time"`
	Error           string  `json:"error,omitempty"`
}

// PingStatus reports whether the service answered a ping.
type PingStatus struct {
	Success      bool    `json:"success"`
	ResponseTime float64 `json:"response_time"`
	Timestamp    int64   `json:"timestamp"`
	Error        string  `json:"error,omitempty"`
}

// Client talks to the remote classifier. It is stateless per call: no
// retries, no circuit breaker, each call independently applies the try-once,
// degrade-on-failure policy.
type Client struct {
	BaseURL string
	// APIKey, when set, is sent as both bearer token and X-API-Key header.
	APIKey string
	// Timeout bounds each request. Zero means 30s.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient builds a Client for the given endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Timeout: timeout,
	}
}

// Analyze classifies content and never fails: any downstream problem yields a
// fallback UNCERTAIN result carrying the cause in ErrorMessage.
func (c *Client) Analyze(ctx context.Context, content, contentType string) Result {
	start := time.Now()

	payload := map[string]any{
		"news":         content,
		"content_type": contentType,
		"timestamp":    time.Now().Unix(),
	}

	var resp struct {
		Prediction   string          `json:"prediction"`
		Confidence   *float64        `json:"confidence"`
		ModelVersion string          `json:"model_version"`
		Features     json.RawMessage `json:"features"`
	}
	err := c.request(ctx, http.MethodPost, "/analyze", payload, &resp)
	if err == nil && (resp.Prediction == "" || resp.Confidence == nil) {
		err = errors.New("invalid response from classifier: missing prediction or confidence")
	}
	if err != nil {
		log.Error().Err(err).Int("content_length", len(content)).Msg("classifier request failed")
		return fallbackResult(start, err)
	}

	version := resp.ModelVersion
	if version == "" {
		version = "v1.0"
	}
	return Result{
		Label:          Label(strings.ToUpper(resp.Prediction)),
		Confidence:     *resp.Confidence,
		ProcessingTime: elapsedSeconds(start),
		ModelVersion:   version,
		Features:       decodeFeatures(resp.Features),
	}
}

// decodeFeatures tolerates any shape the service sends: objects decode as-is,
// anything else (arrays, scalars) is kept under a single key. Feature payloads
// are opaque debugging data, never load-bearing.
func decodeFeatures(raw json.RawMessage) map[string]any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return map[string]any{"features": v}
	}
	return nil
}

// AnalyzeBatch classifies all items in one request. When the call fails, it
// synthesizes one fallback result per input item with a shared error message,
// preserving index-to-item mapping.
func (c *Client) AnalyzeBatch(ctx context.Context, items []AnalysisRequest) []Result {
	start := time.Now()

	payload := map[string]any{
		"batch":     items,
		"timestamp": time.Now().Unix(),
	}

	var resp struct {
		Results []struct {
			Index        int      `json:"index"`
			Prediction   string   `json:"prediction"`
			Confidence   *float64 `json:"confidence"`
			ModelVersion string   `json:"model_version"`
			Error        string   `json:"error"`
		} `json:"results"`
	}
	err := c.request(ctx, http.MethodPost, "/batch-analyze", payload, &resp)
	if err != nil {
		log.Error().Err(err).Int("batch_size", len(items)).Msg("batch analysis failed")
		results := make([]Result, len(items))
		for i := range items {
			results[i] = fallbackResult(start, err)
			results[i].Index = i
		}
		return results
	}

	elapsed := elapsedSeconds(start)
	results := make([]Result, 0, len(resp.Results))
	for _, item := range resp.Results {
		r := Result{
			Label:          LabelUncertain,
			Confidence:     0.5,
			ProcessingTime: elapsed,
			ModelVersion:   item.ModelVersion,
			Index:          item.Index,
			ErrorMessage:   item.Error,
		}
		if item.Prediction != "" {
			r.Label = Label(strings.ToUpper(item.Prediction))
		}
		if item.Confidence != nil {
			r.Confidence = *item.Confidence
		}
		if r.ModelVersion == "" {
			r.ModelVersion = "v1.0"
		}
		results = append(results, r)
	}
	return results
}

// Health reports service health, degrading to an error-shaped status.
func (c *Client) Health(ctx context.Context) HealthStatus {
	var status HealthStatus
	if err := c.request(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		log.Error().Err(err).Msg("classifier health check failed")
		return HealthStatus{
			Status:    "error",
			Timestamp: float64(time.Now().Unix()),
			Error:     err.Error(),
		}
	}
	return status
}

// Info fetches model metadata, degrading to an error-shaped value.
func (c *Client) Info(ctx context.Context) ModelInfo {
	var info ModelInfo
	if err := c.request(ctx, http.MethodGet, "/info", nil, &info); err != nil {
		log.Error().Err(err).Msg("classifier info request failed")
		return ModelInfo{
			Name:    "unknown",
			Version: "unknown",
			Error:   err.Error(),
		}
	}
	return info
}

// UsageStats fetches service usage counters, degrading to zeros.
func (c *Client) UsageStats(ctx context.Context) UsageStats {
	var stats UsageStats
	if err := c.request(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		log.Error().Err(err).Msg("classifier stats request failed")
		return UsageStats{Error: err.Error()}
	}
	return stats
}

// Ping checks basic connectivity to the service.
func (c *Client) Ping(ctx context.Context) PingStatus {
	var resp struct {
		ResponseTime float64 `json:"response_time"`
	}
	if err := c.request(ctx, http.MethodGet, "/ping", nil, &resp); err != nil {
		return PingStatus{
			Timestamp: time.Now().Unix(),
			Error:     err.Error(),
		}
	}
	return PingStatus{
		Success:      true,
		ResponseTime: resp.ResponseTime,
		Timestamp:    time.Now().Unix(),
	}
}

// SendFeedback posts a correction record for model retraining. Best-effort
// telemetry: returns false instead of an error on failure.
func (c *Client) SendFeedback(ctx context.Context, submissionID string, actualLabel, predictedLabel Label, confidence float64, note string) bool {
	payload := map[string]any{
		"submission_id":   submissionID,
		"actual_label":    actualLabel,
		"predicted_label": predictedLabel,
		"confidence":      confidence,
		"user_feedback":   note,
		"timestamp":       time.Now().Unix(),
	}
	if err := c.request(ctx, http.MethodPost, "/feedback", payload, &struct{}{}); err != nil {
		log.Error().Err(err).Str("submission_id", submissionID).Msg("failed to send feedback to classifier")
		return false
	}
	return true
}

// request performs one JSON round trip against the service. Non-2xx statuses
// and undecodable bodies are errors; the caller decides how to degrade.
func (c *Client) request(ctx context.Context, method, path string, payload any, out any) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid JSON response: %w", err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: defaultConnectTimeout}).DialContext,
			TLSHandshakeTimeout: defaultConnectTimeout,
		},
	}
}

// statusError extracts the service's error message when the body carries one.
func statusError(resp *http.Response) error {
	msg := fmt.Sprintf("HTTP error %d", resp.StatusCode)
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s: %s", msg, payload.Error)
	}
	return errors.New(msg)
}

func fallbackResult(start time.Time, cause error) Result {
	return Result{
		Label:          LabelUncertain,
		Confidence:     0.5,
		ProcessingTime: elapsedSeconds(start),
		ModelVersion:   FallbackModelVersion,
		ErrorMessage:   cause.Error(),
	}
}

// elapsedSeconds measures wall-clock time since start, rounded to millisecond
// precision.
func elapsedSeconds(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*1000) / 1000
}
