// classifier-stub is a local stand-in for the remote classification service.
// It answers the full endpoint surface with a crude keyword heuristic so the
// pipeline can be exercised offline.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

var modelInfo = map[string]any{
	"name":           "Fake News Detector (stub)",
	"version":        "1.0.0",
	"accuracy":       0.0,
	"trained_at":     nil,
	"features_count": 0,
}

var sensationalWords = []string{
	"shocking", "miracle", "secret", "exposed", "they don't want you to know",
	"unbelievable", "cure", "hoax",
}

func predict(text string) (string, float64) {
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range sensationalWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	switch {
	case hits >= 2:
		return "fake", 0.9
	case hits == 1:
		return "fake", 0.7
	case len(strings.Fields(text)) < 20:
		return "uncertain", 0.5
	default:
		return "real", 0.75
	}
}

func main() {
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8082"
	}

	start := time.Now()
	var requests atomic.Int64

	mux := http.NewServeMux()

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":        "ok",
			"timestamp":     float64(time.Now().Unix()),
			"response_time": 0.001,
		})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":       "healthy",
			"model_loaded": true,
			"timestamp":    float64(time.Now().Unix()),
			"version":      modelInfo["version"],
			"uptime":       time.Since(start).Seconds(),
		})
	})

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, modelInfo)
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"requests_today":    requests.Load(),
			"requests_total":    requests.Load(),
			"avg_response_time": 0.002,
		})
	})

	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		requests.Add(1)
		began := time.Now()

		var req struct {
			News        string `json:"news"`
			ContentType string `json:"content_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.News) == "" {
			writeError(w, http.StatusBadRequest, "news content is required")
			return
		}

		prediction, confidence := predict(req.News)
		writeJSON(w, map[string]any{
			"prediction":      prediction,
			"confidence":      confidence,
			"processing_time": time.Since(began).Seconds(),
			"model_version":   modelInfo["version"],
			"content_type":    req.ContentType,
			"text_length":     len(req.News),
			"timestamp":       float64(time.Now().Unix()),
		})
	})

	mux.HandleFunc("/batch-analyze", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		requests.Add(1)
		began := time.Now()

		var req struct {
			Batch []struct {
				News string `json:"news"`
			} `json:"batch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Batch) == 0 {
			writeError(w, http.StatusBadRequest, "batch items are required as a list")
			return
		}
		if len(req.Batch) > 50 {
			writeError(w, http.StatusBadRequest, "maximum 50 items per batch")
			return
		}

		results := make([]map[string]any, 0, len(req.Batch))
		for i, item := range req.Batch {
			text := strings.TrimSpace(item.News)
			if len(text) < 10 {
				results = append(results, map[string]any{
					"index":      i,
					"prediction": "uncertain",
					"confidence": 0.5,
					"error":      "text too short",
				})
				continue
			}
			prediction, confidence := predict(text)
			results = append(results, map[string]any{
				"index":       i,
				"prediction":  prediction,
				"confidence":  confidence,
				"text_length": len(text),
			})
		}
		writeJSON(w, map[string]any{
			"results":         results,
			"batch_size":      len(req.Batch),
			"processing_time": time.Since(began).Seconds(),
			"timestamp":       float64(time.Now().Unix()),
		})
	})

	mux.HandleFunc("/feedback", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid feedback payload")
			return
		}
		writeJSON(w, map[string]any{"status": "received"})
	})

	log.Printf("classifier-stub listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
