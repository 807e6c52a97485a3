package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
	"github.com/yndnr/snapmesh-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Feed backs the /messages endpoints.
	Feed *Feed

	// Metrics backs /metrics; nil serves an empty registry.
	Metrics *metric.Registry

	Logger logger.Logger

	// CORSAllowedOrigins enables CORS for these origins (empty = disabled).
	CORSAllowedOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}
	feed := cfg.Feed
	if feed == nil {
		feed = NewFeed(DefaultFeedSize)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.NewRegistry()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "healthy",
			"time":     time.Now().UTC().Format(time.RFC3339),
			"received": feed.Total(),
		})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /messages", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, feed.Recent(r.URL.Query().Get("file"), limit))
	})
	mux.HandleFunc("GET /messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		msg, ok := feed.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, CodeNotFound, "message not retained")
			return
		}
		writeJSON(w, http.StatusOK, msg)
	})

	middlewares := []Middleware{RequestID(), AccessLog(l), Recover(l)}
	if len(cfg.CORSAllowedOrigins) > 0 {
		middlewares = append(middlewares, CORS(cfg.CORSAllowedOrigins))
	}
	return Chain(mux, middlewares...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
