// Package web exposes the diagnostics and dashboard JSON API: queue
// inspection and kicking, leaderboard, funnel, projection, and Prometheus
// metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"salestrack/dashboard"
	"salestrack/queue"
)

type HttpRouteHandler struct {
	queue     *queue.WriteQueue
	dashboard *dashboard.Service
	logger    *zap.Logger
	Port      uint
}

func NewRouteHandler(q *queue.WriteQueue, d *dashboard.Service, logger *zap.Logger, port uint) HttpRouteHandler {
	return HttpRouteHandler{
		queue:     q,
		dashboard: d,
		logger:    logger,
		Port:      port,
	}
}

// Handler builds the route table. Exposed separately from Serve so tests can
// drive it through httptest.
func (handler *HttpRouteHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/queue", handler.handleQueue)
	mux.HandleFunc("/api/queue/summary", handler.handleQueueSummary)
	mux.HandleFunc("/api/queue/kick", handler.handleQueueKick)
	mux.HandleFunc("/api/leaderboard", handler.handleLeaderboard)
	mux.HandleFunc("/api/funnel", handler.handleFunnel)
	mux.HandleFunc("/api/projection", handler.handleProjection)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (handler *HttpRouteHandler) Serve() error {
	addr := fmt.Sprintf(":%d", handler.Port)
	handler.logger.Info("dashboard listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, handler.Handler())
}

// handleQueue lists items on GET and enqueues a payload batch on POST.
func (handler *HttpRouteHandler) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := handler.queue.List(r.Context())
		if err != nil {
			handler.serverError(w, "listing queue items", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var payloads []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
			http.Error(w, "invalid payload batch", http.StatusBadRequest)
			return
		}
		count, err := handler.queue.EnqueueBatch(r.Context(), payloads)
		if errors.Is(err, queue.ErrEmptyBatch) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			handler.serverError(w, "enqueueing batch", err)
			return
		}
		// The request context ends with this response; the kick outlives it.
		go handler.queue.Kick(context.Background())
		writeJSON(w, http.StatusAccepted, map[string]int{"total": count})

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (handler *HttpRouteHandler) handleQueueSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := handler.queue.Summary(r.Context())
	if err != nil {
		handler.serverError(w, "computing queue summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (handler *HttpRouteHandler) handleQueueKick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	handler.queue.Kick(r.Context())

	summary, err := handler.queue.Summary(r.Context())
	if err != nil {
		handler.serverError(w, "computing queue summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (handler *HttpRouteHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	period := strings.TrimSpace(r.URL.Query().Get("period"))

	entries, err := handler.dashboard.Leaderboard(r.Context(), period)
	if err != nil {
		handler.serverError(w, "building leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (handler *HttpRouteHandler) handleFunnel(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	period := strings.TrimSpace(r.URL.Query().Get("period"))

	rates, err := handler.dashboard.Funnel(r.Context(), userID, period)
	if err != nil {
		handler.serverError(w, "computing funnel", err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (handler *HttpRouteHandler) handleProjection(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := strings.TrimSpace(query.Get("userId"))
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	role := strings.TrimSpace(query.Get("role"))
	period := strings.TrimSpace(query.Get("period"))
	daysElapsed := intParam(query.Get("daysElapsed"))
	daysRemaining := intParam(query.Get("daysRemaining"))
	weekly := query.Get("weekly") == "true" || query.Get("weekly") == "1"

	projection, err := handler.dashboard.Projection(r.Context(), userID, role, period, daysElapsed, daysRemaining, weekly)
	if err != nil {
		handler.serverError(w, "computing projection", err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

func (handler *HttpRouteHandler) serverError(w http.ResponseWriter, msg string, err error) {
	handler.logger.Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

func intParam(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
