// Package api exposes the curation desk over HTTP: signal ingestion,
// read surfaces for signals/drafts/stories, the review actions,
// calibration, webhook configuration, and the SSE event stream.
package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"signal-desk/database"
	"signal-desk/eventlog"
	"signal-desk/pipeline"
	"signal-desk/realtime"
	"signal-desk/review"
	"signal-desk/store"
)

// Server handles HTTP API requests.
type Server struct {
	store        *store.Store
	orchestrator *pipeline.Orchestrator
	review       *review.Manager
	calibration  *pipeline.Calibration
	events       *eventlog.Log
	broker       *realtime.Broker
	webhookRepo  *database.WebhookRepository // nil when DB is absent
}

// NewServer creates a new API server instance.
func NewServer(st *store.Store, orc *pipeline.Orchestrator, rev *review.Manager, cal *pipeline.Calibration, events *eventlog.Log, broker *realtime.Broker, webhookRepo *database.WebhookRepository) *Server {
	return &Server{
		store:        st,
		orchestrator: orc,
		review:       rev,
		calibration:  cal,
		events:       events,
		broker:       broker,
		webhookRepo:  webhookRepo,
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// SSE endpoint
	mux.Handle("GET /api/events", s.broker)

	// Ingestion and read surfaces
	mux.HandleFunc("POST /api/signals", s.handleIngest)
	mux.HandleFunc("GET /api/signals", s.handleGetSignals)
	mux.HandleFunc("GET /api/drafts", s.handleGetDrafts)
	mux.HandleFunc("GET /api/stories", s.handleGetStories)
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("GET /api/tasks", s.handleGetTasks)
	mux.HandleFunc("GET /api/logs", s.handleGetLogs)

	// Review actions
	mux.HandleFunc("POST /api/drafts/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/drafts/{id}/reject", s.handleReject)
	mux.HandleFunc("POST /api/drafts/{id}/regenerate", s.handleRegenerate)
	mux.HandleFunc("PUT /api/drafts/{id}/content", s.handleEditContent)
	mux.HandleFunc("PUT /api/drafts/{id}/thread", s.handleEditThread)
	mux.HandleFunc("PUT /api/drafts/{id}/counter-case", s.handleEditCounterCase)
	mux.HandleFunc("POST /api/signals/{id}/evidence/request", s.handleRequestEvidence)
	mux.HandleFunc("POST /api/signals/{id}/evidence/{eid}/star", s.handleToggleStar)

	// Auxiliary desk features
	mux.HandleFunc("POST /api/stories/{id}/distill", s.handleDistillStory)
	mux.HandleFunc("GET /api/signals/{id}/deep-dive", s.handleDeepDive)

	// Calibration
	mux.HandleFunc("GET /api/calibration", s.handleGetCalibration)
	mux.HandleFunc("POST /api/calibration/adjust", s.handleAdjustCalibration)

	// Webhook management
	mux.HandleFunc("GET /api/config/webhooks", s.handleGetWebhooks)
	mux.HandleFunc("POST /api/config/webhooks", s.handleCreateWebhook)
	mux.HandleFunc("PUT /api/config/webhooks/{id}", s.handleUpdateWebhook)
	mux.HandleFunc("DELETE /api/config/webhooks/{id}", s.handleDeleteWebhook)

	mux.HandleFunc("GET /health", s.handleHealth)

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start starts the HTTP server on the specified port.
func (s *Server) Start(port int) error {
	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("🚀 API Server starting on %s", serverAddr)
	return http.ListenAndServe(serverAddr, s.Handler())
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Handlers are distributed across multiple files:
// - handlers_signals.go: ingestion and read surfaces
// - handlers_review.go: review actions and auxiliary desk features
// - handlers_config.go: calibration, webhooks, health check
