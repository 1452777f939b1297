// Package api provides the HTTP REST API server for varscope.
//
// It exposes endpoints for snapshot analysis, batch processing, the rule
// violation catalog, configuration inspection, and WebSocket streaming of
// batch progress events.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/analysis"
	"github.com/seenimoa/varscope/internal/batch"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/internal/loader"
	"github.com/seenimoa/varscope/pkg/models"
)

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Snapshot models.Snapshot `json:"snapshot"`
}

// BatchRequest is the body for POST /api/v1/batch.
type BatchRequest struct {
	Paths       []string `json:"paths"`
	Concurrency int      `json:"concurrency,omitempty"`
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	pipeline *analysis.Pipeline
	mapper   *account.Mapper
	loader   *loader.Loader
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	pipeline, err := analysis.NewPipeline(cfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline setup failed: %w", err)
	}

	mapper := account.NewMapper(cfg.Accounts)

	srv := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		mapper:   mapper,
		loader:   loader.NewLoader(mapper, nil),
		wsHub:    NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Analysis
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/batch", s.handleBatch)

		// Rule catalog
		r.Get("/rules", s.handleRules)
		r.Get("/rules/{id}", s.handleRuleByID)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/accounts", s.handleGetAccounts)

		// WebSocket batch progress
		r.Get("/ws", s.handleWebSocket)
		r.Get("/ws/batch", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
			"rules":   len(s.pipeline.Registry().All()),
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap := &req.Snapshot
	issues := loader.Validate(snap)
	if !loader.Analyzable(issues) {
		writeJSON(w, http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error:   "snapshot failed validation",
			Data:    map[string]interface{}{"issues": issues},
		})
		return
	}

	result := s.pipeline.Run(snap)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"result": result,
			"issues": issues,
		},
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "paths is required")
		return
	}

	proc := batch.NewProcessor(s.pipeline, s.loader, req.Concurrency, nil)
	proc.OnProgress(func(e batch.Event) {
		s.wsHub.Broadcast(WSMessage{Type: "batch_progress", Data: e})
	})

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	results, summary, err := proc.Run(ctx, req.Paths)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Failed files carry only an error string over the wire
	type fileOutcome struct {
		Path   string           `json:"path"`
		Result *analysis.Result `json:"result,omitempty"`
		Issues []loader.Issue   `json:"issues,omitempty"`
		Error  string           `json:"error,omitempty"`
	}
	outcomes := make([]fileOutcome, 0, len(results))
	for i := range results {
		fr := &results[i]
		fo := fileOutcome{Path: fr.Path, Issues: fr.Issues}
		if fr.Err != nil {
			fo.Error = fr.Err.Error()
		} else {
			fo.Result = &fr.Result
		}
		outcomes = append(outcomes, fo)
	}

	s.wsHub.Broadcast(WSMessage{Type: "batch_complete", Data: summary})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"files":   outcomes,
			"summary": summary,
		},
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.pipeline.Registry().All(),
	})
}

func (s *Server) handleRuleByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rv, ok := s.pipeline.Registry().Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown rule: %s", id))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    rv,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}
