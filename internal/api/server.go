package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/livefeedai/livefeed/internal/config"
	"github.com/livefeedai/livefeed/internal/describe"
	"github.com/livefeedai/livefeed/internal/gate"
	"github.com/livefeedai/livefeed/internal/logger"
	"github.com/livefeedai/livefeed/internal/mailbox"
	"github.com/livefeedai/livefeed/internal/output"
	"github.com/livefeedai/livefeed/internal/source"
)

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	configMgr *config.Manager
	frameGate *gate.Gate
	worker    *describe.Worker
	client    *describe.Client
	box       *mailbox.Mailbox
	sources   *source.Router
	preview   *output.MJPEGOutput
	upgrader  websocket.Upgrader

	subMu sync.Mutex
	subs  map[chan describe.Description]struct{}
}

// NewServer creates a new API server
func NewServer(configMgr *config.Manager, frameGate *gate.Gate, worker *describe.Worker,
	client *describe.Client, box *mailbox.Mailbox, sources *source.Router,
	preview *output.MJPEGOutput) *Server {

	s := &Server{
		router:    mux.NewRouter(),
		configMgr: configMgr,
		frameGate: frameGate,
		worker:    worker,
		client:    client,
		box:       box,
		sources:   sources,
		preview:   preview,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		subs: make(map[chan describe.Description]struct{}),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/config", s.handleUpdateConfig).Methods("PUT")
	api.HandleFunc("/speech", s.handleSpeech).Methods("POST")
	api.HandleFunc("/events", s.handleEvents)
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/preview", s.preview.Handler()).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().Str("addr", addr).Msg("Starting server")
	return http.ListenAndServe(addr, s.enableCORS(s.router))
}

// Broadcast pushes a description to all websocket subscribers. Used as the
// describe worker's notify callback; slow subscribers miss events rather than
// stall the worker.
func (s *Server) Broadcast(d describe.Description) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

func (s *Server) subscribe() chan describe.Description {
	ch := make(chan describe.Description, 4)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan describe.Description) {
	s.subMu.Lock()
	delete(s.subs, ch)
	s.subMu.Unlock()
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HTTP Handlers

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.frameGate.Stats()

	status := map[string]interface{}{
		"source": s.sources.Active(),
		"gate": map[string]interface{}{
			"throttled":   stats.Throttled,
			"cold_starts": stats.ColdStarts,
			"unchanged":   stats.Unchanged,
			"changed":     stats.Changed,
			"interval_ms": stats.Interval.Milliseconds(),
		},
		"mailbox_drops":    s.box.Drops(),
		"last_description": s.worker.Last(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.configMgr.Get()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.configMgr.Update(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "no query provided", http.StatusBadRequest)
		return
	}

	response, err := s.client.Speech(r.Context(), req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"response": response})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.subscribe()
	defer s.unsubscribe(updates)

	// Send the latest description first so new clients are not blank until
	// the next scene change.
	if last := s.worker.Last(); !last.At.IsZero() {
		if err := conn.WriteJSON(last); err != nil {
			return
		}
	}

	for d := range updates {
		if err := conn.WriteJSON(d); err != nil {
			logger.WithComponent("api").Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
