// Package api provides the HTTP and WebSocket server around the simulation
// and backtesting engines.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ledgerengine/quant-backend/internal/backtester"
	"github.com/ledgerengine/quant-backend/internal/config"
	"github.com/ledgerengine/quant-backend/internal/data"
	"github.com/ledgerengine/quant-backend/internal/estimator"
	"github.com/ledgerengine/quant-backend/internal/montecarlo"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Server is the HTTP/WebSocket API server.
type Server struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	config     *types.ServerConfig
	simConfig  types.SimulationConfig
	btConfig   types.BacktestDefaults
	router     *mux.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader
	clients    map[string]*Client
	limiter    *rate.Limiter
	metrics    *Metrics

	mcEngine  *montecarlo.Engine
	btEngine  *backtester.Engine
	estimator *estimator.Estimator
	loader    *data.Loader

	sweeps map[string]*SweepState
}

// Client represents a WebSocket client.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Subs map[string]bool
}

// SweepState tracks one asynchronous grid sweep.
type SweepState struct {
	ID        string
	Status    string // running, completed, failed
	Started   time.Time
	Completed int
	Total     int
	Results   []types.BuyDiscountResult
	Error     string
}

// Message is the WebSocket envelope.
type Message struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"` // request, response, event
	Method    string      `json:"method"`
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// NewServer creates an API server wired to fresh engines.
func NewServer(logger *zap.Logger, cfg *config.Config) *Server {
	server := &Server{
		logger:    logger,
		config:    &cfg.Server,
		simConfig: cfg.Simulation,
		btConfig:  cfg.Backtest,
		router:    mux.NewRouter(),
		clients:   make(map[string]*Client),
		limiter:   rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
		metrics:   NewMetrics(),
		mcEngine:  montecarlo.NewEngine(logger),
		btEngine:  backtester.NewEngine(logger),
		estimator: estimator.New(logger, cfg.Simulation.SalesPerYear),
		loader:    data.NewLoader(logger),
		sweeps:    make(map[string]*SweepState),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}

	server.setupRoutes()
	return server
}

// Router exposes the mux router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.rateLimitMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/simulate", s.metrics.instrument("simulate", s.handleSimulate)).Methods("POST")
	api.HandleFunc("/path", s.metrics.instrument("path", s.handlePath)).Methods("POST")
	api.HandleFunc("/estimate", s.metrics.instrument("estimate", s.handleEstimate)).Methods("POST")
	api.HandleFunc("/capital", s.metrics.instrument("capital", s.handleCapital)).Methods("POST")
	api.HandleFunc("/backtest/run", s.metrics.instrument("backtest_run", s.handleBacktest)).Methods("POST")
	api.HandleFunc("/backtest/discount", s.metrics.instrument("backtest_discount", s.handleDiscountBacktest)).Methods("POST")
	api.HandleFunc("/sweep/run", s.metrics.instrument("sweep_run", s.handleRunSweep)).Methods("POST")
	api.HandleFunc("/sweep/{id}", s.metrics.instrument("sweep_get", s.handleGetSweep)).Methods("GET")

	if s.config.EnableMetrics {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	s.router.HandleFunc(s.config.WebSocketPath, s.handleWebSocket)
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.metrics.rateLimited.Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting API server", zap.String("addr", addr))

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
