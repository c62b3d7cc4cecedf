// Package main is the entry point for the sol-dex-pools service, an HTTP API
// that surveys Solana DEX liquidity pools for a token pair and picks the
// healthiest one.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Clish254/sol-dex-pools/internal/breaker"
	"github.com/Clish254/sol-dex-pools/internal/config"
	"github.com/Clish254/sol-dex-pools/internal/export"
	"github.com/Clish254/sol-dex-pools/internal/fetch"
	"github.com/Clish254/sol-dex-pools/internal/otel"
	"github.com/Clish254/sol-dex-pools/internal/pipeline"
	"github.com/Clish254/sol-dex-pools/internal/security"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Server represents the API server instance
type Server struct {
	// Application configuration
	cfg config.Config

	// Concurrent analysis pipeline
	analyzer *pipeline.Analyzer

	// Per-source circuit breakers; nil when disabled
	breaker *breaker.Breaker

	// HTTP server instance
	server *http.Server

	// Metrics registry
	metrics *serverMetrics

	// Optional integrations
	exporter      *export.Exporter
	dataIntegrity *security.DataIntegrityService
	rateLimit     *rate.Limiter
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sourceWarnings  *prometheus.CounterVec
	poolsConsidered prometheus.Gauge
	bestScore       prometheus.Gauge
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics() *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexpools_requests_total",
				Help: "Total number of analysis requests processed",
			},
			[]string{"status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dexpools_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		sourceWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexpools_source_warnings_total",
				Help: "Total number of sources that contributed nothing to a request",
			},
			[]string{"source"},
		),
		poolsConsidered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dexpools_pools_considered",
				Help: "Number of pools scored in the most recent analysis",
			},
		),
		bestScore: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dexpools_best_score",
				Help: "Score of the most recently selected pool",
			},
		),
	}

	prometheus.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.sourceWarnings,
		m.poolsConsidered,
		m.bestScore,
	)

	return m
}

// main is the entry point for the application
func main() {
	setupLogging()

	cfg := config.Load()

	shutdownTracer := otel.InitTracer(cfg)
	defer shutdownTracer()

	providers := pipeline.DefaultProviders(cfg)
	server := NewServer(cfg, providers)
	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

// NewServer creates a new server instance with the analysis pipeline and
// optional integrations wired up.
func NewServer(cfg config.Config, providers []pipeline.Provider) *Server {
	if len(providers) == 0 {
		logrus.Fatal("No sources enabled")
	}

	var b *breaker.Breaker
	if cfg.BreakerEnabled {
		b = breaker.New(cfg.BreakerMaxFailures, cfg.BreakerCooldown)
	}

	server := &Server{
		cfg:      cfg,
		analyzer: pipeline.NewAnalyzer(cfg, providers, b),
		breaker:  b,
		metrics:  registerMetrics(),
	}

	// Rate limiting
	server.rateLimit = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	// Response signing
	if cfg.DataIntegrityEnabled {
		dataIntegrity, err := security.NewDataIntegrityService(security.VerificationOptions{
			SignatureEnabled:  true,
			SignatureValidity: cfg.SignatureValidity,
			StrictMode:        cfg.StrictMode,
		})
		if err != nil {
			logrus.Warnf("Failed to initialize data integrity service: %v", err)
		} else {
			server.dataIntegrity = dataIntegrity
		}
	}

	// Webhook export of analysis results
	server.exporter = export.New(export.Config{
		Enabled:   cfg.WebhookEnabled,
		BatchSize: cfg.WebhookBatchSize,
		Interval:  cfg.WebhookInterval,
		URL:       cfg.WebhookURL,
		APIKey:    cfg.WebhookAPIKey,
	})

	logrus.WithFields(logrus.Fields{
		"port":            cfg.Port,
		"timeout":         cfg.RequestTimeout,
		"circuit_breaker": cfg.BreakerEnabled,
		"deterministic":   cfg.DeterministicSelection,
		"source_count":    len(providers),
	}).Info("Server initialized")

	return server
}

// Start begins the HTTP server and sets up graceful shutdown
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/analyze", s.handleAnalyze)  // Main analysis endpoint
	mux.HandleFunc("/health", s.handleHealth)    // Health check endpoint
	mux.HandleFunc("/metrics", s.handleMetrics)  // Prometheus metrics endpoint
	mux.HandleFunc("/status", s.handleStatus)    // Service status endpoint
	mux.HandleFunc("/circuit", s.handleCircuit)  // Circuit breaker status/control

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * s.cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	s.exporter.Stop()

	logrus.Info("Server stopped")
}

// AnalyzeRequest is the body of an analysis request.
type AnalyzeRequest struct {
	TokenA   string `json:"token_a"`
	TokenB   string `json:"token_b"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// AnalyzeResponse wraps an analysis result for the wire.
type AnalyzeResponse struct {
	StatusCode int             `json:"statusCode"`
	Status     string          `json:"status"`
	Pair       string          `json:"pair"`
	Result     pipeline.Result `json:"result"`
}

// handleAnalyze runs the full pipeline for one token pair
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.rateLimit.Allow() {
		s.errorResponse(w, start, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var request AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.errorResponse(w, start, http.StatusBadRequest, "Invalid request body")
		return
	}
	if request.TokenA == "" || request.TokenB == "" {
		s.errorResponse(w, start, http.StatusBadRequest, "Both token_a and token_b are required")
		return
	}

	hints := fetch.Hints{Page: request.Page, PageSize: request.PageSize}
	result, err := s.analyzer.Analyze(r.Context(), request.TokenA, request.TokenB, hints)

	for _, warning := range result.Warnings {
		s.metrics.sourceWarnings.WithLabelValues(string(warning.Source)).Inc()
	}

	if err != nil {
		if errors.Is(err, pipeline.ErrNoPools) {
			s.errorResponse(w, start, http.StatusNotFound,
				fmt.Sprintf("No pools found for pair %s/%s", request.TokenA, request.TokenB))
			return
		}
		s.errorResponse(w, start, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	s.metrics.poolsConsidered.Set(float64(len(result.Considered)))
	s.metrics.bestScore.Set(result.Best.Score)
	s.metrics.requestDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	s.metrics.requestCounter.WithLabelValues("success").Inc()

	pair := request.TokenA + "/" + request.TokenB
	s.exporter.Add(pair, result)

	response := AnalyzeResponse{
		StatusCode: http.StatusOK,
		Status:     "success",
		Pair:       pair,
		Result:     result,
	}

	var payload interface{} = response
	if s.dataIntegrity != nil {
		signed, err := s.dataIntegrity.SignPayload(response)
		if err != nil {
			logrus.Warnf("Failed to sign response: %v", err)
		} else {
			payload = signed
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics exposes Prometheus metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "operational",
		"uptime":  time.Since(startTime).String(),
		"version": "1.0.0",
		"sources": s.analyzer.Sources(),
		"configuration": map[string]interface{}{
			"timeout":         s.cfg.RequestTimeout.String(),
			"circuit_breaker": s.cfg.BreakerEnabled,
			"deterministic":   s.cfg.DeterministicSelection,
			"sol_price_usd":   s.cfg.SolPriceUSD,
		},
		"exporter": s.exporter.Status(),
	}

	if s.breaker != nil {
		circuits := map[string]string{}
		for src, state := range s.breaker.States() {
			circuits[string(src)] = state.String()
		}
		status["circuits"] = circuits
	}
	if s.dataIntegrity != nil {
		status["public_key"] = s.dataIntegrity.GetPublicKey()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleCircuit allows viewing and resetting the per-source circuit breakers
func (s *Server) handleCircuit(w http.ResponseWriter, r *http.Request) {
	if s.breaker == nil {
		http.Error(w, "Circuit breaker not enabled", http.StatusServiceUnavailable)
		return
	}

	response := map[string]interface{}{}

	// Allow reset operation via POST
	if r.Method == http.MethodPost && r.URL.Query().Get("action") == "reset" {
		for _, src := range s.analyzer.Sources() {
			s.breaker.Reset(src)
		}
		response["message"] = "All circuits reset"
	}

	circuits := map[string]string{}
	for src, state := range s.breaker.States() {
		circuits[string(src)] = state.String()
	}
	response["circuits"] = circuits

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// errorResponse returns a formatted JSON error response
func (s *Server) errorResponse(w http.ResponseWriter, start time.Time, statusCode int, errorMsg string) {
	logrus.Warn(errorMsg)

	s.metrics.requestCounter.WithLabelValues("error").Inc()
	s.metrics.requestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"statusCode": statusCode,
		"status":     "error",
		"error":      errorMsg,
	})
}
