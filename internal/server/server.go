// Package server provides the HTTP API that drives the velvet rope pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/velvet-rope/internal/biometrics"
	"github.com/jonathan/velvet-rope/internal/db"
	"github.com/jonathan/velvet-rope/internal/metrics"
	"github.com/jonathan/velvet-rope/internal/pipeline"
	"github.com/jonathan/velvet-rope/internal/server/ratelimit"
	"github.com/jonathan/velvet-rope/internal/simulation"
	"github.com/jonathan/velvet-rope/internal/speech"
)

// RunLister lists archived parties. *db.DB implements it.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]db.PartyRun, error)
}

// Config holds server configuration
type Config struct {
	Addr string
	// ReplayInterval is the default pause between replayed rounds.
	ReplayInterval time.Duration
	// Seed feeds the synthetic expression source used by /api/bouncer/run.
	Seed uint64
}

// Deps are the collaborators the handlers call into. Only Orchestrator is required.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Narrator     speech.Narrator
	Runs         RunLister
	Metrics      *metrics.Manager
	Logger       *slog.Logger
	RateLimiter  *ratelimit.Limiter
	// Source builds the expression source for an automated bouncer pass.
	Source func() biometrics.ExpressionSource
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	orchestrator   *pipeline.Orchestrator
	narrator       speech.Narrator
	runs           RunLister
	metrics        *metrics.Manager
	logger         *slog.Logger
	rateLimiter    *ratelimit.Limiter
	source         func() biometrics.ExpressionSource
	replayInterval time.Duration
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		orchestrator:   deps.Orchestrator,
		narrator:       deps.Narrator,
		runs:           deps.Runs,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		rateLimiter:    deps.RateLimiter,
		source:         deps.Source,
		replayInterval: cfg.ReplayInterval,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if s.source == nil {
		seed := cfg.Seed
		s.source = func() biometrics.ExpressionSource { return biometrics.NewSyntheticSource(seed) }
	}
	if cfg.ReplayInterval < 0 {
		s.replayInterval = 0
	} else if cfg.ReplayInterval == 0 {
		s.replayInterval = simulation.DefaultReplayInterval
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generative stages and SSE replays can run for minutes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the routed and wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/profiles", s.handleProfiles)
	mux.HandleFunc("POST /api/pitches", s.handlePitches)
	mux.HandleFunc("POST /api/bouncer/start", s.handleBouncerStart)
	mux.HandleFunc("POST /api/bouncer/run", s.handleBouncerRun)
	mux.HandleFunc("POST /api/bouncer/{attendee_id}/biometrics", s.handleBiometrics)
	mux.HandleFunc("POST /api/guest-list", s.handleGuestList)
	mux.HandleFunc("PUT /api/guest-list/capacity", s.handleCapacity)
	mux.HandleFunc("POST /api/venue", s.handleVenue)
	mux.HandleFunc("POST /api/party", s.handleParty)
	mux.HandleFunc("GET /api/party/replay", s.handleReplay)
	mux.HandleFunc("POST /api/rerun", s.handleRerun)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	mux.HandleFunc("POST /api/tts", s.handleTTS)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their bucket with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for logging. It forwards Flush
// so SSE keeps working behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging logs each request and counts it by route pattern.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequest(route, strconv.Itoa(status))
		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("remote", r.RemoteAddr))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status code. Server-side failures are logged and
// their detail withheld.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		if status == http.StatusInternalServerError {
			s.errorResponse(w, status, "internal error")
			return
		}
	}
	s.errorResponse(w, status, err.Error())
}

// clientID is the caller's IP without the port.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		slog.String("client", clientID(r)),
		slog.String("path", r.URL.Path),
		slog.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
