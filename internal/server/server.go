package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/db"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/server/middleware"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/server/ratelimit"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// DefaultRunTimeout bounds a single pipeline run started over HTTP.
const DefaultRunTimeout = 10 * time.Minute

// Agent is the part of pipeline.Agent the API drives.
type Agent interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
	SynthesizeOnly(ctx context.Context) ([]types.QualifiedInsight, error)
	GetCurrentEvents(ctx context.Context) ([]types.MarketingEventRecord, error)
}

// AgentFactory builds an agent for one request. onProgress may be nil.
// Building per request lets the date range follow the clock.
type AgentFactory func(ctx context.Context, onProgress pipeline.ProgressCallback) (Agent, error)

// RunHistory reads recorded runs. *db.DB satisfies it.
type RunHistory interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
}

// Config holds server configuration
type Config struct {
	Port       int
	NewAgent   AgentFactory
	JWT        *JWTService
	Limiter    *ratelimit.Limiter
	History    RunHistory
	RunTimeout time.Duration
	Logger     *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	newAgent    AgentFactory
	jwt         *JWTService
	rateLimiter *ratelimit.Limiter
	history     RunHistory
	runTimeout  time.Duration
	log         *zap.Logger

	// runMu serializes runs so only one reconciliation touches the store at a time
	runMu sync.Mutex
}

// New creates a server. NewAgent and JWT are required.
func New(cfg Config) (*Server, error) {
	if cfg.NewAgent == nil {
		return nil, errors.New("agent factory is required")
	}
	if cfg.JWT == nil {
		return nil, errors.New("JWT service is required")
	}

	s := &Server{
		newAgent:    cfg.NewAgent,
		jwt:         cfg.JWT,
		rateLimiter: cfg.Limiter,
		history:     cfg.History,
		runTimeout:  cfg.RunTimeout,
		log:         logger.OrNop(cfg.Logger),
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if s.runTimeout <= 0 {
		s.runTimeout = DefaultRunTimeout
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.runTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with logging, CORS and rate limiting applied.
func (s *Server) Handler() http.Handler {
	auth := middleware.AuthMiddleware(s.jwt.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /run", auth(s.requireScope(ScopeRun, http.HandlerFunc(s.handleRun))))
	mux.Handle("POST /run/stream", auth(s.requireScope(ScopeRun, http.HandlerFunc(s.handleRunStream))))
	mux.Handle("POST /synthesize", auth(http.HandlerFunc(s.handleSynthesize)))
	mux.Handle("GET /events", auth(http.HandlerFunc(s.handleEvents)))
	mux.Handle("GET /runs", auth(http.HandlerFunc(s.handleListRuns)))
	mux.Handle("GET /runs/{id}", auth(http.HandlerFunc(s.handleGetRun)))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// requireScope rejects tokens that do not carry scope.
func (s *Server) requireScope(scope string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.Claims(r)
		c, isClaims := claims.(*Claims)
		if !ok || !isClaims || !c.HasScope(scope) {
			s.errorResponse(w, http.StatusForbidden, fmt.Sprintf("token lacks %q scope", scope))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for access logs.
// It forwards Flush so SSE keeps working behind the logger.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// clientID identifies the caller by remote IP. X-Forwarded-For is not trusted.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds())
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.log.Warn("rate limit exceeded", zap.Int("limit", info.Limit), zap.Duration("retry_after", info.RetryAfter))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
