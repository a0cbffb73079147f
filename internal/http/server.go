// Package http exposes the reward service as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/middleware/ratelimit"
	"rewards/internal/middleware/security"
	"rewards/internal/middleware/trace"
)

// RewardService is the behaviour the handlers need from services.RewardService.
type RewardService interface {
	AddTransaction(ctx context.Context, tx core.Transaction) (core.RewardResponse, error)
	RewardsByCustomer(ctx context.Context, customerID string) (core.RewardResponse, bool, error)
	AllRewards(ctx context.Context) ([]core.RewardResponse, error)
}

// ReadinessCheck reports whether dependencies can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server
	svc         RewardService
	logger      *log.Logger
	ready       ReadinessCheck
	rateLimiter *ratelimit.Limiter
	clientIP    *security.ClientIPResolver
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit caps POST /transactions per client. Zero disables it.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute > 0 {
			s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: perMinute})
		}
	}
}

func WithReadinessCheck(check ReadinessCheck) Option {
	return func(s *Server) { s.ready = check }
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc RewardService, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		logger:   log.Discard(),
		clientIP: security.NewClientIPResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(trace.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.FromRequest))
	r.Use(log.AccessLogMiddleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Middleware(s.clientIP.ClientIP, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			}))
		}
		r.Post("/transactions", s.handleAddTransaction)
	})

	r.Route("/rewards", func(r chi.Router) {
		r.Get("/", s.handleAllRewards)
		r.Get("/{customerId}", s.handleCustomerRewards)
	})

	return r
}

// Shutdown stops the listener and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}
