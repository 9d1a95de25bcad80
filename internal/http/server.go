// Package http exposes the ledger operations as a JSON API.
//
// Every route under /api except registration and login acts for the user
// named by the X-User-ID header. Responses share one envelope:
// {"success": bool, "message": string, "data": ...}.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger    *log.Logger
	RateLimit ratelimit.Config
	Headers   security.HeadersConfig
	// Ready backs /readyz. Nil always reports ready.
	Ready Pinger
	// RequestTimeout bounds each API request. Zero disables it.
	RequestTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Logger:         log.Default(log.ComponentHTTP),
		RateLimit:      ratelimit.DefaultConfig(),
		Headers:        security.DefaultHeadersConfig(),
		RequestTimeout: 15 * time.Second,
	}
}

type Server struct {
	http.Server
	svc      *services.Services
	log      *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    Pinger

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware and returns a server ready for
// ListenAndServe.
func NewServer(addr string, svc *services.Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	}
	s := &Server{
		svc:      svc,
		log:      opts.Logger,
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
		ready:    opts.Ready,
	}

	r := chi.NewRouter()
	r.Use(log.RequestMiddleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(opts.Headers).Middleware)
	r.Use(s.screen)
	r.Use(s.limiter.Middleware(s.detector.ClientIP, s.rateLimited))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			s.userRoutes(r)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) userRoutes(r chi.Router) {
	r.Get("/me", s.handleMe)

	r.Route("/cards", func(r chi.Router) {
		r.Get("/", s.handleListCards)
		r.Post("/", s.handleCreateCard)
		r.Route("/{cardID}", func(r chi.Router) {
			r.Get("/", s.handleGetCard)
			r.Patch("/", s.handleUpdateCard)
			r.Delete("/", s.handleDeleteCard)
			r.Post("/adjust", s.handleAdjustCard)
			r.Get("/entries", s.handleCardEntries)
		})
	})

	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", s.handleGetWallet)
		r.Post("/deposit", s.handleWalletDeposit)
		r.Post("/withdraw", s.handleWalletWithdraw)
	})

	r.Post("/transfers", s.handleTransfer)

	r.Route("/envelopes", func(r chi.Router) {
		r.Get("/", s.handleListEnvelopes)
		r.Post("/", s.handleCreateEnvelope)
		r.Post("/defaults", s.handleDefaultEnvelopes)
		r.Route("/{envelopeID}", func(r chi.Router) {
			r.Get("/", s.handleGetEnvelope)
			r.Put("/", s.handleUpdateEnvelope)
			r.Delete("/", s.handleDeleteEnvelope)
			r.Post("/deposit", s.handleEnvelopeDeposit)
			r.Get("/transactions", s.handleEnvelopeTransactions)
			r.Get("/stats", s.handleEnvelopeStats)
		})
	})

	r.Route("/savings", func(r chi.Router) {
		r.Get("/", s.handleListPlans)
		r.Post("/", s.handleCreatePlan)
		r.Get("/overview", s.handleSavingsOverview)
		r.Route("/{planID}", func(r chi.Router) {
			r.Get("/", s.handleGetPlan)
			r.Put("/", s.handleUpdatePlan)
			r.Delete("/", s.handleDeletePlan)
			r.Get("/transactions", s.handlePlanTransactions)
			r.Post("/contribute", s.handlePlanContribute)
			r.Post("/withdraw", s.handlePlanWithdraw)
			r.Post("/complete", s.handlePlanComplete)
		})
	})

	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", s.handleListEntries)
		r.Post("/", s.handleAppendEntry)
		r.Get("/{entryID}", s.handleGetEntry)
	})

	r.Route("/analytics", func(r chi.Router) {
		for path, h := range s.routesAnalytics() {
			r.Get(path, h)
		}
	})

	r.Get("/audit", s.handleAudit)
}

// screen logs requests that look like probes. They are still served; the
// router rejects unknown paths on its own.
func (s *Server) screen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, s.detector.ClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r), log.FieldPath, r.URL.Path)
	fail(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respond(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			s.log.Failure(r.Context(), "Readiness check failed", err)
			fail(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	respond(w, map[string]string{"status": "ready"})
}

// Shutdown stops the rate limiter and drains the server. Only the first call
// has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
