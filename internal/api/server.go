// Package api exposes the lookup engine over HTTP for the shop-floor app.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/shopfloor/internal/audit"
	"github.com/sells-group/shopfloor/internal/auth"
	"github.com/sells-group/shopfloor/internal/model"
)

// Lookup is the query engine behind the API.
type Lookup interface {
	Search(ctx context.Context, term string, limit int) ([]model.SearchMatch, error)
	ListParts(ctx context.Context, productionOrder string) (*model.PartsListResult, error)
	RecentLots(ctx context.Context, n int) ([]string, error)
	UserProfile(ctx context.Context, subject string) (*model.UserProfile, error)
	UserOperations(ctx context.Context, subject string) ([]string, error)
	Ping(ctx context.Context) error
}

// Options tunes the HTTP layer.
type Options struct {
	// RequestTimeout bounds each request. Zero disables it.
	RequestTimeout time.Duration
	// RateLimitRPS is the global request budget. Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

// Server routes requests to the lookup engine.
type Server struct {
	lookup   Lookup
	verifier *auth.Verifier
	audit    audit.Recorder
	opts     Options
}

// NewServer creates a Server. A nil recorder disables the audit trail.
func NewServer(lk Lookup, verifier *auth.Verifier, rec audit.Recorder, opts Options) *Server {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Server{
		lookup:   lk,
		verifier: verifier,
		audit:    rec,
		opts:     opts,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	if s.opts.RateLimitRPS > 0 {
		burst := s.opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.opts.RateLimitRPS), burst)))
	}
	if s.opts.RequestTimeout > 0 {
		r.Use(requestDeadline(s.opts.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(s.verifier))
		r.Get("/auth/me", s.handleMe)
		r.Get("/user/busca-codigo", s.handleSearch)
		r.Get("/user/lista-pecas", s.handlePartsList)
		r.Get("/user/lotes", s.handleLots)
		r.Get("/user/profile", s.handleProfile)
		r.Get("/user/operacoes", s.handleOperations)
	})

	return r
}
