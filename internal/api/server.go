// Package api exposes the rule execution, quoting, and rule administration
// endpoints over HTTP.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rating"
	"github.com/ozsure/quoting/internal/store"
	"github.com/ozsure/quoting/internal/telemetry"
)

const maxBodyBytes = 1 << 20 // 1 MiB request body cap

// Server wires the engine, calculator and store behind HTTP handlers.
type Server struct {
	store       store.Store
	executor    *engine.Executor
	calculator  *rating.Calculator
	adminAPIKey string
	limitPerIP  int
	limitPerKey int
	log         zerolog.Logger
}

type Options struct {
	AdminAPIKey     string
	RateLimitPerIP  int
	RateLimitPerKey int
}

func NewServer(st store.Store, exec *engine.Executor, calc *rating.Calculator, opts Options, log zerolog.Logger) *Server {
	return &Server{
		store:       st,
		executor:    exec,
		calculator:  calc,
		adminAPIKey: opts.AdminAPIKey,
		limitPerIP:  opts.RateLimitPerIP,
		limitPerKey: opts.RateLimitPerKey,
		log:         log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(telemetry.Middleware)
	if s.limitPerIP > 0 {
		r.Use(httprate.LimitByIP(s.limitPerIP, time.Minute))
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/v1/rules/execute", s.handleExecuteRules)
	r.Post("/v1/quotes/rate", s.handleRateQuote)

	// admin (protected): rule and rating-table management
	r.Group(func(r chi.Router) {
		r.Use(s.authAdmin)
		if s.limitPerKey > 0 {
			r.Use(httprate.Limit(s.limitPerKey, time.Minute,
				httprate.WithKeyFuncs(func(req *http.Request) (string, error) {
					return req.Header.Get("Authorization"), nil
				})))
		}
		r.Get("/v1/rules", s.handleListRules)
		r.Post("/v1/rules", s.handleUpsertRule)
		r.Get("/v1/rules/{id}", s.handleGetRule)
		r.Delete("/v1/rules/{id}", s.handleDeleteRule)
		r.Post("/v1/rating-tables", s.handleUpsertTable)
	})

	return r
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if got == "" {
			UnauthorizedError(w, r, "missing bearer token")
			return
		}
		// constant-time compare
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminAPIKey)) != 1 {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSON reads a size-capped request body into v. Unknown fields are
// rejected so typos in rule payloads fail loudly instead of silently.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RequestTooLargeError(w, r, "request body too large")
			return err
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
