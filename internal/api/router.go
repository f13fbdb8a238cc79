package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/borrow/internal/auth"
	"github.com/erazemk/borrow/internal/lending"
	"github.com/erazemk/borrow/internal/metrics"
	"github.com/erazemk/borrow/internal/model"
)

// Deps holds what the router needs.
type Deps struct {
	DB          *sql.DB
	Identity    *auth.Identity
	Lending     *lending.Service
	RateLimiter *RateLimiter
	CORSOrigin  string

	// Metrics records HTTP traffic; nil disables recording. Gatherer, when
	// set, is served on /metrics.
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(deps Deps) http.Handler {
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	authHandler := &AuthHandler{Identity: deps.Identity}
	usersHandler := &UsersHandler{Identity: deps.Identity}
	itemsHandler := &ItemsHandler{Lending: deps.Lending}
	requestsHandler := &RequestsHandler{Lending: deps.Lending}

	r := chi.NewRouter()
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware(collector))
	if deps.CORSOrigin != "" {
		r.Use(CORSMiddleware(deps.CORSOrigin))
	}

	r.Get("/healthz", healthHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// Public: signup and login.
	r.Post("/api/auth/signup", authHandler.Signup)
	r.Post("/api/auth/login", authHandler.Login)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Identity))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Put("/password", authHandler.ChangePassword)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.With(RequireRole(model.RoleAdmin)).Get("/", usersHandler.List)
			r.Put("/me", usersHandler.UpdateMe)
			r.Get("/{id}", usersHandler.Get)
		})

		r.Route("/api/items", func(r chi.Router) {
			r.Get("/", itemsHandler.List)
			r.Post("/", itemsHandler.Create)
			r.Get("/mine", itemsHandler.Mine)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", itemsHandler.Get)
				r.Put("/", itemsHandler.Update)
				r.Delete("/", itemsHandler.Delete)
				r.Post("/toggle", itemsHandler.Toggle)
				r.Get("/history", itemsHandler.History)
			})
		})

		r.Route("/api/requests", func(r chi.Router) {
			r.With(RequireRole(model.RoleAdmin)).Get("/", requestsHandler.ListAll)
			create := r.With()
			if deps.RateLimiter != nil {
				create = r.With(deps.RateLimiter.RequestMiddleware())
			}
			create.Post("/", requestsHandler.Create)
			r.Get("/incoming", requestsHandler.Incoming)
			r.Get("/outgoing", requestsHandler.Outgoing)
			r.Get("/pending-count", requestsHandler.PendingCount)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", requestsHandler.Get)
				r.Delete("/", requestsHandler.Cancel)
				r.Post("/approve", requestsHandler.Approve)
				r.Post("/reject", requestsHandler.Reject)
				r.Post("/complete", requestsHandler.Complete)
			})
		})
	})

	return r
}

// healthHandler reports whether the database answers.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, codeInternal, "database unavailable")
			return
		}
		jsonOK(w, http.StatusOK, envelope{Message: "ok"})
	}
}
