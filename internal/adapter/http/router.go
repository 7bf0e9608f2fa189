package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/adapter/http/handler"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BatchHandler         *handler.BatchHandler
	JournalHandler       *handler.JournalHandler
	ReferenceHandler     *handler.ReferenceHandler
	ConsolidationHandler *handler.ConsolidationHandler
	AccrualHandler       *handler.AccrualHandler
	LedgerHandler        *handler.LedgerHandler
	HealthHandler        *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	// MetricsHandler serves /metrics; defaults to promhttp.Handler().
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/clients/{clientId}", func(r chi.Router) {
			r.Get("/accounts", cfg.ReferenceHandler.Accounts)
			r.Get("/dimensions", cfg.ReferenceHandler.Dimensions)

			r.Route("/journal-entries", func(r chi.Router) {
				r.Get("/", cfg.JournalHandler.List)
				r.Post("/batch-validate", cfg.BatchHandler.Validate)

				process := http.Handler(http.HandlerFunc(cfg.BatchHandler.Process))
				if cfg.IdempotencyStore != nil {
					process = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger).
						WithTTL(cfg.IdempotencyTTL).
						Wrap(process)
				}
				r.Method(http.MethodPost, "/batch-process", process)
			})
		})

		r.Route("/journal-entries/{id}", func(r chi.Router) {
			r.Get("/", cfg.JournalHandler.Get)
			r.Post("/submit", cfg.JournalHandler.Submit)
			r.Post("/approve", cfg.JournalHandler.Approve)
		})

		r.Route("/consolidation", func(r chi.Router) {
			r.Post("/groups", cfg.ConsolidationHandler.CreateGroup)
			r.Route("/groups/{groupId}", func(r chi.Router) {
				r.Get("/", cfg.ConsolidationHandler.GetGroup)
				r.Post("/entities", cfg.ConsolidationHandler.AddEntity)
				r.Delete("/entities/{entityId}", cfg.ConsolidationHandler.RemoveEntity)
			})
			r.Get("/reports", cfg.ConsolidationHandler.GetReport)
			r.Post("/reports", cfg.ConsolidationHandler.PostReport)
		})

		r.Post("/admin/accruals/process", cfg.AccrualHandler.Process)
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
