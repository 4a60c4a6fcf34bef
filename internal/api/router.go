package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds optional router features
type RouterConfig struct {
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
	// Requests receives per-request metrics when set.
	Requests RequestRecorder
}

// NewRouter creates the API router
func NewRouter(handler *Handler, logger *log.Logger, config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if config.Requests != nil {
		r.Use(NewMetricsMiddleware(config.Requests))
	}

	r.Get("/health", handler.HealthCheck)
	if config.MetricsHandler != nil {
		r.Handle("/metrics", config.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/timer", func(r chi.Router) {
			r.Get("/", handler.GetTimer)
			r.Post("/start", handler.StartTimer)
			r.Post("/pause", handler.PauseTimer)
			r.Post("/toggle", handler.ToggleTimer)
			r.Post("/reset", handler.ResetTimer)
		})

		r.Route("/plan", func(r chi.Router) {
			r.Get("/", handler.GetPlan)
			r.Put("/", handler.PutPlan)
			r.Delete("/", handler.DeletePlan)
		})

		r.Route("/records", func(r chi.Router) {
			r.Get("/", handler.ListRecords)
			r.Delete("/", handler.ClearRecords)
			r.Get("/{id}", handler.GetRecord)
			r.Delete("/{id}", handler.DeleteRecord)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", handler.GetStats)
			r.Get("/daily", handler.GetDailyStats)
			r.Get("/days", handler.ListDays)
		})
	})

	return r
}
