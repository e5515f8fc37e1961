package handlers

import (
	"net/http"

	"taskboard/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	RateLimitRPM   int
	RateLimitBurst int
	// Gatherer serves /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
}

func NewRouter(h *TaskHandler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	if cfg.RateLimitRPM > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPM, cfg.RateLimitBurst))
	}

	r.Get("/", h.Index)             // GET /
	r.Get("/events", h.Events)      // GET /events
	r.Get("/blobs/*", h.GetBlob)    // GET /blobs/files/{name}
	r.Get("/health", h.HealthCheck) // GET /health
	r.Post("/tasks", h.SubmitTask)  // POST /tasks
	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Post("/done", h.SubmitDone)     // POST /tasks/{id}/done
		r.Post("/delete", h.SubmitDelete) // POST /tasks/{id}/delete
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", h.GetTasks)  // GET /api/tasks
		r.Post("/", h.PostTask) // POST /api/tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Post("/done", h.PostDone) // POST /api/tasks/{id}/done
			r.Delete("/", h.DeleteTask) // DELETE /api/tasks/{id}
		})
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
