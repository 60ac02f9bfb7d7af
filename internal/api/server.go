package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"routine-planner/internal/auth"
)

// NewRouter creates a new router with all routes configured. allowedOrigins
// feeds CORS; the Mini App origin is usually the only entry.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", auth.HeaderInitData, auth.HeaderUserID},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.Authenticate)

		r.Get("/auth/me", h.Me)
		r.Get("/dashboard", h.Dashboard)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Post("/reorder", h.ReorderTasks)
			r.Put("/{id}", h.UpdateTask)
			r.Delete("/{id}", h.DeleteTask)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/start_day", h.StartDay)
			r.Post("/close_day", h.CloseDay)
			r.Post("/start_week", h.StartWeek)
			r.Post("/close_week", h.CloseWeek)
		})

		r.Route("/instances", func(r chi.Router) {
			r.Get("/", h.ListInstances)
			r.Put("/{id}/status", h.SetInstanceStatus)
			r.Post("/add_backlog", h.AddBacklog)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", h.Stats)
			r.Get("/details", h.StatsDetails)
			r.Delete("/", h.ClearStats)
		})
	})

	return r
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
