package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouteOptions struct {
	CORSOrigins    []string
	RateLimitRPM   int
	RequestTimeout time.Duration
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

func (h *Handler) Routes(m *Middleware, opts RouteOptions) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(m.Compress)
	r.Use(m.Timeout(opts.RequestTimeout))
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.StripSlashes)

	// CORS and rate limiting - configured from main
	r.Use(m.CORS(opts.CORSOrigins))
	r.Use(m.RateLimit(opts.RateLimitRPM))

	// Health endpoints
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/topics", func(r chi.Router) {
			r.Post("/", h.CreateTopic)
			r.Get("/", h.ListTopics)
			r.Get("/{topic_id}", h.GetTopic)
			r.Put("/{topic_id}", h.UpdateTopic)
			r.Delete("/{topic_id}", h.DeleteTopic)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.CreatePost)
			r.Get("/", h.ListPosts)
			r.Get("/{post_id}", h.GetPost)
			r.Put("/{post_id}", h.UpdatePost)
			r.Delete("/{post_id}", h.DeletePost)

			r.Post("/{post_id}/comments", h.CreateComment)
			r.Get("/{post_id}/comments", h.ListComments)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{comment_id}", h.GetComment)
			r.Put("/{comment_id}", h.UpdateComment)
			r.Delete("/{comment_id}", h.DeleteComment)
		})
	})

	return r
}
