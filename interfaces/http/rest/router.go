// Package rest exposes view sessions over HTTP.
package rest

import (
	"net/http"
	"time"

	"kgview/application/ports"
	"kgview/application/session"
	"kgview/interfaces/http/rest/handlers"
	"kgview/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Collector records request metrics and serves the metrics endpoint
type Collector interface {
	middleware.RequestRecorder
	Handler() http.Handler
}

// Options tune the router
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	Collector      Collector
	Clock          func() time.Time
}

// Router creates and configures the HTTP router
type Router struct {
	sessions *session.Manager
	stream   ports.EventStream
	options  Options
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(sessions *session.Manager, stream ports.EventStream, options Options, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(options.AllowedOrigins) == 0 {
		options.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	return &Router{sessions: sessions, stream: stream, options: options, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.options.Collector != nil {
		router.Use(middleware.Metrics(rt.options.Collector))
	}

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.options.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.options.Collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.options.Collector.Handler())
	}

	sessionHandler := handlers.NewSessionHandler(rt.sessions, rt.options.Clock, rt.logger)
	eventsHandler := handlers.NewEventsHandler(rt.sessions, rt.stream, rt.logger)

	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.CreateSession)
		r.Get("/", sessionHandler.ListSessions)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Delete("/", sessionHandler.DeleteSession)

			r.Post("/refresh", sessionHandler.Refresh)
			r.Post("/retry", sessionHandler.Retry)
			r.Post("/query", sessionHandler.Query)

			r.Get("/frame", sessionHandler.GetFrame)
			r.Post("/tick", sessionHandler.Tick)
			r.Put("/params", sessionHandler.UpdateParams)

			r.Post("/select", sessionHandler.Select)
			r.Post("/hover", sessionHandler.Hover)
			r.Post("/drag/start", sessionHandler.DragStart)
			r.Post("/drag/move", sessionHandler.DragMove)
			r.Post("/drag/end", sessionHandler.DragEnd)

			r.Get("/nodes/{nodeID}/stats", sessionHandler.NodeStatistics)
			r.Post("/highlight", sessionHandler.Highlight)
			r.Delete("/highlight", sessionHandler.ClearHighlight)

			r.Get("/events", eventsHandler.Stream)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
