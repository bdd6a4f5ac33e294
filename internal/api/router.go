package api

import (
	"net/http"

	"github.com/Rrens/auditlens/internal/api/handler"
	customMiddleware "github.com/Rrens/auditlens/internal/api/middleware"
	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/Rrens/auditlens/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the wired services the router exposes
type Dependencies struct {
	Chat     *service.ChatService
	Provider llm.Provider
	Spooler  *handler.Spooler
	Ready    handler.ReadyFunc
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg config.ServerConfig, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.MiddlewareTimeout))
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(deps.Chat, deps.Spooler, cfg.MaxUploadBytes)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Provider, deps.Ready))
		r.Get("/provider", handler.ProviderInfo(deps.Provider))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", chatHandler.List)
			r.Post("/", chatHandler.Start)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Use(customMiddleware.SessionContext)

				r.Delete("/", chatHandler.End)
				r.Post("/resume", chatHandler.Resume)
				r.Get("/history", chatHandler.History)
				r.Post("/messages", chatHandler.Send)
			})
		})
	})

	return r
}
