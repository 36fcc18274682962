package api

import (
	"net/http"

	"github.com/dom/writing-assistant/internal/api/handlers"
	"github.com/dom/writing-assistant/internal/api/middleware"
	"github.com/dom/writing-assistant/internal/service"
	"github.com/dom/writing-assistant/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func NewRouter(services *service.Services, sessions *session.Manager, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(logger)...)
	r.Use(middleware.Recoverer)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.NoCache)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, sessions)
	writingHandler := handlers.NewWritingHandler(services.Writing, sessions)

	r.With(middleware.OptionalSession(sessions)).Get("/", authHandler.Index)
	r.Post("/auth", authHandler.Submit)
	r.Post("/logout", authHandler.Logout)

	// Protected routes
	r.Route("/writing", func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions))
		r.Get("/", writingHandler.Get)
		r.Post("/", writingHandler.Submit)
	})

	return r
}
