package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dnalab/design-evolution/internal/api"
	apiMiddleware "github.com/dnalab/design-evolution/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	// status polling runs every couple of seconds per client
	r.Use(apiMiddleware.RequestLogger("/api/status/", "/health"))
	r.Use(middleware.Recoverer)

	evolutionHandler := api.NewEvolutionHandler(app.evolutionService, app.logger)
	eventsHandler := api.NewEventsHandler(app.evolutionService, app.subscriptions, app.logger)
	submitLimit := apiMiddleware.RateLimit(
		apiMiddleware.NewLimiter(app.config.API.SubmitRatePerSecond, app.config.API.SubmitBurst),
	)

	r.Get("/health", api.Health)

	r.Route("/api", func(r chi.Router) {
		// Endpoints that start model calls
		r.Group(func(r chi.Router) {
			r.Use(submitLimit)
			r.Post("/feedback", evolutionHandler.SubmitFeedback)
			r.Post("/transcribe", evolutionHandler.Transcribe)
		})

		r.Get("/status/{taskID}", evolutionHandler.GetStatus)
		r.Get("/images/{filename}", evolutionHandler.GetImage)
		r.Get("/tasks/{taskID}/events", eventsHandler.StreamTask)
	})

	if dir := app.config.Server.StaticDir; dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	return r
}
