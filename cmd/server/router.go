package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/copycraft-api/internal/api"
	apiMiddleware "github.com/phrazzld/copycraft-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	flowHandler := api.NewFlowHandler(app.suite)

	r.Route("/api", func(r chi.Router) {
		if timeout := app.config.Server.RequestTimeoutSeconds; timeout > 0 {
			r.Use(middleware.Timeout(time.Duration(timeout) * time.Second))
		}
		r.Get("/flows", flowHandler.ListFlows)
		r.Post("/flows/{"+api.FlowParam+"}", flowHandler.RunFlow)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
