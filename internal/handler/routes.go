package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Instructions *instructionHandler
	Deployment   *deploymentHandler
	// Submissions is nil when no journal is configured.
	Submissions *submissionHandler
}

func CreateRoutes(h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/instructions", func(r chi.Router) {
		r.Post("/encode", h.Instructions.Encode)
		r.Post("/decode", h.Instructions.Decode)
		r.Post("/simulate", h.Instructions.Simulate)
		r.Post("/submit", h.Instructions.Submit)
	})

	r.Route("/deployment", func(r chi.Router) {
		r.Get("/", h.Deployment.Get)
		r.Put("/", h.Deployment.Put)
	})

	if h.Submissions != nil {
		r.Post("/submissions/search", h.Submissions.Search)
	}

	return r
}
