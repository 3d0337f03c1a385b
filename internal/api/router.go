package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/proforma-studio/engine/internal/api/handlers"
	mw "github.com/proforma-studio/engine/internal/api/middleware"
)

type Dependencies struct {
	ScheduleHandler *handlers.ScheduleHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler()
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/schedule", func(sr chi.Router) {
			sr.Post("/calculate", dep.ScheduleHandler.Calculate)
			sr.Post("/recalculate", dep.ScheduleHandler.Recalculate)
		})

		api.Route("/projects/{id}", func(pr chi.Router) {
			pr.Get("/schedule", dep.ScheduleHandler.ProjectSchedule)
			pr.Get("/schedule/log", dep.ScheduleHandler.RecalculationLog)
		})
	})

	return r
}
