package wire

import (
	"cleaning-booking/internal/adaptor"
	"cleaning-booking/pkg/middleware"
	"cleaning-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCleaner(r chi.Router, cleanerHandler *adaptor.CleanerHandler, log *zap.Logger) {
	r.Route("/api/cleaner/jobs", func(r chi.Router) {
		r.Use(middleware.Identity(log))
		r.Use(middleware.RequireRole(log, utils.RoleCleaner))

		r.Get("/", cleanerHandler.ListJobs)
		r.Put("/{id}/accept", cleanerHandler.Accept)
		r.Put("/{id}/decline", cleanerHandler.Decline)
		r.Put("/{id}/start", cleanerHandler.Start)
		r.Put("/{id}/progress", cleanerHandler.UpdateProgress)
		r.Put("/{id}/complete", cleanerHandler.Complete)
	})
}
