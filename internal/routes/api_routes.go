package routes

import (
	"guesthouse/roomsync/internal/api"
	"guesthouse/roomsync/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, opts RouterOptions) {
	handlers := api.NewHandlers(deps)
	jobsHandler := api.NewJobsHandler(deps.Jobs)

	r.Route("/api/v1", func(v1 chi.Router) {
		if opts.RateLimiter != nil {
			v1.Use(opts.RateLimiter.Middleware)
		}
		v1.Use(middleware.AdminAuthMiddleware(opts.Tokens))

		v1.Route("/sync", func(sync chi.Router) {
			sync.Post("/trigger", handlers.TriggerSyncHandler())
			sync.Get("/entries", handlers.ListEntriesHandler())
			sync.Post("/entries/{id}/dispatch", handlers.DispatchEntryHandler())
			sync.Get("/entries/{id}/logs", handlers.EntryLogsHandler())
			sync.Get("/latest", handlers.LatestSyncsHandler())
		})

		v1.Get("/channel-managers", handlers.ChannelManagersHandler())

		v1.Route("/room-types/{id}", func(room chi.Router) {
			room.Get("/availability", handlers.AvailabilityHandler())
			room.Get("/availability/snapshot", handlers.SnapshotHandler())
			room.Post("/blackouts", handlers.AddBlackoutHandler())
			room.Delete("/blackouts", handlers.RemoveBlackoutHandler())
		})

		v1.Post("/bookings/{id}/events", handlers.BookingEventHandler())

		v1.Route("/jobs", func(j chi.Router) {
			j.Post("/retry-sweep", jobsHandler.TriggerRetrySweep())
			j.Post("/scheduled-sync", jobsHandler.TriggerScheduledSync())
		})
	})
}
