package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-homematic/internal/auth"
	"github.com/nerrad567/gray-logic-homematic/internal/bridge"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Group(func(r chi.Router) {
				r.Use(requirePermission(auth.PermEntityRead))

				r.Route("/devices", func(r chi.Router) {
					r.Get("/", s.handleListDevices)
					r.Get("/{address}", s.handleGetDevice)
				})

				r.Get("/entities", s.handleListEntities)
				r.Get("/entities/{id}", s.handleGetEntity)
				r.Get("/interfaces/{id}/pingpong", s.handleGetPingPong)

				// WebSocket
				r.Get("/ws", s.handleWebSocket)
			})

			r.Group(func(r chi.Router) {
				r.Use(requirePermission(auth.PermEntityOperate))
				r.Post("/entities/{id}/turn_on", s.handleEntityCommand(bridge.CommandTurnOn))
				r.Post("/entities/{id}/turn_off", s.handleEntityCommand(bridge.CommandTurnOff))
				r.Post("/entities/{id}/open", s.handleEntityCommand(bridge.CommandOpen))
				r.Post("/entities/{id}/close", s.handleEntityCommand(bridge.CommandClose))
				r.Post("/entities/{id}/stop", s.handleEntityCommand(bridge.CommandStop))
				r.Post("/entities/{id}/set_position", s.handleEntityCommand(bridge.CommandSetPosition))
				r.Post("/entities/{id}/open_tilt", s.handleEntityCommand(bridge.CommandOpenTilt))
				r.Post("/entities/{id}/close_tilt", s.handleEntityCommand(bridge.CommandCloseTilt))
				r.Post("/entities/{id}/stop_tilt", s.handleEntityCommand(bridge.CommandStopTilt))
				r.Post("/entities/{id}/vent", s.handleEntityCommand(bridge.CommandVent))
			})

			r.With(requirePermission(auth.PermCacheRefresh)).Post("/caches/refresh", s.handleRefreshCaches)
		})
	})

	return r
}
