package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes wires every spec §6.1 control-surface operation onto an
// HTTP route. Session-scoped operations are nested under
// /session/{name} and keyed by the session's own name rather than a
// generated ID, since a session's name is the identity the control
// surface already addresses it by.
func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/session", func(r chi.Router) {
		r.Post("/", s.createSession)

		r.Route("/{name}", func(r chi.Router) {
			r.Post("/start", s.startSession)
			r.Post("/pause", s.pauseSession)
			r.Post("/resume", s.resumeSession)
			r.Post("/terminate", s.terminateSession)
			r.Post("/reset", s.resetSession)
			r.Post("/revert", s.revertSession)
			r.Delete("/", s.deleteSession)

			r.Post("/event", s.postEvent)
			r.Get("/events", s.getEvents)
			r.Get("/events/stream", s.streamEvents)
			r.Get("/diff", s.getDiff)
			r.Post("/response", s.postResponse)
			r.Get("/status", s.getStatus)
			r.Get("/config", s.getConfig)
		})
	})
}
