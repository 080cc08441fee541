package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
	"github.com/DoyleJ11/icq-rps-backend/internal/hub"
	"github.com/DoyleJ11/icq-rps-backend/internal/ws"
)

// SetupRoutes builds the router. rules applies to games created without
// their own rules.
func SetupRoutes(h *hub.Hub, rules engine.Rules, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log.Named("ws")))

	r.Route("/games", func(r chi.Router) {
		r.Post("/", CreateGame(h, rules, log))
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", GetGame(h))
			r.Post("/join", JoinGame(h, log))
			r.Post("/actions", PostAction(h))
		})
	})
	return r
}
