package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/auraproject/aura/internal/handler/events"
	"github.com/auraproject/aura/internal/handler/turns"
	middlewarePkg "github.com/auraproject/aura/internal/middleware"
	"github.com/auraproject/aura/internal/service/brain"
	"github.com/auraproject/aura/pkg/utils"
)

// NewRouter wires HTTP routes to the routing core.
func NewRouter(brainRouter *brain.Router, hub *events.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	turnsHandler := turns.New(brainRouter)

	r.Route("/api", func(api chi.Router) {
		turnsHandler.RegisterRoutes(api)

		if hub != nil {
			hub.RegisterRoutes(api)
		}

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
