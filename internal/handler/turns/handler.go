package turns

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/auraproject/aura/internal/model/turn"
	"github.com/auraproject/aura/internal/service/brain"
	"github.com/auraproject/aura/pkg/utils"
)

// Handler exposes the routing core over HTTP.
type Handler struct {
	router *brain.Router
}

// New creates the turns handler.
func New(router *brain.Router) *Handler {
	return &Handler{router: router}
}

// RegisterRoutes mounts the turn endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/turns", h.handleCreateTurn)
	r.Get("/turns/window", h.handleWindow)
	r.Get("/turns/export", h.handleExport)
}

// handleCreateTurn runs one utterance through the core and returns the
// recorded turn. Handler failures come back as envelopes, not HTTP errors.
func (h *Handler) handleCreateTurn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text     string `json:"text"`
		Modality string `json:"modality"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	modality := turn.Modality(payload.Modality)
	if modality != turn.ModalityVoice {
		modality = turn.ModalityTyped
	}

	recorded := h.router.Handle(r.Context(), turn.Utterance{
		Text:     payload.Text,
		Modality: modality,
	})

	utils.RespondJSON(w, http.StatusOK, recorded)
}

func (h *Handler) handleWindow(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.router.Window())
}

// handleExport streams the full persisted log as NDJSON in arrival order.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(w)
	err := h.router.Export(r.Context(), func(ct turn.ConversationTurn) error {
		return encoder.Encode(ct)
	})
	if err != nil {
		// Headers are gone; all we can do is cut the stream and log.
		log.Printf("[turns] export aborted: %v", err)
	}
}
