package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rakhasetya/duitbot/internal/api/middleware"
	"github.com/rakhasetya/duitbot/internal/orchestrator"
)

// EventHandler is the orchestration surface the webhook endpoint calls.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev orchestrator.Event) (orchestrator.Status, error)
}

// WebhookHandler handles the inbound gateway webhook.
type WebhookHandler struct {
	orchestrator EventHandler
	log          zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(o EventHandler, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		orchestrator: o,
		log:          log,
	}
}

// webhookRequest is the gateway's envelope. The payload is decoded
// permissively: unknown fields are allowed and ignored.
type webhookRequest struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type messagePayload struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// Receive handles POST /webhook.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Event == "" {
		middleware.WriteError(w, http.StatusBadRequest, "event is required")
		return
	}

	var payload messagePayload
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
	}

	// A message event that will actually be processed needs the sender
	// and body to be meaningful.
	if req.Event == "message" && payload.ID != "" && (payload.From == "" || payload.Body == "") {
		middleware.WriteError(w, http.StatusBadRequest, "payload must contain from and body")
		return
	}

	ev := orchestrator.Event{
		Name: req.Event,
		Message: orchestrator.Message{
			ID:   payload.ID,
			From: payload.From,
			To:   payload.To,
			Body: payload.Body,
		},
	}

	status, err := h.orchestrator.HandleEvent(ctx, ev)
	if err != nil {
		h.log.Error().Err(err).Str("event", req.Event).Msg("Failed to process webhook event")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process event")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
