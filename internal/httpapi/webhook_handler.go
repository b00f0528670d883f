package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/DPT73/urban-art-project/internal/webhook"
)

type WebhookHandler struct {
	processor *webhook.Processor
}

func NewWebhookHandler(processor *webhook.Processor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

type WebhookResponseDTO struct {
	Received bool `json:"received"`
}

// POST /webhook
//
// The body must be read raw: signature verification covers the exact
// bytes the processor sent.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	_, err = h.processor.Process(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNoSecret):
			slog.Error("webhook received but no signing secret is configured")
			respondError(w, http.StatusInternalServerError, "not_configured",
				"webhook processing is not configured")
		case errors.Is(err, webhook.ErrMissingSignature):
			respondError(w, http.StatusBadRequest, "missing_signature", "missing signature header")
		case errors.Is(err, webhook.ErrInvalidSignature):
			slog.Warn("webhook signature verification failed", "error", err)
			respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		default:
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid webhook payload")
		}
		return
	}

	respondJSON(w, http.StatusOK, WebhookResponseDTO{Received: true})
}
