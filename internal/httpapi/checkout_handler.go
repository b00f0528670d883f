package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DPT73/urban-art-project/internal/checkout"
)

type CheckoutHandler struct {
	service        *checkout.Service
	publishableKey string
}

func NewCheckoutHandler(service *checkout.Service, publishableKey string) *CheckoutHandler {
	return &CheckoutHandler{
		service:        service,
		publishableKey: publishableKey,
	}
}

type ConfigResponseDTO struct {
	PublishableKey string `json:"publishableKey"`
}

// GET /api/config
func (h *CheckoutHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if h.publishableKey == "" {
		respondError(w, http.StatusInternalServerError, "not_configured",
			"payment processing is not configured")
		return
	}
	respondJSON(w, http.StatusOK, ConfigResponseDTO{PublishableKey: h.publishableKey})
}

// POST /api/create-checkout-session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req checkout.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.service.CreateSession(r.Context(), &req)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, "invalid_request", verr.Error())
			return
		}
		// Processor details never leave the server.
		respondError(w, http.StatusInternalServerError, "checkout_failed",
			"failed to create checkout session")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GET /api/checkout-session/{sessionID}
func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	status, err := h.service.SessionStatus(r.Context(), id)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, "invalid_request", verr.Error())
		case errors.Is(err, checkout.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
		default:
			respondError(w, http.StatusInternalServerError, "lookup_failed",
				"failed to retrieve checkout session")
		}
		return
	}

	respondJSON(w, http.StatusOK, status)
}
