package handler

import (
	"net/http"

	"cart-offer/internal/model"
	"cart-offer/internal/service"

	"github.com/rs/zerolog"
)

// OfferHandler handles offer-related HTTP requests.
type OfferHandler struct {
	service service.OfferService
	logger  zerolog.Logger
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(service service.OfferService, logger zerolog.Logger) *OfferHandler {
	return &OfferHandler{
		service: service,
		logger:  logger.With().Str("handler", "offer").Logger(),
	}
}

// Create handles POST /api/v1/offer requests.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OfferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if _, err := h.service.CreateOffer(r.Context(), &req); err != nil {
		writeServiceError(w, err, "failed to create offer", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.OfferResponse{ResponseMsg: "success"})
}
