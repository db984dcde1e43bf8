package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/pavelgurkov/starfeed/backend/internal/services/auth"
	promosvc "github.com/pavelgurkov/starfeed/backend/internal/services/promo"
	"github.com/pavelgurkov/starfeed/backend/internal/transport/http/dto"
	httperrors "github.com/pavelgurkov/starfeed/backend/internal/transport/http/errors"
)

type PromoHandler struct {
	promo *promosvc.Service
}

func NewPromoHandler(promo *promosvc.Service) *PromoHandler {
	return &PromoHandler{promo: promo}
}

func (h *PromoHandler) Pin(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.promo == nil {
		writeInternal(w, "PROMO_SERVICE_UNAVAILABLE", "promo service is unavailable")
		return
	}

	var req dto.PinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.promo.Pin(r.Context(), identity.AccountID, req.Kind, req.Hours)
	if err != nil {
		switch {
		case errors.Is(err, promosvc.ErrValidation), errors.Is(err, promosvc.ErrUnknownKind):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid pin payload")
		case errors.Is(err, promosvc.ErrNoContent):
			writeNotFound(w, "NO_CONTENT_FOUND", "no content of this kind to pin")
		case errors.Is(err, promosvc.ErrInsufficientFunds):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "INSUFFICIENT_FUNDS",
				Message: "balance is too low for this pin",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to pin content")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PinResponse{
		OK:          true,
		ContentID:   result.ContentID,
		Price:       result.Price,
		PinnedUntil: result.PinnedUntil,
		Balance:     result.NewBalance,
	})
}
