package handlers

import (
	"errors"
	"net/http"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/model"
	authsvc "github.com/pavelgurkov/starfeed/backend/internal/services/auth"
	premiumsvc "github.com/pavelgurkov/starfeed/backend/internal/services/premium"
	"github.com/pavelgurkov/starfeed/backend/internal/transport/http/dto"
	httperrors "github.com/pavelgurkov/starfeed/backend/internal/transport/http/errors"
)

type PremiumHandler struct {
	premium *premiumsvc.Service
}

func NewPremiumHandler(premium *premiumsvc.Service) *PremiumHandler {
	return &PremiumHandler{premium: premium}
}

func (h *PremiumHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.premium == nil {
		writeInternal(w, "PREMIUM_SERVICE_UNAVAILABLE", "premium service is unavailable")
		return
	}

	status, err := h.premium.GetStatus(r.Context(), identity.AccountID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load premium status")
		return
	}

	httperrors.Write(w, http.StatusOK, mapPremiumStatus(status))
}

func (h *PremiumHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.premium == nil {
		writeInternal(w, "PREMIUM_SERVICE_UNAVAILABLE", "premium service is unavailable")
		return
	}

	var req dto.PremiumPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.premium.Purchase(r.Context(), identity.AccountID, req.Tier, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, premiumsvc.ErrValidation), errors.Is(err, premiumsvc.ErrUnknownTier):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid premium purchase payload")
		case errors.Is(err, premiumsvc.ErrPriceMismatch):
			writeBadRequest(w, "PRICE_MISMATCH", "amount does not match the tier price")
		case errors.Is(err, premiumsvc.ErrInsufficientFunds):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "INSUFFICIENT_FUNDS",
				Message: "balance is too low for this purchase",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to purchase premium")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PremiumPurchaseResponse{
		OK:      true,
		Status:  mapPremiumStatus(result.Entitlement),
		Balance: result.NewBalance,
	})
}

func mapPremiumStatus(ent model.Entitlement) dto.PremiumStatusResponse {
	return dto.PremiumStatusResponse{
		Active:          ent.Active,
		Tier:            string(ent.Tier),
		ExpiresAt:       ent.ExpiresAt,
		IsTrial:         ent.IsTrial,
		MaxVideoSeconds: ent.MaxVideoSeconds,
	}
}
