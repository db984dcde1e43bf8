package handlers

import (
	"errors"
	"net/http"
	"strconv"

	authsvc "github.com/pavelgurkov/starfeed/backend/internal/services/auth"
	ledgersvc "github.com/pavelgurkov/starfeed/backend/internal/services/ledger"
	"github.com/pavelgurkov/starfeed/backend/internal/transport/http/dto"
	httperrors "github.com/pavelgurkov/starfeed/backend/internal/transport/http/errors"
)

type StarsHandler struct {
	ledger *ledgersvc.Service
}

func NewStarsHandler(ledger *ledgersvc.Service) *StarsHandler {
	return &StarsHandler{ledger: ledger}
}

func (h *StarsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), identity.AccountID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load balance")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BalanceResponse{
		AccountID: identity.AccountID,
		Balance:   balance,
	})
}

func (h *StarsHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	var req dto.AddStarsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	balance, err := h.ledger.Add(r.Context(), identity.AccountID, req.Amount)
	if err != nil {
		handleLedgerError(w, err, "failed to add stars")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AddStarsResponse{OK: true, Balance: balance})
}

func (h *StarsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	var req dto.WithdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.ledger.Withdraw(r.Context(), identity.AccountID, req.Amount)
	if err != nil {
		handleLedgerError(w, err, "failed to withdraw stars")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WithdrawResponse{
		OK:         true,
		NetPayout:  result.NetPayout,
		Commission: result.Commission,
		Balance:    result.NewBalance,
	})
}

func (h *StarsHandler) Gift(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	var req dto.GiftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.ledger.Gift(r.Context(), identity.AccountID, req.ContentID, req.Amount)
	if err != nil {
		handleLedgerError(w, err, "failed to gift stars")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.GiftResponse{
		OK:        true,
		ContentID: result.ContentID,
		Balance:   result.NewBalance,
	})
}

func (h *StarsHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	entries, err := h.ledger.History(r.Context(), identity.AccountID, limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load history")
		return
	}

	payload := dto.HistoryResponse{Entries: make([]dto.LedgerEntryResponse, 0, len(entries))}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, dto.LedgerEntryResponse{
			ID:        entry.ID,
			Kind:      string(entry.Kind),
			Amount:    entry.Amount,
			RefID:     entry.RefID,
			CreatedAt: entry.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, payload)
}

func handleLedgerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ledgersvc.ErrInvalidAmount):
		writeBadRequest(w, "INVALID_AMOUNT", "amount must be a positive integer")
	case errors.Is(err, ledgersvc.ErrBelowMinimum):
		writeBadRequest(w, "BELOW_MINIMUM", "amount is below the withdrawal minimum")
	case errors.Is(err, ledgersvc.ErrTargetNotFound):
		writeNotFound(w, "TARGET_NOT_FOUND", "gift target not found")
	case errors.Is(err, ledgersvc.ErrInsufficientFunds):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "INSUFFICIENT_FUNDS",
			Message: "balance is too low for this operation",
		})
	default:
		if tf, ok := ledgersvc.IsTooFast(err); ok {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "too many spend operations, slow down",
				RetryAfterSec: tf.RetryAfter(),
			})
			return
		}
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}
