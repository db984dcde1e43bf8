package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	authsvc "github.com/pavelgurkov/starfeed/backend/internal/services/auth"
	"github.com/pavelgurkov/starfeed/backend/internal/transport/http/dto"
	httperrors "github.com/pavelgurkov/starfeed/backend/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
}

func NewAuthHandler(service *authsvc.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Telegram(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.TelegramAuthRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	res, err := h.service.LoginTelegram(r.Context(), req.InitData)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidInput):
			writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
		case errors.Is(err, authsvc.ErrUnauthorized):
			writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AuthTokenResponse{
		AccessToken:  res.AccessToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.ExpiresAt).Seconds())),
		AccountID:    res.AccountID,
	})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
