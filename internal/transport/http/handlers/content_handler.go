package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/model"
	authsvc "github.com/pavelgurkov/starfeed/backend/internal/services/auth"
	contentsvc "github.com/pavelgurkov/starfeed/backend/internal/services/content"
	"github.com/pavelgurkov/starfeed/backend/internal/transport/http/dto"
	httperrors "github.com/pavelgurkov/starfeed/backend/internal/transport/http/errors"
)

type ContentHandler struct {
	content *contentsvc.Service
}

func NewContentHandler(content *contentsvc.Service) *ContentHandler {
	return &ContentHandler{content: content}
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.content == nil {
		writeInternal(w, "CONTENT_SERVICE_UNAVAILABLE", "content service is unavailable")
		return
	}

	var req dto.ContentCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	item, err := h.content.Create(r.Context(), identity.AccountID, contentsvc.CreateInput{
		Kind:         req.Kind,
		Caption:      req.Caption,
		VideoSeconds: req.VideoSeconds,
	})
	if err != nil {
		switch {
		case errors.Is(err, contentsvc.ErrValidation), errors.Is(err, contentsvc.ErrUnknownKind):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid content payload")
		case errors.Is(err, contentsvc.ErrVideoTooLong):
			writeBadRequest(w, "VIDEO_TOO_LONG", "video exceeds the duration allowed by your plan")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to create content")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, mapContentItem(item, time.Now().UTC()))
}

func (h *ContentHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		writeInternal(w, "CONTENT_SERVICE_UNAVAILABLE", "content service is unavailable")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	var (
		items []model.ContentItem
		err   error
	)
	if owner := r.URL.Query().Get("owner_id"); owner != "" {
		items, err = h.content.OwnerFeed(r.Context(), owner, limit)
	} else {
		items, err = h.content.Feed(r.Context(), limit)
	}
	if err != nil {
		if errors.Is(err, contentsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid feed query")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load feed")
		return
	}

	now := time.Now().UTC()
	payload := dto.FeedResponse{Items: make([]dto.ContentItemResponse, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, mapContentItem(item, now))
	}

	httperrors.Write(w, http.StatusOK, payload)
}

func mapContentItem(item model.ContentItem, at time.Time) dto.ContentItemResponse {
	return dto.ContentItemResponse{
		ID:           item.ID,
		OwnerID:      item.OwnerID,
		Kind:         string(item.Kind),
		Caption:      item.Caption,
		VideoSeconds: item.VideoSeconds,
		StarCount:    item.StarCount,
		Pinned:       item.Pinned(at),
		PinnedUntil:  item.PinnedUntil,
		CreatedAt:    item.CreatedAt,
	}
}
