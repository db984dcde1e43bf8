package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
	contentsvc "github.com/pavelgurkov/starfeed/backend/internal/services/content"
	"github.com/pavelgurkov/starfeed/backend/internal/transport/http/dto"
)

type handlerContentStore struct {
	records []pgrepo.ContentRecord
}

func (s *handlerContentStore) Insert(_ context.Context, ownerID, kind, caption string, videoSeconds int) (pgrepo.ContentRecord, error) {
	rec := pgrepo.ContentRecord{
		ID:           "content-1",
		OwnerID:      ownerID,
		Kind:         kind,
		Caption:      caption,
		VideoSeconds: videoSeconds,
		CreatedAt:    time.Now().UTC(),
	}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *handlerContentStore) List(_ context.Context, _ time.Time, _ int) ([]pgrepo.ContentRecord, error) {
	return s.records, nil
}

func (s *handlerContentStore) ListByOwner(_ context.Context, ownerID string, _ time.Time, _ int) ([]pgrepo.ContentRecord, error) {
	var out []pgrepo.ContentRecord
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fixedVideoCap int

func (c fixedVideoCap) MaxVideoSeconds(context.Context, string) (int, error) {
	return int(c), nil
}

func TestContentCreateEnforcesVideoCapOverHTTP(t *testing.T) {
	store := &handlerContentStore{}
	handler := NewContentHandler(contentsvc.NewService(store, fixedVideoCap(60)))

	rr := httptest.NewRecorder()
	handler.Create(rr, authedRequest(http.MethodPost, "/content", `{"kind":"post","video_seconds":120}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d body %s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["code"] != "VIDEO_TOO_LONG" {
		t.Fatalf("unexpected error code: %v", payload["code"])
	}
	if len(store.records) != 0 {
		t.Fatalf("rejected content must not be stored")
	}
}

func TestContentCreateAndFeedOverHTTP(t *testing.T) {
	store := &handlerContentStore{}
	handler := NewContentHandler(contentsvc.NewService(store, fixedVideoCap(300)))

	rr := httptest.NewRecorder()
	handler.Create(rr, authedRequest(http.MethodPost, "/content", `{"kind":"story","caption":"hello"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("create status: got %d body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.Feed(rr, httptest.NewRequest(http.MethodGet, "/feed", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("feed status: got %d body %s", rr.Code, rr.Body.String())
	}

	var payload dto.FeedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("unexpected feed size: %d", len(payload.Items))
	}
	item := payload.Items[0]
	if item.Kind != "story" || item.Caption != "hello" || item.OwnerID != "tg_777" {
		t.Fatalf("unexpected feed item: %+v", item)
	}
	if item.Pinned {
		t.Fatalf("fresh content must not read as pinned")
	}
}
