package model

import (
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
)

type ContentItem struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"owner_id"`
	Kind         enums.ContentKind `json:"kind"`
	Caption      string            `json:"caption,omitempty"`
	VideoSeconds int               `json:"video_seconds,omitempty"`
	StarCount    int64             `json:"star_count"`
	PinnedUntil  *time.Time        `json:"pinned_until,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Pinned is derived from pinned_until, never stored as a flag.
func (c ContentItem) Pinned(at time.Time) bool {
	return c.PinnedUntil != nil && c.PinnedUntil.After(at)
}
