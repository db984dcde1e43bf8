package dto

import "time"

type ContentCreateRequest struct {
	Kind         string `json:"kind"`
	Caption      string `json:"caption"`
	VideoSeconds int    `json:"video_seconds"`
}

type ContentItemResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Kind         string     `json:"kind"`
	Caption      string     `json:"caption,omitempty"`
	VideoSeconds int        `json:"video_seconds,omitempty"`
	StarCount    int64      `json:"star_count"`
	Pinned       bool       `json:"pinned"`
	PinnedUntil  *time.Time `json:"pinned_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type FeedResponse struct {
	Items []ContentItemResponse `json:"items"`
}
