package dto

import "time"

type PinRequest struct {
	Kind  string `json:"kind"`
	Hours int    `json:"hours"`
}

type PinResponse struct {
	OK          bool      `json:"ok"`
	ContentID   string    `json:"content_id"`
	Price       int64     `json:"price"`
	PinnedUntil time.Time `json:"pinned_until"`
	Balance     int64     `json:"balance"`
}
