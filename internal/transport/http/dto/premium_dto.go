package dto

import "time"

type PremiumStatusResponse struct {
	Active          bool       `json:"active"`
	Tier            string     `json:"tier"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	IsTrial         bool       `json:"is_trial"`
	MaxVideoSeconds int        `json:"max_video_seconds"`
}

type PremiumPurchaseRequest struct {
	Tier   string `json:"tier"`
	Amount int64  `json:"amount"`
}

type PremiumPurchaseResponse struct {
	OK      bool                  `json:"ok"`
	Status  PremiumStatusResponse `json:"status"`
	Balance int64                 `json:"balance"`
}
