package model

import (
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
)

type Entitlement struct {
	AccountID       string            `json:"account_id"`
	Active          bool              `json:"active"`
	Tier            enums.PremiumTier `json:"tier"`
	ExpiresAt       *time.Time        `json:"expires_at"`
	IsTrial         bool              `json:"is_trial"`
	MaxVideoSeconds int               `json:"max_video_seconds"`
}
