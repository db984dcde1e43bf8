package rules

import (
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
)

const (
	PremiumPriceStandard int64 = 120
	PremiumPriceBlogger  int64 = 180

	PremiumDuration = 30 * 24 * time.Hour
	TrialDuration   = 7 * 24 * time.Hour

	MaxVideoSecondsStandard = 300
	MaxVideoSecondsBlogger  = 1080
	MaxVideoSecondsFree     = 60

	PinHourlyRateStory int64 = 300
	PinHourlyRatePost  int64 = 200

	PinMinHours = 1
	PinMaxHours = 24
)

func PremiumPrice(tier enums.PremiumTier) (int64, bool) {
	switch tier {
	case enums.PremiumTierStandard:
		return PremiumPriceStandard, true
	case enums.PremiumTierBlogger:
		return PremiumPriceBlogger, true
	default:
		return 0, false
	}
}

func MaxVideoSeconds(tier enums.PremiumTier) int {
	if tier == enums.PremiumTierBlogger {
		return MaxVideoSecondsBlogger
	}
	return MaxVideoSecondsStandard
}

func ClampPinHours(hours int) int {
	if hours < PinMinHours {
		return PinMinHours
	}
	if hours > PinMaxHours {
		return PinMaxHours
	}
	return hours
}

func PinPrice(kind enums.ContentKind, hours int) int64 {
	rate := PinHourlyRatePost
	if kind == enums.ContentKindStory {
		rate = PinHourlyRateStory
	}
	return rate * int64(ClampPinHours(hours))
}
