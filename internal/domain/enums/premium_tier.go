package enums

import "strings"

type PremiumTier string

const (
	PremiumTierStandard PremiumTier = "standard"
	PremiumTierBlogger  PremiumTier = "blogger"
)

func ParsePremiumTier(raw string) (PremiumTier, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PremiumTierStandard):
		return PremiumTierStandard, true
	case string(PremiumTierBlogger):
		return PremiumTierBlogger, true
	default:
		return "", false
	}
}
