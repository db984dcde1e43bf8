package rules

const (
	MinWithdrawal = 100

	commissionLowPercent  = 10
	commissionMidPercent  = 7
	commissionHighPercent = 5

	commissionMidThreshold  = 2000
	commissionHighThreshold = 5000
)

// CommissionPercent evaluates thresholds highest-first; equality at a
// threshold takes that threshold's rate. Privileged accounts pay nothing.
func CommissionPercent(amount int64, privileged bool) int64 {
	if privileged {
		return 0
	}
	switch {
	case amount >= commissionHighThreshold:
		return commissionHighPercent
	case amount >= commissionMidThreshold:
		return commissionMidPercent
	default:
		return commissionLowPercent
	}
}

func Commission(amount int64, privileged bool) int64 {
	return amount * CommissionPercent(amount, privileged) / 100
}

func NetPayout(amount int64, privileged bool) int64 {
	return amount - Commission(amount, privileged)
}
