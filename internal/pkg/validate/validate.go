package validate

import "strings"

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func PositiveAmount(amount int64) bool {
	return amount > 0
}
