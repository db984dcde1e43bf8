package enums

type EntryKind string

const (
	EntryKindTopup    EntryKind = "topup"
	EntryKindWithdraw EntryKind = "withdraw"
	EntryKindGiftOut  EntryKind = "gift_out"
	EntryKindPremium  EntryKind = "premium"
	EntryKindPin      EntryKind = "pin"
)
