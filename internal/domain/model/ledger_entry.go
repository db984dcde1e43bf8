package model

import (
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
)

// LedgerEntry is an append-only record of one balance mutation. Entries are
// never updated or deleted; corrections are new entries.
type LedgerEntry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      enums.EntryKind `json:"kind"`
	Amount    int64           `json:"amount"`
	RefID     string          `json:"ref_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
