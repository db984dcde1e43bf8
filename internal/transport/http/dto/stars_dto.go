package dto

import "time"

type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

type AddStarsRequest struct {
	Amount int64 `json:"amount"`
}

type AddStarsResponse struct {
	OK      bool  `json:"ok"`
	Balance int64 `json:"balance"`
}

type WithdrawRequest struct {
	Amount int64 `json:"amount"`
}

type WithdrawResponse struct {
	OK         bool  `json:"ok"`
	NetPayout  int64 `json:"net_payout"`
	Commission int64 `json:"commission"`
	Balance    int64 `json:"balance"`
}

type GiftRequest struct {
	ContentID string `json:"content_id"`
	Amount    int64  `json:"amount"`
}

type GiftResponse struct {
	OK        bool   `json:"ok"`
	ContentID string `json:"content_id"`
	Balance   int64  `json:"balance"`
}

type LedgerEntryResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	RefID     string    `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
}
