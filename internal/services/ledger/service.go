package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
	"github.com/pavelgurkov/starfeed/backend/internal/domain/model"
	"github.com/pavelgurkov/starfeed/backend/internal/domain/rules"
	"github.com/pavelgurkov/starfeed/backend/internal/pkg/validate"
	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
	ratesvc "github.com/pavelgurkov/starfeed/backend/internal/services/rate"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrBelowMinimum      = errors.New("withdrawal below minimum")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTargetNotFound    = errors.New("gift target not found")
	ErrDependenciesNil   = errors.New("ledger dependencies are not configured")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type BalanceStore interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	Credit(ctx context.Context, accountID string, amount int64, kind, refID string) (int64, error)
	Debit(ctx context.Context, accountID string, amount int64, kind, refID string) (int64, error)
	ListEntries(ctx context.Context, accountID string, limit int) ([]pgrepo.LedgerEntryRecord, error)
}

type ContentStore interface {
	FindByID(ctx context.Context, contentID string) (pgrepo.ContentRecord, error)
	IncrementStars(ctx context.Context, contentID string, delta int64) error
}

type Config struct {
	MinWithdrawal int64
	PrivilegedIDs []string
}

type Dependencies struct {
	Balances    BalanceStore
	Contents    ContentStore
	RateLimiter *ratesvc.Limiter
	Logger      *zap.Logger
}

type Service struct {
	balances   BalanceStore
	contents   ContentStore
	limiter    *ratesvc.Limiter
	logger     *zap.Logger
	privileged map[string]struct{}
	minAmount  int64
	now        func() time.Time
}

type WithdrawResult struct {
	NewBalance int64
	NetPayout  int64
	Commission int64
}

type GiftResult struct {
	NewBalance int64
	ContentID  string
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MinWithdrawal <= 0 {
		cfg.MinWithdrawal = rules.MinWithdrawal
	}

	privileged := make(map[string]struct{}, len(cfg.PrivilegedIDs))
	for _, id := range cfg.PrivilegedIDs {
		if id != "" {
			privileged[id] = struct{}{}
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		balances:   deps.Balances,
		contents:   deps.Contents,
		limiter:    deps.RateLimiter,
		logger:     logger,
		privileged: privileged,
		minAmount:  cfg.MinWithdrawal,
		now:        time.Now,
	}
}

func (s *Service) IsPrivileged(accountID string) bool {
	_, ok := s.privileged[accountID]
	return ok
}

func (s *Service) GetBalance(ctx context.Context, accountID string) (int64, error) {
	if accountID == "" {
		return 0, ErrInvalidAmount
	}
	if s.balances == nil {
		return 0, ErrDependenciesNil
	}
	return s.balances.GetBalance(ctx, accountID)
}

func (s *Service) Add(ctx context.Context, accountID string, amount int64) (int64, error) {
	if !validate.Required(accountID) || !validate.PositiveAmount(amount) {
		return 0, ErrInvalidAmount
	}
	if s.balances == nil {
		return 0, ErrDependenciesNil
	}

	newBalance, err := s.balances.Credit(ctx, accountID, amount, string(enums.EntryKindTopup), "")
	if err != nil {
		return 0, fmt.Errorf("credit stars: %w", err)
	}

	return newBalance, nil
}

// Withdraw removes the gross amount from the balance; the commission is
// reported for the external payout and never re-credited.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount int64) (WithdrawResult, error) {
	if !validate.Required(accountID) || !validate.PositiveAmount(amount) {
		return WithdrawResult{}, ErrInvalidAmount
	}
	if s.balances == nil {
		return WithdrawResult{}, ErrDependenciesNil
	}

	privileged := s.IsPrivileged(accountID)
	if !privileged && amount < s.minAmount {
		return WithdrawResult{}, ErrBelowMinimum
	}

	if err := s.checkSpendRate(ctx, accountID); err != nil {
		return WithdrawResult{}, err
	}

	commission := rules.Commission(amount, privileged)

	newBalance, err := s.balances.Debit(ctx, accountID, amount, string(enums.EntryKindWithdraw), "")
	if err != nil {
		if errors.Is(err, pgrepo.ErrInsufficientFunds) {
			return WithdrawResult{}, ErrInsufficientFunds
		}
		return WithdrawResult{}, fmt.Errorf("debit withdrawal: %w", err)
	}

	return WithdrawResult{
		NewBalance: newBalance,
		NetPayout:  amount - commission,
		Commission: commission,
	}, nil
}

// Gift debits the sender first; the content-side star increment is
// best-effort after the debit commits. A failed increment is logged and
// left to reconciliation, the debit stands.
func (s *Service) Gift(ctx context.Context, fromAccountID, contentID string, amount int64) (GiftResult, error) {
	if !validate.Required(fromAccountID) || !validate.PositiveAmount(amount) {
		return GiftResult{}, ErrInvalidAmount
	}
	if !validate.Required(contentID) {
		return GiftResult{}, ErrTargetNotFound
	}
	if s.balances == nil || s.contents == nil {
		return GiftResult{}, ErrDependenciesNil
	}

	if _, err := s.contents.FindByID(ctx, contentID); err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return GiftResult{}, ErrTargetNotFound
		}
		return GiftResult{}, fmt.Errorf("find gift target: %w", err)
	}

	if err := s.checkSpendRate(ctx, fromAccountID); err != nil {
		return GiftResult{}, err
	}

	newBalance, err := s.balances.Debit(ctx, fromAccountID, amount, string(enums.EntryKindGiftOut), contentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrInsufficientFunds) {
			return GiftResult{}, ErrInsufficientFunds
		}
		return GiftResult{}, fmt.Errorf("debit gift: %w", err)
	}

	if err := s.contents.IncrementStars(ctx, contentID, amount); err != nil {
		s.logger.Warn("gift star increment failed after debit",
			zap.String("account_id", fromAccountID),
			zap.String("content_id", contentID),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
	}

	return GiftResult{
		NewBalance: newBalance,
		ContentID:  contentID,
	}, nil
}

func (s *Service) History(ctx context.Context, accountID string, limit int) ([]model.LedgerEntry, error) {
	if accountID == "" {
		return nil, ErrInvalidAmount
	}
	if s.balances == nil {
		return nil, ErrDependenciesNil
	}

	records, err := s.balances.ListEntries(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	entries := make([]model.LedgerEntry, 0, len(records))
	for _, rec := range records {
		entry := model.LedgerEntry{
			ID:        rec.ID,
			AccountID: rec.AccountID,
			Kind:      enums.EntryKind(rec.Kind),
			Amount:    rec.Amount,
			CreatedAt: rec.CreatedAt,
		}
		if rec.RefID != nil {
			entry.RefID = *rec.RefID
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Service) checkSpendRate(ctx context.Context, accountID string) error {
	if s.limiter == nil {
		return nil
	}

	retryAfter, allowed, err := s.limiter.AllowSpend(ctx, accountID)
	if err != nil {
		return fmt.Errorf("consume spend rate limit: %w", err)
	}
	if !allowed {
		return TooFastError{RetryAfterSec: retryAfter}
	}

	return nil
}
