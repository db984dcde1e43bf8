package premium

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
	"github.com/pavelgurkov/starfeed/backend/internal/domain/model"
	"github.com/pavelgurkov/starfeed/backend/internal/domain/rules"
	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnknownTier       = errors.New("unknown premium tier")
	ErrPriceMismatch     = errors.New("price mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDependenciesNil   = errors.New("premium dependencies are not configured")
)

type Store interface {
	Get(ctx context.Context, accountID string) (pgrepo.EntitlementRecord, error)
	GrantTrial(ctx context.Context, accountID, tier string, until time.Time) (pgrepo.EntitlementRecord, error)
	MarkExpired(ctx context.Context, accountID string) (pgrepo.EntitlementRecord, error)
	PurchaseTier(ctx context.Context, accountID, tier string, price int64, until time.Time) (pgrepo.EntitlementRecord, int64, error)
}

type Config struct {
	TrialDuration time.Duration
	TermDuration  time.Duration
}

type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

type PurchaseResult struct {
	Entitlement model.Entitlement
	NewBalance  int64
}

func NewService(store Store, cfg Config) *Service {
	if cfg.TrialDuration <= 0 {
		cfg.TrialDuration = rules.TrialDuration
	}
	if cfg.TermDuration <= 0 {
		cfg.TermDuration = rules.PremiumDuration
	}

	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// GetStatus grants the one-time trial on first read and persists the
// inactive transition when an expiry is observed. Expiry is never swept in
// the background, only healed here.
func (s *Service) GetStatus(ctx context.Context, accountID string) (model.Entitlement, error) {
	if accountID == "" {
		return model.Entitlement{}, ErrValidation
	}
	if s.store == nil {
		return model.Entitlement{}, ErrDependenciesNil
	}

	now := s.now().UTC()

	rec, err := s.store.Get(ctx, accountID)
	if err != nil {
		if !errors.Is(err, pgrepo.ErrEntitlementNotFound) {
			return model.Entitlement{}, fmt.Errorf("get entitlement: %w", err)
		}

		trial, grantErr := s.store.GrantTrial(ctx, accountID, string(enums.PremiumTierStandard), now.Add(s.cfg.TrialDuration))
		if grantErr != nil {
			return model.Entitlement{}, fmt.Errorf("grant trial entitlement: %w", grantErr)
		}
		return s.snapshot(trial, now), nil
	}

	if rec.ExpiresAt != nil && !rec.ExpiresAt.After(now) {
		expired, expireErr := s.store.MarkExpired(ctx, accountID)
		if expireErr != nil {
			return model.Entitlement{}, fmt.Errorf("mark entitlement expired: %w", expireErr)
		}
		return s.snapshot(expired, now), nil
	}

	return s.snapshot(rec, now), nil
}

// Purchase requires the supplied amount to match the tier's canonical
// price; a mismatch is treated as tampering and rejected before any debit.
// The new term always replaces the old one, remaining time does not stack.
func (s *Service) Purchase(ctx context.Context, accountID string, rawTier string, amount int64) (PurchaseResult, error) {
	if accountID == "" {
		return PurchaseResult{}, ErrValidation
	}
	if s.store == nil {
		return PurchaseResult{}, ErrDependenciesNil
	}

	tier, ok := enums.ParsePremiumTier(rawTier)
	if !ok {
		return PurchaseResult{}, ErrUnknownTier
	}

	price, ok := rules.PremiumPrice(tier)
	if !ok {
		return PurchaseResult{}, ErrUnknownTier
	}
	if amount != price {
		return PurchaseResult{}, ErrPriceMismatch
	}

	now := s.now().UTC()
	rec, newBalance, err := s.store.PurchaseTier(ctx, accountID, string(tier), price, now.Add(s.cfg.TermDuration))
	if err != nil {
		if errors.Is(err, pgrepo.ErrInsufficientFunds) {
			return PurchaseResult{}, ErrInsufficientFunds
		}
		return PurchaseResult{}, fmt.Errorf("purchase premium tier: %w", err)
	}

	return PurchaseResult{
		Entitlement: s.snapshot(rec, now),
		NewBalance:  newBalance,
	}, nil
}

// MaxVideoSeconds resolves the posting cap for an account, running the
// same lazy trial/expiry transitions as GetStatus.
func (s *Service) MaxVideoSeconds(ctx context.Context, accountID string) (int, error) {
	status, err := s.GetStatus(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if !status.Active {
		return rules.MaxVideoSecondsFree, nil
	}
	return status.MaxVideoSeconds, nil
}

func (s *Service) snapshot(rec pgrepo.EntitlementRecord, now time.Time) model.Entitlement {
	tier, ok := enums.ParsePremiumTier(rec.Tier)
	if !ok {
		tier = enums.PremiumTierStandard
	}

	active := rec.ExpiresAt != nil && rec.ExpiresAt.After(now)

	ent := model.Entitlement{
		AccountID: rec.AccountID,
		Active:    active,
		Tier:      tier,
		ExpiresAt: rec.ExpiresAt,
		IsTrial:   rec.IsTrial,
	}
	if active {
		ent.MaxVideoSeconds = rules.MaxVideoSeconds(tier)
	}
	return ent
}
