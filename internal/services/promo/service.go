package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
	"github.com/pavelgurkov/starfeed/backend/internal/domain/rules"
	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnknownKind       = errors.New("unknown content kind")
	ErrNoContent         = errors.New("no content to pin")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDependenciesNil   = errors.New("promo dependencies are not configured")
)

type Store interface {
	PinLatest(ctx context.Context, ownerID, kind string, price int64, until time.Time) (pgrepo.ContentRecord, int64, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

type PinResult struct {
	ContentID   string
	Price       int64
	PinnedUntil time.Time
	NewBalance  int64
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// Pin targets the owner's most recent item of the requested kind. A new
// pin always overwrites pinned_until, extending or shortening it.
func (s *Service) Pin(ctx context.Context, ownerID, rawKind string, hours int) (PinResult, error) {
	if ownerID == "" {
		return PinResult{}, ErrValidation
	}
	if s.store == nil {
		return PinResult{}, ErrDependenciesNil
	}

	kind, ok := enums.ParseContentKind(rawKind)
	if !ok {
		return PinResult{}, ErrUnknownKind
	}

	hours = rules.ClampPinHours(hours)
	price := rules.PinPrice(kind, hours)
	until := s.now().UTC().Add(time.Duration(hours) * time.Hour)

	rec, newBalance, err := s.store.PinLatest(ctx, ownerID, string(kind), price, until)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrContentNotFound):
			return PinResult{}, ErrNoContent
		case errors.Is(err, pgrepo.ErrInsufficientFunds):
			return PinResult{}, ErrInsufficientFunds
		default:
			return PinResult{}, fmt.Errorf("pin content: %w", err)
		}
	}

	result := PinResult{
		ContentID:  rec.ID,
		Price:      price,
		NewBalance: newBalance,
	}
	if rec.PinnedUntil != nil {
		result.PinnedUntil = *rec.PinnedUntil
	}
	return result, nil
}
