package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
	"github.com/pavelgurkov/starfeed/backend/internal/domain/model"
	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
)

const maxCaptionLength = 2200

var (
	ErrValidation      = errors.New("validation error")
	ErrUnknownKind     = errors.New("unknown content kind")
	ErrVideoTooLong    = errors.New("video exceeds entitlement cap")
	ErrDependenciesNil = errors.New("content dependencies are not configured")
)

type Store interface {
	Insert(ctx context.Context, ownerID, kind, caption string, videoSeconds int) (pgrepo.ContentRecord, error)
	List(ctx context.Context, at time.Time, limit int) ([]pgrepo.ContentRecord, error)
	ListByOwner(ctx context.Context, ownerID string, at time.Time, limit int) ([]pgrepo.ContentRecord, error)
}

// VideoCapResolver reports the per-post video duration cap; the premium
// service implements it.
type VideoCapResolver interface {
	MaxVideoSeconds(ctx context.Context, accountID string) (int, error)
}

type Service struct {
	store    Store
	videoCap VideoCapResolver
	now      func() time.Time
}

type CreateInput struct {
	Kind         string
	Caption      string
	VideoSeconds int
}

func NewService(store Store, videoCap VideoCapResolver) *Service {
	return &Service{
		store:    store,
		videoCap: videoCap,
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (model.ContentItem, error) {
	if ownerID == "" {
		return model.ContentItem{}, ErrValidation
	}
	if s.store == nil {
		return model.ContentItem{}, ErrDependenciesNil
	}

	kind, ok := enums.ParseContentKind(in.Kind)
	if !ok {
		return model.ContentItem{}, ErrUnknownKind
	}

	caption := strings.TrimSpace(in.Caption)
	if len(caption) > maxCaptionLength {
		return model.ContentItem{}, ErrValidation
	}
	if in.VideoSeconds < 0 {
		return model.ContentItem{}, ErrValidation
	}

	if in.VideoSeconds > 0 && s.videoCap != nil {
		maxSeconds, err := s.videoCap.MaxVideoSeconds(ctx, ownerID)
		if err != nil {
			return model.ContentItem{}, fmt.Errorf("resolve video cap: %w", err)
		}
		if in.VideoSeconds > maxSeconds {
			return model.ContentItem{}, ErrVideoTooLong
		}
	}

	rec, err := s.store.Insert(ctx, ownerID, string(kind), caption, in.VideoSeconds)
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("insert content item: %w", err)
	}

	return toItem(rec), nil
}

// Feed lists content with live pins first, newest first within each group.
func (s *Service) Feed(ctx context.Context, limit int) ([]model.ContentItem, error) {
	if s.store == nil {
		return nil, ErrDependenciesNil
	}

	records, err := s.store.List(ctx, s.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	return toItems(records), nil
}

func (s *Service) OwnerFeed(ctx context.Context, ownerID string, limit int) ([]model.ContentItem, error) {
	if ownerID == "" {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, ErrDependenciesNil
	}

	records, err := s.store.ListByOwner(ctx, ownerID, s.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list owner feed: %w", err)
	}

	return toItems(records), nil
}

func toItem(rec pgrepo.ContentRecord) model.ContentItem {
	kind, ok := enums.ParseContentKind(rec.Kind)
	if !ok {
		kind = enums.ContentKindPost
	}

	return model.ContentItem{
		ID:           rec.ID,
		OwnerID:      rec.OwnerID,
		Kind:         kind,
		Caption:      rec.Caption,
		VideoSeconds: rec.VideoSeconds,
		StarCount:    rec.StarCount,
		PinnedUntil:  rec.PinnedUntil,
		CreatedAt:    rec.CreatedAt,
	}
}

func toItems(records []pgrepo.ContentRecord) []model.ContentItem {
	items := make([]model.ContentItem, 0, len(records))
	for _, rec := range records {
		items = append(items, toItem(rec))
	}
	return items
}
