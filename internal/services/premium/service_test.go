package premium

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavelgurkov/starfeed/backend/internal/domain/enums"
	"github.com/pavelgurkov/starfeed/backend/internal/domain/rules"
	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
	ledgersvc "github.com/pavelgurkov/starfeed/backend/internal/services/ledger"
)

// entitlementStoreStub backs both the premium store and the ledger balance
// store so purchase tests can watch the debit land.
type entitlementStoreStub struct {
	mu           sync.Mutex
	entitlements map[string]pgrepo.EntitlementRecord
	balances     map[string]int64
	entries      []pgrepo.LedgerEntryRecord

	trialGrants int
	markExpired int
}

func newEntitlementStoreStub() *entitlementStoreStub {
	return &entitlementStoreStub{
		entitlements: make(map[string]pgrepo.EntitlementRecord),
		balances:     make(map[string]int64),
	}
}

func (s *entitlementStoreStub) Get(_ context.Context, accountID string) (pgrepo.EntitlementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.entitlements[accountID]
	if !ok {
		return pgrepo.EntitlementRecord{}, pgrepo.ErrEntitlementNotFound
	}
	return rec, nil
}

func (s *entitlementStoreStub) GrantTrial(_ context.Context, accountID, tier string, until time.Time) (pgrepo.EntitlementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.entitlements[accountID]; ok {
		return rec, nil
	}
	s.trialGrants++
	expires := until
	rec := pgrepo.EntitlementRecord{
		AccountID: accountID,
		Tier:      tier,
		ExpiresAt: &expires,
		IsTrial:   true,
	}
	s.entitlements[accountID] = rec
	return rec, nil
}

func (s *entitlementStoreStub) MarkExpired(_ context.Context, accountID string) (pgrepo.EntitlementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.entitlements[accountID]
	if !ok {
		return pgrepo.EntitlementRecord{}, pgrepo.ErrEntitlementNotFound
	}
	s.markExpired++
	rec.ExpiresAt = nil
	rec.IsTrial = false
	s.entitlements[accountID] = rec
	return rec, nil
}

func (s *entitlementStoreStub) PurchaseTier(_ context.Context, accountID, tier string, price int64, until time.Time) (pgrepo.EntitlementRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[accountID] < price {
		return pgrepo.EntitlementRecord{}, 0, pgrepo.ErrInsufficientFunds
	}
	s.balances[accountID] -= price
	expires := until
	rec := pgrepo.EntitlementRecord{
		AccountID: accountID,
		Tier:      tier,
		ExpiresAt: &expires,
		IsTrial:   false,
	}
	s.entitlements[accountID] = rec
	return rec, s.balances[accountID], nil
}

func (s *entitlementStoreStub) GetBalance(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[accountID], nil
}

func (s *entitlementStoreStub) Credit(_ context.Context, accountID string, amount int64, kind, refID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountID] += amount
	return s.balances[accountID], nil
}

func (s *entitlementStoreStub) Debit(_ context.Context, accountID string, amount int64, kind, refID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[accountID] < amount {
		return 0, pgrepo.ErrInsufficientFunds
	}
	s.balances[accountID] -= amount
	return s.balances[accountID], nil
}

func (s *entitlementStoreStub) ListEntries(_ context.Context, accountID string, limit int) ([]pgrepo.LedgerEntryRecord, error) {
	return nil, nil
}

func newTestService(store *entitlementStoreStub) *Service {
	return NewService(store, Config{})
}

func TestFirstReadGrantsTrial(t *testing.T) {
	store := newEntitlementStoreStub()
	svc := newTestService(store)

	start := time.Now()
	status, err := svc.GetStatus(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}

	if !status.Active {
		t.Fatalf("fresh trial must be active")
	}
	if !status.IsTrial {
		t.Fatalf("first grant must be a trial")
	}
	if status.Tier != enums.PremiumTierStandard {
		t.Fatalf("trial tier must be standard, got %s", status.Tier)
	}
	if status.MaxVideoSeconds != rules.MaxVideoSecondsStandard {
		t.Fatalf("unexpected video cap: %d", status.MaxVideoSeconds)
	}
	if status.ExpiresAt == nil {
		t.Fatalf("trial must carry an expiry")
	}
	wantExpiry := start.Add(rules.TrialDuration)
	if diff := status.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("trial expiry off target: %s", status.ExpiresAt)
	}

	// Re-reads must not grant again.
	if _, err := svc.GetStatus(context.Background(), "acc-1"); err != nil {
		t.Fatalf("second get status: %v", err)
	}
	if store.trialGrants != 1 {
		t.Fatalf("trial must be granted exactly once, got %d", store.trialGrants)
	}
}

func TestExpirySelfHealsAndPersists(t *testing.T) {
	store := newEntitlementStoreStub()
	past := time.Now().Add(-time.Hour)
	store.entitlements["acc-1"] = pgrepo.EntitlementRecord{
		AccountID: "acc-1",
		Tier:      string(enums.PremiumTierBlogger),
		ExpiresAt: &past,
		IsTrial:   false,
	}
	svc := newTestService(store)

	status, err := svc.GetStatus(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status.Active {
		t.Fatalf("expired entitlement must read inactive")
	}
	if status.MaxVideoSeconds != 0 {
		t.Fatalf("inactive entitlement must not report a premium cap")
	}

	persisted := store.entitlements["acc-1"]
	if persisted.ExpiresAt != nil {
		t.Fatalf("expiry must be cleared in the store, got %v", persisted.ExpiresAt)
	}
	if store.markExpired != 1 {
		t.Fatalf("expected one persisted expiry transition, got %d", store.markExpired)
	}
}

func TestPurchaseRejectsPriceMismatch(t *testing.T) {
	store := newEntitlementStoreStub()
	store.balances["acc-1"] = 1000
	svc := newTestService(store)

	// Blogger money for a standard tier is still a mismatch.
	_, err := svc.Purchase(context.Background(), "acc-1", "standard", rules.PremiumPriceBlogger)
	if !errors.Is(err, ErrPriceMismatch) {
		t.Fatalf("expected ErrPriceMismatch, got %v", err)
	}
	if store.balances["acc-1"] != 1000 {
		t.Fatalf("rejected purchase must not debit, got %d", store.balances["acc-1"])
	}
}

func TestPurchaseRejectsUnknownTier(t *testing.T) {
	store := newEntitlementStoreStub()
	store.balances["acc-1"] = 1000
	svc := newTestService(store)

	if _, err := svc.Purchase(context.Background(), "acc-1", "platinum", 120); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestPurchaseSetsTierExpiryAndCap(t *testing.T) {
	store := newEntitlementStoreStub()
	store.balances["acc-1"] = 500
	svc := newTestService(store)

	start := time.Now()
	result, err := svc.Purchase(context.Background(), "acc-1", "blogger", rules.PremiumPriceBlogger)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if result.NewBalance != 500-rules.PremiumPriceBlogger {
		t.Fatalf("unexpected balance after purchase: %d", result.NewBalance)
	}
	ent := result.Entitlement
	if !ent.Active || ent.IsTrial {
		t.Fatalf("purchase must yield an active non-trial entitlement: %+v", ent)
	}
	if ent.Tier != enums.PremiumTierBlogger {
		t.Fatalf("unexpected tier: %s", ent.Tier)
	}
	if ent.MaxVideoSeconds != rules.MaxVideoSecondsBlogger {
		t.Fatalf("unexpected video cap: %d", ent.MaxVideoSeconds)
	}
	if ent.ExpiresAt == nil {
		t.Fatalf("purchase must set an expiry")
	}
	wantExpiry := start.Add(rules.PremiumDuration)
	if diff := ent.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("term expiry off target: %s", ent.ExpiresAt)
	}
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	store := newEntitlementStoreStub()
	store.balances["acc-1"] = 50
	svc := newTestService(store)

	if _, err := svc.Purchase(context.Background(), "acc-1", "standard", rules.PremiumPriceStandard); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if store.balances["acc-1"] != 50 {
		t.Fatalf("failed purchase must not debit")
	}
	if _, ok := store.entitlements["acc-1"]; ok {
		t.Fatalf("failed purchase must not grant an entitlement")
	}
}

func TestMaxVideoSecondsFallsBackWhenInactive(t *testing.T) {
	store := newEntitlementStoreStub()
	past := time.Now().Add(-time.Hour)
	store.entitlements["acc-1"] = pgrepo.EntitlementRecord{
		AccountID: "acc-1",
		Tier:      string(enums.PremiumTierStandard),
		ExpiresAt: &past,
	}
	svc := newTestService(store)

	seconds, err := svc.MaxVideoSeconds(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("max video seconds: %v", err)
	}
	if seconds != rules.MaxVideoSecondsFree {
		t.Fatalf("inactive account must get the free cap, got %d", seconds)
	}
}

// Full account lifecycle across the ledger and premium services sharing one
// balance: top up 500, buy blogger for 180, withdraw 300 with 10% commission.
func TestTopUpPurchaseWithdrawScenario(t *testing.T) {
	store := newEntitlementStoreStub()
	premiumSvc := newTestService(store)
	ledgerSvc := ledgersvc.NewService(ledgersvc.Dependencies{Balances: store}, ledgersvc.Config{
		MinWithdrawal: rules.MinWithdrawal,
	})

	ctx := context.Background()
	accountID := "acc-1"

	balance, err := ledgerSvc.Add(ctx, accountID, 500)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if balance != 500 {
		t.Fatalf("unexpected balance after top up: %d", balance)
	}

	purchase, err := premiumSvc.Purchase(ctx, accountID, "blogger", rules.PremiumPriceBlogger)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if purchase.NewBalance != 320 {
		t.Fatalf("unexpected balance after purchase: %d", purchase.NewBalance)
	}

	withdrawal, err := ledgerSvc.Withdraw(ctx, accountID, 300)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawal.Commission != 30 {
		t.Fatalf("unexpected commission: %d", withdrawal.Commission)
	}
	if withdrawal.NetPayout != 270 {
		t.Fatalf("unexpected payout: %d", withdrawal.NetPayout)
	}
	if withdrawal.NewBalance != 20 {
		t.Fatalf("unexpected final balance: %d", withdrawal.NewBalance)
	}
}
