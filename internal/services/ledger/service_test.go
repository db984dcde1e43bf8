package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
)

type balanceStoreStub struct {
	mu       sync.Mutex
	balances map[string]int64
	entries  []pgrepo.LedgerEntryRecord
}

func newBalanceStoreStub() *balanceStoreStub {
	return &balanceStoreStub{balances: make(map[string]int64)}
}

func (s *balanceStoreStub) GetBalance(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[accountID], nil
}

func (s *balanceStoreStub) Credit(_ context.Context, accountID string, amount int64, kind, refID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountID] += amount
	s.appendEntry(accountID, kind, amount, refID)
	return s.balances[accountID], nil
}

func (s *balanceStoreStub) Debit(_ context.Context, accountID string, amount int64, kind, refID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[accountID] < amount {
		return 0, pgrepo.ErrInsufficientFunds
	}
	s.balances[accountID] -= amount
	s.appendEntry(accountID, kind, -amount, refID)
	return s.balances[accountID], nil
}

func (s *balanceStoreStub) ListEntries(_ context.Context, accountID string, limit int) ([]pgrepo.LedgerEntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []pgrepo.LedgerEntryRecord
	for i := len(s.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.entries[i].AccountID == accountID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *balanceStoreStub) appendEntry(accountID, kind string, amount int64, refID string) {
	rec := pgrepo.LedgerEntryRecord{
		ID:        "entry-" + accountID + "-" + kind,
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if refID != "" {
		rec.RefID = &refID
	}
	s.entries = append(s.entries, rec)
}

type contentStoreStub struct {
	mu         sync.Mutex
	known      map[string]pgrepo.ContentRecord
	starCounts map[string]int64
	incErr     error
}

func newContentStoreStub(ids ...string) *contentStoreStub {
	known := make(map[string]pgrepo.ContentRecord, len(ids))
	for _, id := range ids {
		known[id] = pgrepo.ContentRecord{ID: id, OwnerID: "owner-" + id, Kind: "post"}
	}
	return &contentStoreStub{
		known:      known,
		starCounts: make(map[string]int64),
	}
}

func (s *contentStoreStub) FindByID(_ context.Context, contentID string) (pgrepo.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.known[contentID]
	if !ok {
		return pgrepo.ContentRecord{}, pgrepo.ErrContentNotFound
	}
	return rec, nil
}

func (s *contentStoreStub) IncrementStars(_ context.Context, contentID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incErr != nil {
		return s.incErr
	}
	s.starCounts[contentID] += delta
	return nil
}

func newTestService(balances *balanceStoreStub, contents *contentStoreStub, cfg Config) *Service {
	return NewService(Dependencies{
		Balances: balances,
		Contents: contents,
	}, cfg)
}

func TestAddRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(newBalanceStoreStub(), nil, Config{})

	for _, amount := range []int64{0, -1, -500} {
		if _, err := svc.Add(context.Background(), "acc-1", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %d, got %v", amount, err)
		}
	}

	balance, err := svc.GetBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("rejected adds must not mutate balance, got %d", balance)
	}
}

func TestAddCreditsBalance(t *testing.T) {
	svc := newTestService(newBalanceStoreStub(), nil, Config{})

	newBalance, err := svc.Add(context.Background(), "acc-1", 500)
	if err != nil {
		t.Fatalf("add stars: %v", err)
	}
	if newBalance != 500 {
		t.Fatalf("unexpected balance after add: %d", newBalance)
	}
}

func TestWithdrawArithmetic(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 1000
	svc := newTestService(balances, nil, Config{})

	result, err := svc.Withdraw(context.Background(), "acc-1", 1000)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if result.Commission != 100 {
		t.Fatalf("unexpected commission: %d", result.Commission)
	}
	if result.NetPayout != 900 {
		t.Fatalf("unexpected net payout: %d", result.NetPayout)
	}
	if result.NewBalance != 0 {
		t.Fatalf("gross amount must leave the balance, got %d", result.NewBalance)
	}
}

func TestWithdrawBelowMinimum(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 1000
	balances.balances["acc-admin"] = 1000
	svc := newTestService(balances, nil, Config{
		MinWithdrawal: 100,
		PrivilegedIDs: []string{"acc-admin"},
	})

	if _, err := svc.Withdraw(context.Background(), "acc-1", 50); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if balances.balances["acc-1"] != 1000 {
		t.Fatalf("failed withdrawal must not mutate balance")
	}

	result, err := svc.Withdraw(context.Background(), "acc-admin", 50)
	if err != nil {
		t.Fatalf("privileged withdrawal below minimum must pass: %v", err)
	}
	if result.Commission != 0 || result.NetPayout != 50 {
		t.Fatalf("privileged withdrawal must be commission free: %+v", result)
	}
}

func TestWithdrawInsufficientFundsLeavesBalance(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 150
	svc := newTestService(balances, nil, Config{})

	if _, err := svc.Withdraw(context.Background(), "acc-1", 200); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if balances.balances["acc-1"] != 150 {
		t.Fatalf("failed withdrawal must not mutate balance, got %d", balances.balances["acc-1"])
	}
}

func TestGiftDebitsSenderAndIncrementsContent(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 300
	contents := newContentStoreStub("content-9")
	svc := newTestService(balances, contents, Config{})

	result, err := svc.Gift(context.Background(), "acc-1", "content-9", 120)
	if err != nil {
		t.Fatalf("gift: %v", err)
	}
	if result.NewBalance != 180 {
		t.Fatalf("unexpected sender balance: %d", result.NewBalance)
	}
	if contents.starCounts["content-9"] != 120 {
		t.Fatalf("unexpected content star count: %d", contents.starCounts["content-9"])
	}
}

func TestGiftTargetNotFound(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 300
	svc := newTestService(balances, newContentStoreStub(), Config{})

	if _, err := svc.Gift(context.Background(), "acc-1", "missing", 50); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
	if balances.balances["acc-1"] != 300 {
		t.Fatalf("gift to missing target must not debit sender")
	}
}

func TestGiftInsufficientFundsLeavesBalance(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 10
	contents := newContentStoreStub("content-9")
	svc := newTestService(balances, contents, Config{})

	if _, err := svc.Gift(context.Background(), "acc-1", "content-9", 50); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if balances.balances["acc-1"] != 10 {
		t.Fatalf("failed gift must not mutate balance")
	}
	if contents.starCounts["content-9"] != 0 {
		t.Fatalf("failed gift must not credit content")
	}
}

// The debit is the durable fact of a gift. A failed content-side increment
// is left to reconciliation, not rolled back.
func TestGiftDebitSurvivesIncrementFailure(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 300
	contents := newContentStoreStub("content-9")
	contents.incErr = errors.New("content system down")
	svc := newTestService(balances, contents, Config{})

	result, err := svc.Gift(context.Background(), "acc-1", "content-9", 120)
	if err != nil {
		t.Fatalf("gift must succeed once the debit commits: %v", err)
	}
	if result.NewBalance != 180 {
		t.Fatalf("unexpected sender balance: %d", result.NewBalance)
	}
	if balances.balances["acc-1"] != 180 {
		t.Fatalf("debit must stand after increment failure, got %d", balances.balances["acc-1"])
	}
}

func TestConcurrentWithdrawOneWins(t *testing.T) {
	balances := newBalanceStoreStub()
	balances.balances["acc-1"] = 500
	svc := newTestService(balances, nil, Config{})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = svc.Withdraw(context.Background(), "acc-1", 500)
		}(i)
	}
	wg.Wait()

	var successes, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected withdraw error: %v", err)
		}
	}

	if successes != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one winner: successes=%d insufficient=%d", successes, insufficient)
	}
	if balances.balances["acc-1"] != 0 {
		t.Fatalf("final balance must be zero, never negative: %d", balances.balances["acc-1"])
	}
}

// Conservation: final = initial + credits - successful gross debits.
func TestConservationAcrossSequence(t *testing.T) {
	balances := newBalanceStoreStub()
	contents := newContentStoreStub("content-1")
	svc := newTestService(balances, contents, Config{})

	ctx := context.Background()
	accountID := "acc-1"

	if _, err := svc.Add(ctx, accountID, 1000); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, accountID, 250); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Withdraw(ctx, accountID, 400); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := svc.Gift(ctx, accountID, "content-1", 300); err != nil {
		t.Fatalf("gift: %v", err)
	}
	if _, err := svc.Withdraw(ctx, accountID, 9999); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("oversized withdraw must fail, got %v", err)
	}

	balance, err := svc.GetBalance(ctx, accountID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	want := int64(1000 + 250 - 400 - 300)
	if balance != want {
		t.Fatalf("conservation violated: got %d want %d", balance, want)
	}
}

func TestHistoryReturnsEntries(t *testing.T) {
	balances := newBalanceStoreStub()
	contents := newContentStoreStub("content-1")
	svc := newTestService(balances, contents, Config{})

	ctx := context.Background()
	if _, err := svc.Add(ctx, "acc-1", 500); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Gift(ctx, "acc-1", "content-1", 100); err != nil {
		t.Fatalf("gift: %v", err)
	}

	entries, err := svc.History(ctx, "acc-1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("unexpected entry count: %d", len(entries))
	}
	if entries[0].Amount != -100 || entries[0].RefID != "content-1" {
		t.Fatalf("unexpected newest entry: %+v", entries[0])
	}
	if entries[1].Amount != 500 {
		t.Fatalf("unexpected oldest entry: %+v", entries[1])
	}
}

func TestGetBalanceForUnknownAccountIsZero(t *testing.T) {
	svc := newTestService(newBalanceStoreStub(), nil, Config{})

	balance, err := svc.GetBalance(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("missing account must read as zero, got %d", balance)
	}
}
