package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/apsoplatform/apso/internal/domain"
)

const (
	entryPlanID    = "p1"
	entryPlanLimit = 5
)

func newInvestmentFixture(t *testing.T, balance int64) (*investmentUsecase, *memStore, *domain.User) {
	t.Helper()
	store := newMemStore()
	user := store.addUser(&domain.User{ID: "u1", Phone: "9876543210", Balance: balance})
	uc := NewInvestmentUsecase(
		&memInvestmentRepo{store}, &memPlanRepo{store}, &memQueue{store}, nil,
		entryPlanID, entryPlanLimit,
	).(*investmentUsecase)
	return uc, store, user
}

func TestPurchaseEntryPlan(t *testing.T) {
	uc, store, user := newInvestmentFixture(t, 1000)

	inv, err := uc.Purchase(user.ID, entryPlanID)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	if got := store.users[user.ID].Balance; got != 410 {
		t.Fatalf("balance = %d, want 410 after 590 debit", got)
	}
	if inv.DailyReturn != 80 || inv.DurationDays != 45 || inv.TotalReturn != 3600 {
		t.Fatalf("plan figures not snapshotted: %+v", inv)
	}
	if !inv.IsActive || inv.ClaimedDays != 0 {
		t.Fatalf("new investment should be active with no claimed days: %+v", inv)
	}

	// The purchase writes an approved INVESTMENT ledger row.
	found := false
	for _, txn := range store.txns {
		if txn.Type == domain.TypeInvestment && txn.Amount == 590 && txn.Status == domain.StatusApproved {
			found = true
		}
	}
	if !found {
		t.Fatalf("purchase did not record an INVESTMENT ledger row")
	}
}

func TestPurchaseLockedPlan(t *testing.T) {
	uc, store, user := newInvestmentFixture(t, 500000)

	for _, planID := range []string{"p2", "p5", "p8"} {
		_, err := uc.Purchase(user.ID, planID)
		if !errors.Is(err, domain.ErrPlanLocked) {
			t.Fatalf("Purchase(%s) error = %v, want plan locked", planID, err)
		}
	}
	if got := store.users[user.ID].Balance; got != 500000 {
		t.Fatalf("balance = %d, want 500000 untouched", got)
	}
}

func TestPurchaseUnknownPlan(t *testing.T) {
	uc, _, user := newInvestmentFixture(t, 1000)

	_, err := uc.Purchase(user.ID, "p99")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Purchase() error = %v, want not found", err)
	}
}

func TestPurchaseShortfall(t *testing.T) {
	uc, store, user := newInvestmentFixture(t, 200)

	_, err := uc.Purchase(user.ID, entryPlanID)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("Purchase() error = %v, want insufficient funds", err)
	}

	var ife *domain.InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("Purchase() error %v does not carry shortfall", err)
	}
	if ife.Shortfall != 390 {
		t.Fatalf("shortfall = %d, want 390 (590 cost - 200 balance)", ife.Shortfall)
	}
	if got := store.users[user.ID].Balance; got != 200 {
		t.Fatalf("balance = %d, want 200 untouched", got)
	}
	if len(store.invs) != 0 {
		t.Fatalf("failed purchase inserted an investment")
	}
}

func TestPurchaseCap(t *testing.T) {
	uc, store, user := newInvestmentFixture(t, 590*10)

	for i := 0; i < entryPlanLimit; i++ {
		if _, err := uc.Purchase(user.ID, entryPlanID); err != nil {
			t.Fatalf("Purchase() #%d error = %v", i+1, err)
		}
	}

	balanceBefore := store.users[user.ID].Balance
	_, err := uc.Purchase(user.ID, entryPlanID)
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("Purchase() #6 error = %v, want limit exceeded", err)
	}
	if got := store.users[user.ID].Balance; got != balanceBefore {
		t.Fatalf("balance = %d, want %d untouched after capped purchase", got, balanceBefore)
	}
	if len(store.invs) != entryPlanLimit {
		t.Fatalf("investments = %d, want %d", len(store.invs), entryPlanLimit)
	}
}

func TestAccrueCreditsElapsedDays(t *testing.T) {
	uc, store, user := newInvestmentFixture(t, 590)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return start }

	inv, err := uc.Purchase(user.ID, entryPlanID)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	// Three days later: three daily returns.
	uc.now = func() time.Time { return start.Add(72 * time.Hour) }
	accrued, err := uc.Accrue(inv.ID)
	if err != nil {
		t.Fatalf("Accrue() error = %v", err)
	}
	if accrued.ClaimedDays != 3 {
		t.Fatalf("claimed days = %d, want 3", accrued.ClaimedDays)
	}
	if got := store.users[user.ID].Balance; got != 240 {
		t.Fatalf("balance = %d, want 240 (3 x 80)", got)
	}

	// A second call the same day credits nothing.
	accrued, err = uc.Accrue(inv.ID)
	if err != nil {
		t.Fatalf("Accrue() error = %v", err)
	}
	if accrued.ClaimedDays != 3 {
		t.Fatalf("claimed days = %d after repeat, want 3", accrued.ClaimedDays)
	}
	if got := store.users[user.ID].Balance; got != 240 {
		t.Fatalf("balance = %d after repeat, want 240", got)
	}
}

func TestAccrueCapsAtDurationAndDeactivates(t *testing.T) {
	uc, store, user := newInvestmentFixture(t, 590)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return start }
	inv, _ := uc.Purchase(user.ID, entryPlanID)

	// Far beyond the 45 day schedule.
	uc.now = func() time.Time { return start.AddDate(0, 6, 0) }
	accrued, err := uc.Accrue(inv.ID)
	if err != nil {
		t.Fatalf("Accrue() error = %v", err)
	}
	if accrued.ClaimedDays != 45 {
		t.Fatalf("claimed days = %d, want capped at 45", accrued.ClaimedDays)
	}
	if accrued.IsActive {
		t.Fatalf("fully paid investment still active")
	}
	if got := store.users[user.ID].Balance; got != 3600 {
		t.Fatalf("balance = %d, want 3600 total return", got)
	}

	// Nothing more to pay, ever.
	uc.now = func() time.Time { return start.AddDate(1, 0, 0) }
	if _, err := uc.Accrue(inv.ID); err != nil {
		t.Fatalf("Accrue() error = %v", err)
	}
	if got := store.users[user.ID].Balance; got != 3600 {
		t.Fatalf("balance = %d, want 3600 after completed schedule", got)
	}
}

func TestAccrueUnknownInvestment(t *testing.T) {
	uc, _, _ := newInvestmentFixture(t, 0)

	if _, err := uc.Accrue("ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Accrue() error = %v, want not found", err)
	}
}

func TestPurchaseAndAccrueEvictCachedUser(t *testing.T) {
	store := newMemStore()
	user := store.addUser(&domain.User{ID: "u1", Phone: "9876543210", Balance: 1000})
	cache := newMemUserCache()
	cache.CacheUser(user)
	uc := NewInvestmentUsecase(
		&memInvestmentRepo{store}, &memPlanRepo{store}, &memQueue{store}, cache,
		entryPlanID, entryPlanLimit,
	).(*investmentUsecase)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return start }

	inv, err := uc.Purchase(user.ID, entryPlanID)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if cache.holds(user.ID) {
		t.Fatalf("cached user survived a purchase debit")
	}

	cache.CacheUser(user)
	uc.now = func() time.Time { return start.Add(48 * time.Hour) }
	if _, err := uc.Accrue(inv.ID); err != nil {
		t.Fatalf("Accrue() error = %v", err)
	}
	if cache.holds(user.ID) {
		t.Fatalf("cached user survived an accrual credit")
	}
}

func TestEnqueueDueAccruals(t *testing.T) {
	uc, store, user := newInvestmentFixture(t, 590*3)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return start }
	for i := 0; i < 3; i++ {
		if _, err := uc.Purchase(user.ID, entryPlanID); err != nil {
			t.Fatalf("Purchase() error = %v", err)
		}
	}

	// Complete one schedule so it drops out of the active set.
	var completed string
	for id := range store.invs {
		completed = id
		break
	}
	uc.now = func() time.Time { return start.AddDate(0, 6, 0) }
	if _, err := uc.Accrue(completed); err != nil {
		t.Fatalf("Accrue() error = %v", err)
	}

	count, err := uc.EnqueueDueAccruals()
	if err != nil {
		t.Fatalf("EnqueueDueAccruals() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("enqueued = %d, want 2 active investments", count)
	}
	if got := int64(len(store.queue)); got != 2 {
		t.Fatalf("queue length = %d, want 2", got)
	}
}
