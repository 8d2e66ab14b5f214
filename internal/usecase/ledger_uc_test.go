package usecase

import (
	"errors"
	"testing"

	"github.com/apsoplatform/apso/internal/domain"
)

func bankDetails() (*string, *string, *string) {
	holder := "Asha Verma"
	number := "12345678901"
	ifsc := "HDFC0001234"
	return &holder, &number, &ifsc
}

func newLedgerFixture(t *testing.T, balance int64, hold bool) (domain.LedgerUsecase, *memStore, *domain.User) {
	t.Helper()
	store := newMemStore()
	holder, number, ifsc := bankDetails()
	user := store.addUser(&domain.User{
		ID:                "u1",
		FullName:          "Asha Verma",
		Phone:             "9876543210",
		Balance:           balance,
		BankAccountHolder: holder,
		BankAccountNumber: number,
		BankIFSC:          ifsc,
	})
	uc := NewLedgerUsecase(&memLedgerRepo{store}, &memUserRepo{store}, nil, hold)
	return uc, store, user
}

func TestSubmitValidation(t *testing.T) {
	uc, _, user := newLedgerFixture(t, 1000, false)

	tests := []struct {
		name    string
		userID  string
		txnType string
		amount  int64
		wantErr error
	}{
		{"missing user", "", domain.TypeDeposit, 100, domain.ErrValidation},
		{"unknown type", user.ID, "TRANSFER", 100, domain.ErrValidation},
		{"earning not submittable", user.ID, domain.TypeEarning, 100, domain.ErrValidation},
		{"zero amount", user.ID, domain.TypeDeposit, 0, domain.ErrValidation},
		{"negative amount", user.ID, domain.TypeWithdrawal, -50, domain.ErrValidation},
		{"unknown user", "ghost", domain.TypeDeposit, 100, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Submit(tt.userID, tt.txnType, tt.amount, "UPI", "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmitWithdrawalChecksFreshBalance(t *testing.T) {
	uc, _, user := newLedgerFixture(t, 500, false)

	_, err := uc.Submit(user.ID, domain.TypeWithdrawal, 800, "BANK", "")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("Submit() error = %v, want insufficient funds", err)
	}

	var ife *domain.InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("Submit() error %v does not carry shortfall", err)
	}
	if ife.Shortfall != 300 {
		t.Fatalf("shortfall = %d, want 300", ife.Shortfall)
	}
	// The typed error matches validation too.
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("insufficient funds should match ErrValidation")
	}
}

func TestSubmitWithdrawalRequiresBankDetails(t *testing.T) {
	uc, store, _ := newLedgerFixture(t, 1000, false)
	bare := store.addUser(&domain.User{ID: "u2", Phone: "9876500000", Balance: 1000})

	_, err := uc.Submit(bare.ID, domain.TypeWithdrawal, 100, "BANK", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Submit() error = %v, want validation failure", err)
	}
}

func TestDecideApproveDeposit(t *testing.T) {
	uc, store, user := newLedgerFixture(t, 0, false)

	txn, err := uc.Submit(user.ID, domain.TypeDeposit, 1000, "UPI", "UTR123")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if txn.Status != domain.StatusPending {
		t.Fatalf("status = %s, want PENDING", txn.Status)
	}
	if store.users[user.ID].Balance != 0 {
		t.Fatalf("deposit credited before approval")
	}

	decided, err := uc.Decide(txn.ID, domain.DecisionApprove)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decided.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want APPROVED", decided.Status)
	}
	if decided.DecidedAt == nil {
		t.Fatalf("decided transaction has no decision time")
	}
	if got := store.users[user.ID].Balance; got != 1000 {
		t.Fatalf("balance = %d, want 1000", got)
	}
}

func TestDecideRejectDepositLeavesBalance(t *testing.T) {
	uc, store, user := newLedgerFixture(t, 0, false)

	txn, _ := uc.Submit(user.ID, domain.TypeDeposit, 1000, "UPI", "")
	if _, err := uc.Decide(txn.ID, domain.DecisionReject); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got := store.users[user.ID].Balance; got != 0 {
		t.Fatalf("balance = %d, want 0 after rejection", got)
	}
}

func TestDecideIsFinal(t *testing.T) {
	uc, store, user := newLedgerFixture(t, 1000, false)

	txn, err := uc.Submit(user.ID, domain.TypeWithdrawal, 600, "BANK", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := uc.Decide(txn.ID, domain.DecisionApprove); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got := store.users[user.ID].Balance; got != 400 {
		t.Fatalf("balance = %d, want 400 after approved withdrawal", got)
	}

	// A closed transaction never changes again, and its side effect never
	// repeats.
	for _, decision := range []string{domain.DecisionApprove, domain.DecisionReject} {
		if _, err := uc.Decide(txn.ID, decision); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("re-decide %s error = %v, want invalid state", decision, err)
		}
	}
	if got := store.users[user.ID].Balance; got != 400 {
		t.Fatalf("balance = %d, want 400 after repeated decisions", got)
	}
}

func TestDecideValidation(t *testing.T) {
	uc, _, user := newLedgerFixture(t, 1000, false)
	txn, _ := uc.Submit(user.ID, domain.TypeDeposit, 100, "UPI", "")

	if _, err := uc.Decide(txn.ID, "MAYBE"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Decide() error = %v, want validation failure", err)
	}
	if _, err := uc.Decide("ghost", domain.DecisionApprove); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Decide() error = %v, want not found", err)
	}
}

func TestDecideApproveWithdrawalCanOverdraw(t *testing.T) {
	// Documented gap of the deferred-debit policy: the balance is only
	// checked at submission, so an approval after the funds were spent
	// elsewhere still debits, taking the balance negative.
	uc, store, user := newLedgerFixture(t, 1000, false)

	txn, err := uc.Submit(user.ID, domain.TypeWithdrawal, 800, "BANK", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Funds leave through another approved withdrawal first.
	store.users[user.ID].Balance = 500

	decided, err := uc.Decide(txn.ID, domain.DecisionApprove)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decided.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want APPROVED", decided.Status)
	}
	if got := store.users[user.ID].Balance; got != -300 {
		t.Fatalf("balance = %d, want -300 overdraft", got)
	}
}

func TestWithdrawalHoldPolicy(t *testing.T) {
	uc, store, user := newLedgerFixture(t, 1000, true)

	txn, err := uc.Submit(user.ID, domain.TypeWithdrawal, 600, "BANK", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !txn.HoldApplied {
		t.Fatalf("hold policy active but HoldApplied is false")
	}
	if got := store.users[user.ID].Balance; got != 400 {
		t.Fatalf("balance = %d, want 400 debited at submission", got)
	}

	// Rejection refunds the held amount.
	if _, err := uc.Decide(txn.ID, domain.DecisionReject); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got := store.users[user.ID].Balance; got != 1000 {
		t.Fatalf("balance = %d, want 1000 refunded after rejection", got)
	}
}

func TestWithdrawalHoldApprovalDoesNotDoubleDebit(t *testing.T) {
	uc, store, user := newLedgerFixture(t, 1000, true)

	txn, _ := uc.Submit(user.ID, domain.TypeWithdrawal, 600, "BANK", "")
	if _, err := uc.Decide(txn.ID, domain.DecisionApprove); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got := store.users[user.ID].Balance; got != 400 {
		t.Fatalf("balance = %d, want 400 after approving held withdrawal", got)
	}
}

func TestDecideEvictsCachedUser(t *testing.T) {
	store := newMemStore()
	holder, number, ifsc := bankDetails()
	user := store.addUser(&domain.User{
		ID:                "u1",
		Phone:             "9876543210",
		Balance:           1000,
		BankAccountHolder: holder,
		BankAccountNumber: number,
		BankIFSC:          ifsc,
	})
	cache := newMemUserCache()
	cache.CacheUser(user)
	uc := NewLedgerUsecase(&memLedgerRepo{store}, &memUserRepo{store}, cache, false)

	txn, err := uc.Submit(user.ID, domain.TypeDeposit, 500, "UPI", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := uc.Decide(txn.ID, domain.DecisionApprove); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if cache.holds(user.ID) {
		t.Fatalf("cached user survived an approved deposit")
	}
}

func TestHoldSubmitEvictsCachedUser(t *testing.T) {
	store := newMemStore()
	holder, number, ifsc := bankDetails()
	user := store.addUser(&domain.User{
		ID:                "u1",
		Phone:             "9876543210",
		Balance:           1000,
		BankAccountHolder: holder,
		BankAccountNumber: number,
		BankIFSC:          ifsc,
	})
	cache := newMemUserCache()
	cache.CacheUser(user)
	uc := NewLedgerUsecase(&memLedgerRepo{store}, &memUserRepo{store}, cache, true)

	if _, err := uc.Submit(user.ID, domain.TypeWithdrawal, 600, "BANK", ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if cache.holds(user.ID) {
		t.Fatalf("cached user survived a held withdrawal debit")
	}
}

func TestStats(t *testing.T) {
	uc, _, user := newLedgerFixture(t, 0, false)

	d1, _ := uc.Submit(user.ID, domain.TypeDeposit, 1000, "UPI", "")
	d2, _ := uc.Submit(user.ID, domain.TypeDeposit, 500, "UPI", "")
	uc.Decide(d1.ID, domain.DecisionApprove)
	uc.Decide(d2.ID, domain.DecisionReject)

	w, _ := uc.Submit(user.ID, domain.TypeWithdrawal, 300, "BANK", "")
	uc.Decide(w.ID, domain.DecisionApprove)

	stats, err := uc.Stats(user.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalDeposit != 1000 {
		t.Fatalf("total deposit = %d, want 1000 (rejected rows excluded)", stats.TotalDeposit)
	}
	if stats.TotalWithdrawal != 300 {
		t.Fatalf("total withdrawal = %d, want 300", stats.TotalWithdrawal)
	}
}

func TestPendingQueue(t *testing.T) {
	uc, _, user := newLedgerFixture(t, 0, false)

	a, _ := uc.Submit(user.ID, domain.TypeDeposit, 100, "UPI", "")
	b, _ := uc.Submit(user.ID, domain.TypeDeposit, 200, "UPI", "")
	uc.Decide(a.ID, domain.DecisionApprove)

	pending, err := uc.Pending()
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("pending queue = %v, want only %s", pending, b.ID)
	}
}
