package domain

import (
	"time"
)

// Transaction is a ledger entry. DEPOSIT and WITHDRAWAL rows are created
// PENDING by user action and closed exactly once by an administrative
// decision. INVESTMENT and EARNING rows are recorded already APPROVED by the
// investment engine for history views.
type Transaction struct {
	ID      string `json:"id" db:"id"`
	TxnCode string `json:"txn_code" db:"txn_code"`
	UserID  string `json:"user_id" db:"user_id"`

	Type   string `json:"type" db:"type"`
	Amount int64  `json:"amount" db:"amount"`
	Status string `json:"status" db:"status"`

	// Method and Details are free-form payment metadata (UPI, UTR number,
	// bank account) supplied at submission.
	Method  string `json:"method" db:"method"`
	Details string `json:"details" db:"details"`

	// HoldApplied marks withdrawals whose funds were already debited at
	// submission under the escrow policy. Decide consults it instead of the
	// current policy so a config flip between submit and decide cannot
	// double-debit.
	HoldApplied bool `json:"hold_applied" db:"hold_applied"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DecidedAt *time.Time `json:"decided_at" db:"decided_at"`
}

// LedgerStats aggregates a user's approved movements.
type LedgerStats struct {
	TotalDeposit    int64 `json:"total_deposit"`
	TotalWithdrawal int64 `json:"total_withdrawal"`
}

// LedgerRepository defines operations for transaction data access. Create
// with hold and Decide are atomic: the status write and its balance side
// effect commit together or not at all.
type LedgerRepository interface {
	Create(txn *Transaction, hold bool) error
	GetByID(id string) (*Transaction, error)
	GetByUserID(userID string, limit, offset int) ([]*Transaction, error)
	GetPending() ([]*Transaction, error)
	Decide(id, decision string, decidedAt time.Time) (*Transaction, error)
	SumApprovedByType(userID, txnType string) (int64, error)
}

// LedgerUsecase defines business logic operations for the transaction ledger
type LedgerUsecase interface {
	Submit(userID, txnType string, amount int64, method, details string) (*Transaction, error)
	Decide(transactionID, decision string) (*Transaction, error)
	History(userID string, page, limit int) ([]*Transaction, error)
	Pending() ([]*Transaction, error)
	Stats(userID string) (*LedgerStats, error)
}

// Transaction types and statuses
const (
	TypeDeposit    = "DEPOSIT"
	TypeWithdrawal = "WITHDRAWAL"
	TypeInvestment = "INVESTMENT"
	TypeEarning    = "EARNING"

	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"

	DecisionApprove = StatusApproved
	DecisionReject  = StatusRejected
)

// IsValidRequestType checks if the type is one a user may submit
func IsValidRequestType(txnType string) bool {
	return txnType == TypeDeposit || txnType == TypeWithdrawal
}

// IsValidDecision checks if the decision closes a pending transaction
func IsValidDecision(decision string) bool {
	return decision == DecisionApprove || decision == DecisionReject
}

// IsFinal reports whether the transaction has left PENDING. Final rows never
// change again.
func (t *Transaction) IsFinal() bool {
	return t.Status != StatusPending
}

// IsWithdrawal reports whether the row moves money out of the platform
func (t *Transaction) IsWithdrawal() bool {
	return t.Type == TypeWithdrawal
}
