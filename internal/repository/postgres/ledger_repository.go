package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
)

type ledgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new transaction ledger repository
func NewLedgerRepository(db *sqlx.DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

const transactionColumns = `id, txn_code, user_id, type, amount, status,
		method, details, hold_applied, created_at, decided_at`

const insertTransactionQuery = `
	INSERT INTO transactions (id, txn_code, user_id, type, amount, status,
		method, details, hold_applied, created_at, decided_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// Create inserts a ledger row. When hold is set for a withdrawal the user's
// balance is debited in the same transaction, so an underfunded request
// fails as a unit and writes nothing.
func (r *ledgerRepository) Create(txn *domain.Transaction, hold bool) error {
	if !hold || txn.Type != domain.TypeWithdrawal {
		txn.HoldApplied = false
		_, err := r.db.Exec(insertTransactionQuery,
			txn.ID, txn.TxnCode, txn.UserID, txn.Type, txn.Amount, txn.Status,
			txn.Method, txn.Details, txn.HoldApplied, txn.CreatedAt, txn.DecidedAt,
		)
		if err != nil {
			logger.Error("Failed to create transaction",
				logger.String("user_id", txn.UserID),
				logger.String("type", txn.Type),
				logger.ErrorField(err),
			)
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := lockUserBalance(tx, txn.UserID)
	if err != nil {
		return err
	}
	if balance < txn.Amount {
		return domain.NewInsufficientFunds(txn.Amount, balance)
	}

	if err := adjustUserBalance(tx, txn.UserID, -txn.Amount); err != nil {
		return err
	}

	txn.HoldApplied = true
	_, err = tx.Exec(insertTransactionQuery,
		txn.ID, txn.TxnCode, txn.UserID, txn.Type, txn.Amount, txn.Status,
		txn.Method, txn.Details, txn.HoldApplied, txn.CreatedAt, txn.DecidedAt,
	)
	if err != nil {
		logger.Error("Failed to create held withdrawal",
			logger.String("user_id", txn.UserID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Info("Withdrawal hold applied",
		logger.String("transaction_id", txn.ID),
		logger.String("user_id", txn.UserID),
		logger.Int64("amount", txn.Amount),
	)

	return nil
}

// GetByID retrieves a transaction by ID
func (r *ledgerRepository) GetByID(id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var txn domain.Transaction
	err := r.db.Get(&txn, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		logger.Error("Failed to get transaction",
			logger.String("transaction_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

// GetByUserID retrieves a user's transactions, newest first
func (r *ledgerRepository) GetByUserID(userID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var txns []*domain.Transaction
	err := r.db.Select(&txns, query, userID, limit, offset)
	if err != nil {
		logger.Error("Failed to get user transactions",
			logger.String("user_id", userID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get user transactions: %w", err)
	}

	return txns, nil
}

// GetPending retrieves all open requests, oldest first for the review queue
func (r *ledgerRepository) GetPending() ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE status = $1 ORDER BY created_at ASC`

	var txns []*domain.Transaction
	err := r.db.Select(&txns, query, domain.StatusPending)
	if err != nil {
		logger.Error("Failed to get pending transactions", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get pending transactions: %w", err)
	}

	return txns, nil
}

// Decide closes a pending transaction and applies its balance side effect in
// one database transaction. The row is locked first, so concurrent decisions
// on the same id serialize and the loser sees a final status.
func (r *ledgerRepository) Decide(id, decision string, decidedAt time.Time) (*domain.Transaction, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var txn domain.Transaction
	err = tx.Get(&txn, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}

	if txn.IsFinal() {
		return nil, fmt.Errorf("transaction %s already %s: %w", id, txn.Status, domain.ErrInvalidState)
	}

	if _, err := lockUserBalance(tx, txn.UserID); err != nil {
		return nil, err
	}

	switch {
	case decision == domain.DecisionApprove && txn.Type == domain.TypeDeposit:
		if err := adjustUserBalance(tx, txn.UserID, txn.Amount); err != nil {
			return nil, err
		}
	case decision == domain.DecisionApprove && txn.Type == domain.TypeWithdrawal:
		// Held withdrawals were debited at submission. Deferred ones are
		// debited here without re-checking funds: the balance was only
		// verified at submission, so approval can take it negative.
		if !txn.HoldApplied {
			if err := adjustUserBalance(tx, txn.UserID, -txn.Amount); err != nil {
				return nil, err
			}
		}
	case decision == domain.DecisionReject && txn.Type == domain.TypeWithdrawal:
		if txn.HoldApplied {
			if err := adjustUserBalance(tx, txn.UserID, txn.Amount); err != nil {
				return nil, err
			}
		}
	}

	result, err := tx.Exec(
		`UPDATE transactions SET status = $2, decided_at = $3 WHERE id = $1`,
		id, decision, decidedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit decision: %w", err)
	}

	txn.Status = decision
	txn.DecidedAt = &decidedAt

	logger.Info("Transaction decided",
		logger.String("transaction_id", id),
		logger.String("type", txn.Type),
		logger.String("decision", decision),
		logger.Int64("amount", txn.Amount),
	)

	return &txn, nil
}

// SumApprovedByType totals a user's approved movements of one type
func (r *ledgerRepository) SumApprovedByType(userID, txnType string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3
	`

	var total int64
	err := r.db.Get(&total, query, userID, txnType, domain.StatusApproved)
	if err != nil {
		logger.Error("Failed to sum transactions",
			logger.String("user_id", userID),
			logger.String("type", txnType),
			logger.ErrorField(err),
		)
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}

	return total, nil
}

// lockUserBalance reads a user's balance under FOR UPDATE so every financial
// mutation for that user serializes on the row lock.
func lockUserBalance(tx *sqlx.Tx, userID string) (int64, error) {
	var balance int64
	err := tx.Get(&balance, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to lock user balance: %w", err)
	}
	return balance, nil
}

// adjustUserBalance applies a signed delta to a locked user row
func adjustUserBalance(tx *sqlx.Tx, userID string, delta int64) error {
	result, err := tx.Exec(
		`UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		userID, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}
