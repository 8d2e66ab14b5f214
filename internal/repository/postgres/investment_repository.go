package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
	"github.com/apsoplatform/apso/pkg/utils"
)

type investmentRepository struct {
	db *sqlx.DB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *sqlx.DB) domain.InvestmentRepository {
	return &investmentRepository{db: db}
}

const investmentColumns = `id, user_id, plan_id, plan_name, start_date,
		daily_return, duration_days, total_return, claimed_days, is_active,
		created_at`

// PurchaseEntry commits a plan purchase as one unit: the user row is locked,
// the per-plan cap and the fresh balance are re-checked under that lock, the
// cost is debited and both the investment and its ledger row are inserted.
// Any failing check rolls everything back.
func (r *investmentRepository) PurchaseEntry(inv *domain.Investment, cost int64, maxPerPlan int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := lockUserBalance(tx, inv.UserID)
	if err != nil {
		return err
	}

	var count int
	err = tx.Get(&count,
		`SELECT COUNT(*) FROM investments WHERE user_id = $1 AND plan_id = $2`,
		inv.UserID, inv.PlanID,
	)
	if err != nil {
		return fmt.Errorf("failed to count investments: %w", err)
	}
	if count >= maxPerPlan {
		return fmt.Errorf("plan %s held %d times, max %d: %w",
			inv.PlanID, count, maxPerPlan, domain.ErrLimitExceeded)
	}

	if balance < cost {
		return domain.NewInsufficientFunds(cost, balance)
	}

	if err := adjustUserBalance(tx, inv.UserID, -cost); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO investments (id, user_id, plan_id, plan_name, start_date,
			daily_return, duration_days, total_return, claimed_days, is_active,
			created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID, inv.UserID, inv.PlanID, inv.PlanName, inv.StartDate,
		inv.DailyReturn, inv.DurationDays, inv.TotalReturn, inv.ClaimedDays,
		inv.IsActive, inv.CreatedAt,
	)
	if err != nil {
		logger.Error("Failed to insert investment",
			logger.String("user_id", inv.UserID),
			logger.String("plan_id", inv.PlanID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to insert investment: %w", err)
	}

	if err := insertLedgerRow(tx, inv.UserID, domain.TypeInvestment, cost,
		fmt.Sprintf("Purchased %s", inv.PlanName), inv.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purchase: %w", err)
	}

	logger.Info("Investment purchased",
		logger.String("investment_id", inv.ID),
		logger.String("user_id", inv.UserID),
		logger.String("plan_id", inv.PlanID),
		logger.Int64("cost", cost),
	)

	return nil
}

// Accrue credits every day elapsed since the last credit, capped at the
// schedule length, and deactivates the investment once fully paid out. The
// investment row is locked first so concurrent accruals for the same id
// serialize and each day pays exactly once.
func (r *investmentRepository) Accrue(id string, now time.Time) (*domain.Investment, int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inv domain.Investment
	err = tx.Get(&inv, `SELECT `+investmentColumns+` FROM investments WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
		}
		return nil, 0, fmt.Errorf("failed to lock investment: %w", err)
	}

	days := inv.AccruableDays(now)
	if days == 0 {
		return &inv, 0, nil
	}

	credit := int64(days) * inv.DailyReturn
	inv.ClaimedDays += days
	inv.IsActive = !inv.IsComplete()

	result, err := tx.Exec(
		`UPDATE investments SET claimed_days = $2, is_active = $3 WHERE id = $1`,
		id, inv.ClaimedDays, inv.IsActive,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to update investment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, 0, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
	}

	if _, err := lockUserBalance(tx, inv.UserID); err != nil {
		return nil, 0, err
	}
	if err := adjustUserBalance(tx, inv.UserID, credit); err != nil {
		return nil, 0, err
	}

	if err := insertLedgerRow(tx, inv.UserID, domain.TypeEarning, credit,
		fmt.Sprintf("Daily return from %s (%d days)", inv.PlanName, days), now); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit accrual: %w", err)
	}

	logger.Info("Investment accrued",
		logger.String("investment_id", id),
		logger.Int("days", days),
		logger.Int64("credit", credit),
		logger.Bool("active", inv.IsActive),
	)

	return &inv, credit, nil
}

// GetByID retrieves an investment by ID
func (r *investmentRepository) GetByID(id string) (*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`

	var inv domain.Investment
	err := r.db.Get(&inv, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
		}
		logger.Error("Failed to get investment",
			logger.String("investment_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}

	return &inv, nil
}

// GetByUserID retrieves a user's investments, newest first
func (r *investmentRepository) GetByUserID(userID string) ([]*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investments WHERE user_id = $1 ORDER BY created_at DESC`

	var invs []*domain.Investment
	err := r.db.Select(&invs, query, userID)
	if err != nil {
		logger.Error("Failed to get user investments",
			logger.String("user_id", userID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get user investments: %w", err)
	}

	return invs, nil
}

// GetActiveIDs lists investments that still owe daily returns
func (r *investmentRepository) GetActiveIDs() ([]string, error) {
	var ids []string
	err := r.db.Select(&ids, `SELECT id FROM investments WHERE is_active = true`)
	if err != nil {
		logger.Error("Failed to get active investment ids", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get active investments: %w", err)
	}

	return ids, nil
}

// CountByUserAndPlan counts how many times a user holds a plan
func (r *investmentRepository) CountByUserAndPlan(userID, planID string) (int, error) {
	var count int
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM investments WHERE user_id = $1 AND plan_id = $2`,
		userID, planID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count investments: %w", err)
	}

	return count, nil
}

// insertLedgerRow records an already-approved history entry inside an open
// database transaction. Used for INVESTMENT and EARNING rows, which are never
// pending.
func insertLedgerRow(tx *sqlx.Tx, userID, txnType string, amount int64, details string, at time.Time) error {
	_, err := tx.Exec(insertTransactionQuery,
		utils.GenerateUUID(), utils.GenerateTxnCode(), userID, txnType, amount,
		domain.StatusApproved, "SYSTEM", details, false, at, at,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s ledger row: %w", txnType, err)
	}
	return nil
}
