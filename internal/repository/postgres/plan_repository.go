package postgres

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
)

type planRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sqlx.DB) domain.PlanRepository {
	return &planRepository{db: db}
}

// GetByID retrieves a plan by ID
func (r *planRepository) GetByID(id string) (*domain.Plan, error) {
	query := `
		SELECT id, name, cost, daily_return, duration_days, description
		FROM plans WHERE id = $1
	`

	var plan domain.Plan
	err := r.db.Get(&plan, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
		}
		logger.Error("Failed to get plan",
			logger.String("plan_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// List retrieves the full catalog, cheapest first
func (r *planRepository) List() ([]*domain.Plan, error) {
	query := `
		SELECT id, name, cost, daily_return, duration_days, description
		FROM plans ORDER BY cost ASC
	`

	var plans []*domain.Plan
	err := r.db.Select(&plans, query)
	if err != nil {
		logger.Error("Failed to list plans", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}

// Seed installs the catalog when the table is empty. Existing rows are left
// untouched so restarts never overwrite an edited catalog.
func (r *planRepository) Seed(plans []*domain.Plan) error {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM plans`); err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO plans (id, name, cost, daily_return, duration_days, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, plan := range plans {
		if _, err := tx.Exec(query, plan.ID, plan.Name, plan.Cost,
			plan.DailyReturn, plan.DurationDays, plan.Description); err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", plan.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan seed: %w", err)
	}

	logger.Info("Plan catalog seeded",
		logger.Int("plans", len(plans)),
	)

	return nil
}
