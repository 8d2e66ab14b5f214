package domain

import (
	"time"
)

// Investment is a user's holding of a purchased plan. DailyReturn,
// DurationDays and TotalReturn are snapshotted from the plan at purchase
// time and stay fixed even if the catalog entry later changes.
type Investment struct {
	ID       string `json:"id" db:"id"`
	UserID   string `json:"user_id" db:"user_id"`
	PlanID   string `json:"plan_id" db:"plan_id"`
	PlanName string `json:"plan_name" db:"plan_name"`

	StartDate    time.Time `json:"start_date" db:"start_date"`
	DailyReturn  int64     `json:"daily_return" db:"daily_return"`
	DurationDays int       `json:"duration_days" db:"duration_days"`
	TotalReturn  int64     `json:"total_return" db:"total_return"`

	// ClaimedDays counts how many daily returns have been credited so far.
	// Invariant: 0 <= ClaimedDays <= DurationDays.
	ClaimedDays int  `json:"claimed_days" db:"claimed_days"`
	IsActive    bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// InvestmentRepository defines operations for investment data access.
// PurchaseEntry and Accrue are atomic units: eligibility check, balance
// mutation and record write commit together or not at all.
type InvestmentRepository interface {
	// PurchaseEntry re-checks the per-plan cap and the user's fresh balance
	// under lock, debits cost, inserts the investment and its INVESTMENT
	// ledger row.
	PurchaseEntry(inv *Investment, cost int64, maxPerPlan int) error
	// Accrue advances ClaimedDays up to the number of days elapsed at `now`,
	// capped at DurationDays, crediting DailyReturn per advanced day. It
	// returns the refreshed investment and the amount credited.
	Accrue(id string, now time.Time) (*Investment, int64, error)
	GetByID(id string) (*Investment, error)
	GetByUserID(userID string) ([]*Investment, error)
	GetActiveIDs() ([]string, error)
	CountByUserAndPlan(userID, planID string) (int, error)
}

// InvestmentUsecase defines business logic operations for investments
type InvestmentUsecase interface {
	Purchase(userID, planID string) (*Investment, error)
	Accrue(investmentID string) (*Investment, error)
	EnqueueDueAccruals() (int, error)
	ListForUser(userID string) ([]*Investment, error)
}

// IsComplete reports whether every day of the schedule has been credited
func (i *Investment) IsComplete() bool {
	return i.ClaimedDays >= i.DurationDays
}

// DaysRemaining returns how many daily returns are still unclaimed
func (i *Investment) DaysRemaining() int {
	remaining := i.DurationDays - i.ClaimedDays
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ElapsedDays returns whole days between the start date and now, never
// negative.
func (i *Investment) ElapsedDays(now time.Time) int {
	days := int(now.Sub(i.StartDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// AccruableDays returns how many days are creditable at `now`: elapsed days
// capped by the schedule, minus what has already been claimed.
func (i *Investment) AccruableDays(now time.Time) int {
	target := i.ElapsedDays(now)
	if target > i.DurationDays {
		target = i.DurationDays
	}
	delta := target - i.ClaimedDays
	if delta < 0 {
		return 0
	}
	return delta
}
