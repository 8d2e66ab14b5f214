package domain

// Plan is an immutable catalog entry describing an investment product.
// The core never mutates plans; it only reads them and snapshots their
// figures onto investments at purchase time.
type Plan struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Cost         int64  `json:"cost" db:"cost"`
	DailyReturn  int64  `json:"daily_return" db:"daily_return"`
	DurationDays int    `json:"duration_days" db:"duration_days"`
	Description  string `json:"description" db:"description"`
}

// PlanRepository defines read access plus the one-time seed used at startup
type PlanRepository interface {
	GetByID(id string) (*Plan, error)
	List() ([]*Plan, error)
	Seed(plans []*Plan) error
}

// TotalReturn is the full payout over the plan's duration
func (p *Plan) TotalReturn() int64 {
	return p.DailyReturn * int64(p.DurationDays)
}

// DefaultCatalog returns the seed catalog installed when the plans table is
// empty. Only the entry plan is purchasable; the rest are displayed locked.
func DefaultCatalog() []*Plan {
	return []*Plan{
		{ID: "p1", Name: "PLAN A", Cost: 590, DailyReturn: 80, DurationDays: 45, Description: "Starter Income Plan"},
		{ID: "p2", Name: "PLAN B", Cost: 2200, DailyReturn: 400, DurationDays: 45, Description: "Growth Income Plan"},
		{ID: "p3", Name: "PLAN C", Cost: 5500, DailyReturn: 1100, DurationDays: 45, Description: "Silver Income Plan"},
		{ID: "p4", Name: "PLAN D", Cost: 11000, DailyReturn: 2400, DurationDays: 45, Description: "Gold Income Plan"},
		{ID: "p5", Name: "PLAN E", Cost: 25000, DailyReturn: 5800, DurationDays: 45, Description: "Platinum Income Plan"},
		{ID: "p6", Name: "PLAN F", Cost: 50000, DailyReturn: 12500, DurationDays: 45, Description: "Diamond Income Plan"},
		{ID: "p7", Name: "PLAN G", Cost: 90000, DailyReturn: 25000, DurationDays: 45, Description: "Executive Income Plan"},
		{ID: "p8", Name: "PLAN H", Cost: 150000, DailyReturn: 45000, DurationDays: 45, Description: "VIP Income Plan"},
	}
}
