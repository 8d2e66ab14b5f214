package usecase

import (
	"fmt"
	"time"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
	"github.com/apsoplatform/apso/pkg/metrics"
	"github.com/apsoplatform/apso/pkg/utils"
)

type investmentUsecase struct {
	investmentRepo domain.InvestmentRepository
	planRepo       domain.PlanRepository
	queue          domain.AccrualQueue
	cache          UserCacheInvalidator

	entryPlanID    string
	entryPlanLimit int

	now func() time.Time
}

// NewInvestmentUsecase creates a new investment use case. Only entryPlanID is
// purchasable; holdings of it are capped at entryPlanLimit per user. cache
// may be nil when no cache is wired.
func NewInvestmentUsecase(
	investmentRepo domain.InvestmentRepository,
	planRepo domain.PlanRepository,
	queue domain.AccrualQueue,
	cache UserCacheInvalidator,
	entryPlanID string,
	entryPlanLimit int,
) domain.InvestmentUsecase {
	return &investmentUsecase{
		investmentRepo: investmentRepo,
		planRepo:       planRepo,
		queue:          queue,
		cache:          cache,
		entryPlanID:    entryPlanID,
		entryPlanLimit: entryPlanLimit,
		now:            time.Now,
	}
}

// Purchase buys a plan for the user. The repository re-checks the cap and the
// fresh balance under lock, so two concurrent purchases cannot both pass.
func (uc *investmentUsecase) Purchase(userID, planID string) (*domain.Investment, error) {
	if userID == "" || planID == "" {
		return nil, fmt.Errorf("user id and plan id are required: %w", domain.ErrValidation)
	}

	plan, err := uc.planRepo.GetByID(planID)
	if err != nil {
		metrics.RecordPurchase(planID, "plan_not_found")
		return nil, err
	}

	if plan.ID != uc.entryPlanID {
		metrics.RecordPurchase(planID, "locked")
		return nil, fmt.Errorf("plan %s is not open for purchase: %w", planID, domain.ErrPlanLocked)
	}

	now := uc.now()
	inv := &domain.Investment{
		ID:           utils.GenerateUUID(),
		UserID:       userID,
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		StartDate:    now,
		DailyReturn:  plan.DailyReturn,
		DurationDays: plan.DurationDays,
		TotalReturn:  plan.TotalReturn(),
		ClaimedDays:  0,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := uc.investmentRepo.PurchaseEntry(inv, plan.Cost, uc.entryPlanLimit); err != nil {
		metrics.RecordPurchase(planID, "rejected")
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.InvalidateUser(userID)
	}

	metrics.RecordPurchase(planID, "success")
	logger.Info("Plan purchased",
		logger.String("investment_id", inv.ID),
		logger.String("user_id", userID),
		logger.String("plan_id", planID),
		logger.Int64("cost", plan.Cost),
	)

	return inv, nil
}

// Accrue credits every unclaimed elapsed day of the investment. Safe to call
// any number of times; a day never pays twice.
func (uc *investmentUsecase) Accrue(investmentID string) (*domain.Investment, error) {
	if investmentID == "" {
		return nil, fmt.Errorf("investment id is required: %w", domain.ErrValidation)
	}

	inv, credited, err := uc.investmentRepo.Accrue(investmentID, uc.now())
	if err != nil {
		return nil, err
	}

	if credited > 0 {
		if uc.cache != nil {
			_ = uc.cache.InvalidateUser(inv.UserID)
		}
		days := int(credited / inv.DailyReturn)
		metrics.RecordAccrual(days, credited)
		logger.Info("Daily returns credited",
			logger.String("investment_id", investmentID),
			logger.Int64("credited", credited),
			logger.Int("claimed_days", inv.ClaimedDays),
		)
	}

	return inv, nil
}

// EnqueueDueAccruals pushes every active investment onto the accrual queue
// and returns how many were enqueued.
func (uc *investmentUsecase) EnqueueDueAccruals() (int, error) {
	ids, err := uc.investmentRepo.GetActiveIDs()
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, id := range ids {
		if err := uc.queue.EnqueueAccrual(id); err != nil {
			logger.Error("Failed to enqueue accrual",
				logger.String("investment_id", id),
				logger.ErrorField(err),
			)
			continue
		}
		enqueued++
	}

	if length, err := uc.queue.QueueLength(); err == nil {
		metrics.SetQueueSize("accrual", float64(length))
	}

	return enqueued, nil
}

// ListForUser returns the user's investments, newest first
func (uc *investmentUsecase) ListForUser(userID string) ([]*domain.Investment, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	return uc.investmentRepo.GetByUserID(userID)
}
