package api

import (
	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/xresponse"
)

// PlanHandler serves the plan catalog
type PlanHandler struct {
	planRepo    domain.PlanRepository
	entryPlanID string
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planRepo domain.PlanRepository, entryPlanID string) *PlanHandler {
	return &PlanHandler{
		planRepo:    planRepo,
		entryPlanID: entryPlanID,
	}
}

// PlanResponse is the public view of a catalog entry. Locked plans are shown
// but cannot be purchased.
type PlanResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Cost         int64  `json:"cost"`
	DailyReturn  int64  `json:"daily_return"`
	DurationDays int    `json:"duration_days"`
	TotalReturn  int64  `json:"total_return"`
	Description  string `json:"description"`
	Locked       bool   `json:"locked"`
}

func (h *PlanHandler) toPlanResponse(plan *domain.Plan) PlanResponse {
	return PlanResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		Cost:         plan.Cost,
		DailyReturn:  plan.DailyReturn,
		DurationDays: plan.DurationDays,
		TotalReturn:  plan.TotalReturn(),
		Description:  plan.Description,
		Locked:       plan.ID != h.entryPlanID,
	}
}

// List returns the full catalog
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.planRepo.List()
	if err != nil {
		respondDomainError(c, err, "Failed to load plans")
		return
	}

	responses := make([]PlanResponse, 0, len(plans))
	for _, plan := range plans {
		responses = append(responses, h.toPlanResponse(plan))
	}

	xresponse.Success(c, "Plans loaded", responses)
}

// Get returns one catalog entry
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.planRepo.GetByID(c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "Failed to load plan")
		return
	}

	xresponse.Success(c, "Plan loaded", h.toPlanResponse(plan))
}
