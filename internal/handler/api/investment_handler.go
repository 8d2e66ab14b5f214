package api

import (
	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/xresponse"
)

// InvestmentHandler handles plan purchase and holdings HTTP requests
type InvestmentHandler struct {
	investmentUC domain.InvestmentUsecase
	roleGuard    *RoleGuard
}

// NewInvestmentHandler creates a new investment handler
func NewInvestmentHandler(investmentUC domain.InvestmentUsecase) *InvestmentHandler {
	return &InvestmentHandler{
		investmentUC: investmentUC,
		roleGuard:    NewRoleGuard(),
	}
}

// PurchaseRequest selects the plan to buy
type PurchaseRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// InvestmentResponse is the public view of a holding
type InvestmentResponse struct {
	ID            string `json:"id"`
	PlanID        string `json:"plan_id"`
	PlanName      string `json:"plan_name"`
	StartDate     string `json:"start_date"`
	DailyReturn   int64  `json:"daily_return"`
	DurationDays  int    `json:"duration_days"`
	TotalReturn   int64  `json:"total_return"`
	ClaimedDays   int    `json:"claimed_days"`
	DaysRemaining int    `json:"days_remaining"`
	IsActive      bool   `json:"is_active"`
}

func toInvestmentResponse(inv *domain.Investment) InvestmentResponse {
	return InvestmentResponse{
		ID:            inv.ID,
		PlanID:        inv.PlanID,
		PlanName:      inv.PlanName,
		StartDate:     inv.StartDate.Format("2006-01-02"),
		DailyReturn:   inv.DailyReturn,
		DurationDays:  inv.DurationDays,
		TotalReturn:   inv.TotalReturn,
		ClaimedDays:   inv.ClaimedDays,
		DaysRemaining: inv.DaysRemaining(),
		IsActive:      inv.IsActive,
	}
}

// Purchase buys a plan for the caller
func (h *InvestmentHandler) Purchase(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	inv, err := h.investmentUC.Purchase(userID, req.PlanID)
	if err != nil {
		respondDomainError(c, err, "Failed to purchase plan")
		return
	}

	xresponse.Created(c, "Plan purchased", toInvestmentResponse(inv))
}

// List returns the caller's holdings
func (h *InvestmentHandler) List(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	invs, err := h.investmentUC.ListForUser(userID)
	if err != nil {
		respondDomainError(c, err, "Failed to load investments")
		return
	}

	responses := make([]InvestmentResponse, 0, len(invs))
	for _, inv := range invs {
		responses = append(responses, toInvestmentResponse(inv))
	}

	xresponse.Success(c, "Investments loaded", responses)
}

// Accrue forces a daily-return credit for one investment. Admin only; the
// background worker normally does this.
func (h *InvestmentHandler) Accrue(c *gin.Context) {
	investmentID := c.Param("id")
	h.roleGuard.LogAccess(c, "accrue_investment", investmentID)

	inv, err := h.investmentUC.Accrue(investmentID)
	if err != nil {
		respondDomainError(c, err, "Failed to accrue investment")
		return
	}

	xresponse.Success(c, "Investment accrued", toInvestmentResponse(inv))
}
