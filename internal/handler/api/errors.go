package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/observability"
	"github.com/apsoplatform/apso/pkg/xresponse"
)

// respondDomainError maps the typed error taxonomy onto HTTP responses.
// Order matters: the shortfall-carrying error also matches ErrValidation, so
// it is checked first.
func respondDomainError(c *gin.Context, err error, fallback string) {
	var ife *domain.InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		xresponse.InsufficientBalance(c, "Insufficient balance", ife.Shortfall)
	case errors.Is(err, domain.ErrInsufficientFunds):
		xresponse.Error(c, http.StatusBadRequest, xresponse.ErrCodeInsufficientBalance, "Insufficient balance")
	case errors.Is(err, domain.ErrValidation):
		xresponse.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		xresponse.NotFound(c, "Resource not found")
	case errors.Is(err, domain.ErrInvalidState):
		xresponse.InvalidState(c, "Transaction already decided")
	case errors.Is(err, domain.ErrPlanLocked):
		xresponse.PlanLocked(c, "This plan is not open for purchase")
	case errors.Is(err, domain.ErrLimitExceeded):
		xresponse.LimitExceeded(c, "Plan purchase limit reached")
	case errors.Is(err, domain.ErrDuplicate):
		xresponse.Conflict(c, "Resource already exists")
	default:
		observability.RecordSystemError(c, "internal", "api", err)
		xresponse.InternalServerError(c, fallback)
	}
}
