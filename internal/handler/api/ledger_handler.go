package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/xresponse"
)

// LedgerHandler handles deposit and withdrawal HTTP requests
type LedgerHandler struct {
	ledgerUC  domain.LedgerUsecase
	roleGuard *RoleGuard
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerUC domain.LedgerUsecase) *LedgerHandler {
	return &LedgerHandler{
		ledgerUC:  ledgerUC,
		roleGuard: NewRoleGuard(),
	}
}

// SubmitTransactionRequest represents a deposit or withdrawal request
type SubmitTransactionRequest struct {
	Type    string `json:"type" binding:"required"`
	Amount  int64  `json:"amount" binding:"required"`
	Method  string `json:"method"`
	Details string `json:"details"`
}

// DecideTransactionRequest carries the administrative decision
type DecideTransactionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// TransactionResponse is the public view of a ledger row
type TransactionResponse struct {
	ID          string  `json:"id"`
	TxnCode     string  `json:"txn_code"`
	UserID      string  `json:"user_id"`
	Type        string  `json:"type"`
	Amount      int64   `json:"amount"`
	Status      string  `json:"status"`
	Method      string  `json:"method,omitempty"`
	Details     string  `json:"details,omitempty"`
	HoldApplied bool    `json:"hold_applied"`
	CreatedAt   string  `json:"created_at"`
	DecidedAt   *string `json:"decided_at,omitempty"`
}

func toTransactionResponse(txn *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          txn.ID,
		TxnCode:     txn.TxnCode,
		UserID:      txn.UserID,
		Type:        txn.Type,
		Amount:      txn.Amount,
		Status:      txn.Status,
		Method:      txn.Method,
		Details:     txn.Details,
		HoldApplied: txn.HoldApplied,
		CreatedAt:   txn.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if txn.DecidedAt != nil {
		decidedAt := txn.DecidedAt.Format("2006-01-02 15:04:05")
		resp.DecidedAt = &decidedAt
	}
	return resp
}

// Submit records a deposit or withdrawal request for the caller
func (h *LedgerHandler) Submit(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	var req SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	txn, err := h.ledgerUC.Submit(userID, req.Type, req.Amount, req.Method, req.Details)
	if err != nil {
		respondDomainError(c, err, "Failed to submit transaction")
		return
	}

	xresponse.Created(c, "Transaction submitted", toTransactionResponse(txn))
}

// History returns a page of the caller's ledger
func (h *LedgerHandler) History(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	txns, err := h.ledgerUC.History(userID, page, limit)
	if err != nil {
		respondDomainError(c, err, "Failed to load history")
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, toTransactionResponse(txn))
	}

	xresponse.Success(c, "History loaded", responses)
}

// Stats returns the caller's approved deposit and withdrawal totals
func (h *LedgerHandler) Stats(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.ledgerUC.Stats(userID)
	if err != nil {
		respondDomainError(c, err, "Failed to load stats")
		return
	}

	xresponse.Success(c, "Stats loaded", stats)
}

// Pending returns the open review queue. Admin only.
func (h *LedgerHandler) Pending(c *gin.Context) {
	h.roleGuard.LogAccess(c, "list_pending", "transactions")

	txns, err := h.ledgerUC.Pending()
	if err != nil {
		respondDomainError(c, err, "Failed to load pending transactions")
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, toTransactionResponse(txn))
	}

	xresponse.Success(c, "Pending transactions loaded", responses)
}

// Decide approves or rejects a pending transaction. Admin only.
func (h *LedgerHandler) Decide(c *gin.Context) {
	transactionID := c.Param("id")

	var req DecideTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	h.roleGuard.LogAccess(c, "decide_transaction", transactionID)

	txn, err := h.ledgerUC.Decide(transactionID, req.Decision)
	if err != nil {
		respondDomainError(c, err, "Failed to decide transaction")
		return
	}

	xresponse.Success(c, "Transaction decided", toTransactionResponse(txn))
}
