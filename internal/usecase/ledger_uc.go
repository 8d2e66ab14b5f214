package usecase

import (
	"fmt"
	"time"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
	"github.com/apsoplatform/apso/pkg/metrics"
	"github.com/apsoplatform/apso/pkg/utils"
)

type ledgerUsecase struct {
	ledgerRepo domain.LedgerRepository
	userRepo   domain.UserRepository
	cache      UserCacheInvalidator

	// withdrawalHold debits funds at submission instead of at approval.
	// Without it an approved withdrawal can overdraw a balance that was
	// spent between submission and decision.
	withdrawalHold bool

	now func() time.Time
}

// NewLedgerUsecase creates a new transaction ledger use case. cache may be
// nil when no cache is wired.
func NewLedgerUsecase(
	ledgerRepo domain.LedgerRepository,
	userRepo domain.UserRepository,
	cache UserCacheInvalidator,
	withdrawalHold bool,
) domain.LedgerUsecase {
	return &ledgerUsecase{
		ledgerRepo:     ledgerRepo,
		userRepo:       userRepo,
		cache:          cache,
		withdrawalHold: withdrawalHold,
		now:            time.Now,
	}
}

// Submit records a deposit or withdrawal request as PENDING
func (uc *ledgerUsecase) Submit(userID, txnType string, amount int64, method, details string) (*domain.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	if !domain.IsValidRequestType(txnType) {
		return nil, fmt.Errorf("type must be %s or %s: %w",
			domain.TypeDeposit, domain.TypeWithdrawal, domain.ErrValidation)
	}
	if !utils.IsValidAmount(amount) {
		return nil, fmt.Errorf("amount must be a positive whole rupee value: %w", domain.ErrValidation)
	}

	user, err := uc.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if txnType == domain.TypeWithdrawal {
		if !user.HasBankDetails() {
			return nil, fmt.Errorf("bank details required before withdrawal: %w", domain.ErrValidation)
		}
		// Fresh balance check at submission. Without the hold policy the
		// funds stay spendable until approval.
		if !user.HasSufficientBalance(amount) {
			return nil, domain.NewInsufficientFunds(amount, user.Balance)
		}
	}

	txn := &domain.Transaction{
		ID:        utils.GenerateUUID(),
		TxnCode:   utils.GenerateTxnCode(),
		UserID:    userID,
		Type:      txnType,
		Amount:    amount,
		Status:    domain.StatusPending,
		Method:    method,
		Details:   details,
		CreatedAt: uc.now(),
	}

	hold := uc.withdrawalHold && txnType == domain.TypeWithdrawal
	if err := uc.ledgerRepo.Create(txn, hold); err != nil {
		return nil, err
	}

	if txn.HoldApplied && uc.cache != nil {
		_ = uc.cache.InvalidateUser(userID)
	}

	metrics.RecordLedgerTransaction(txnType, domain.StatusPending, amount)
	logger.Info("Transaction submitted",
		logger.String("transaction_id", txn.ID),
		logger.String("user_id", userID),
		logger.String("type", txnType),
		logger.Int64("amount", amount),
		logger.Bool("hold", txn.HoldApplied),
	)

	return txn, nil
}

// Decide closes a pending transaction. The repository applies the balance
// side effect atomically with the status change.
func (uc *ledgerUsecase) Decide(transactionID, decision string) (*domain.Transaction, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id is required: %w", domain.ErrValidation)
	}
	if !domain.IsValidDecision(decision) {
		return nil, fmt.Errorf("decision must be %s or %s: %w",
			domain.DecisionApprove, domain.DecisionReject, domain.ErrValidation)
	}

	txn, err := uc.ledgerRepo.Decide(transactionID, decision, uc.now())
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.InvalidateUser(txn.UserID)
	}

	metrics.RecordLedgerTransaction(txn.Type, txn.Status, txn.Amount)
	logger.Info("Transaction decision applied",
		logger.String("transaction_id", transactionID),
		logger.String("decision", decision),
	)

	return txn, nil
}

// History returns a page of the user's ledger, newest first
func (uc *ledgerUsecase) History(userID string, page, limit int) ([]*domain.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return uc.ledgerRepo.GetByUserID(userID, limit, (page-1)*limit)
}

// Pending returns the open review queue, oldest first
func (uc *ledgerUsecase) Pending() ([]*domain.Transaction, error) {
	return uc.ledgerRepo.GetPending()
}

// Stats aggregates the user's approved deposits and withdrawals
func (uc *ledgerUsecase) Stats(userID string) (*domain.LedgerStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}

	deposits, err := uc.ledgerRepo.SumApprovedByType(userID, domain.TypeDeposit)
	if err != nil {
		return nil, err
	}
	withdrawals, err := uc.ledgerRepo.SumApprovedByType(userID, domain.TypeWithdrawal)
	if err != nil {
		return nil, err
	}

	return &domain.LedgerStats{
		TotalDeposit:    deposits,
		TotalWithdrawal: withdrawals,
	}, nil
}
