package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for the financial core. Every failing operation returns one
// of these, wrapped with context by the usecase layer. All of them are
// recoverable: the caller sees the typed failure and no partial write is
// ever visible.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrPlanLocked        = errors.New("plan locked")
	ErrLimitExceeded     = errors.New("limit exceeded")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicate         = errors.New("already exists")
)

// InsufficientFundsError reports how much the caller is short. It matches
// both ErrInsufficientFunds and ErrValidation under errors.Is so callers can
// treat it at either granularity.
type InsufficientFundsError struct {
	Shortfall int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: short by %d", e.Shortfall)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds || target == ErrValidation
}

// NewInsufficientFunds builds the typed error from required and available
// amounts.
func NewInsufficientFunds(required, available int64) error {
	return &InsufficientFundsError{Shortfall: required - available}
}
