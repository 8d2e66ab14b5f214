package domain

import (
	"strings"
	"time"
)

// User represents a platform member. Balance is held in whole rupees and is
// the single authoritative figure for every financial decision.
type User struct {
	ID           string `json:"id" db:"id"`
	FullName     string `json:"full_name" db:"full_name"`
	Phone        string `json:"phone" db:"phone"`
	PasswordHash string `json:"-" db:"password_hash"`

	Balance int64  `json:"balance" db:"balance"`
	Role    string `json:"role" db:"role"`

	// ReferredBy is fixed at registration and never changes afterwards.
	ReferredBy *string `json:"referred_by" db:"referred_by"`

	// Bank payout details, required before a withdrawal can be requested.
	BankAccountHolder *string `json:"bank_account_holder" db:"bank_account_holder"`
	BankAccountNumber *string `json:"bank_account_number" db:"bank_account_number"`
	BankIFSC          *string `json:"bank_ifsc" db:"bank_ifsc"`

	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BankDetails is the payout destination attached to a user.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

// UserRepository defines operations for user data access
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByPhone(phone string) (*User, error)
	List() ([]*User, error)
	Update(user *User) error
	UpdateBankDetails(id string, details *BankDetails) error
	GetByReferrer(referrerID string) ([]*User, error)
	GetBalance(id string) (int64, error)
}

// UserUsecase defines business logic operations for users
type UserUsecase interface {
	Register(input *RegisterInput) (*User, error)
	Login(phone, password string) (*User, string, error)
	Get(id string) (*User, error)
	List() ([]*User, error)
	UpdateBankDetails(id string, details *BankDetails) error
	ChangePassword(id, oldPassword, newPassword string) error
}

// RegisterInput carries the fields collected at sign-up. ReferralCode is the
// referrer's user id and is optional.
type RegisterInput struct {
	FullName     string
	Phone        string
	Password     string
	ReferralCode string
}

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// IsValidRole checks if the role is one the system knows about
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// IsAdmin reports whether the user holds the administrative role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasBankDetails reports whether payout details are on file
func (u *User) HasBankDetails() bool {
	return u.BankAccountHolder != nil && u.BankAccountNumber != nil && u.BankIFSC != nil
}

// GetBankDetails returns the payout details, or nil when none are on file
func (u *User) GetBankDetails() *BankDetails {
	if !u.HasBankDetails() {
		return nil
	}
	return &BankDetails{
		AccountHolder: *u.BankAccountHolder,
		AccountNumber: *u.BankAccountNumber,
		IFSC:          *u.BankIFSC,
	}
}

// HasSufficientBalance checks if the user can cover the given amount
func (u *User) HasSufficientBalance(amount int64) bool {
	return u.Balance >= amount
}

// ReferrerID returns the trimmed referrer id, or "" when the user joined
// without one. Stored ids may carry incidental whitespace, so comparisons go
// through this accessor.
func (u *User) ReferrerID() string {
	if u.ReferredBy == nil {
		return ""
	}
	return strings.TrimSpace(*u.ReferredBy)
}
