package postgres

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) domain.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, full_name, phone, password_hash, balance, role,
		referred_by, bank_account_holder, bank_account_number, bank_ifsc,
		joined_at, updated_at`

// Create creates a new user
func (r *userRepository) Create(user *domain.User) error {
	query := `
		INSERT INTO users (id, full_name, phone, password_hash, balance, role,
			referred_by, bank_account_holder, bank_account_number, bank_ifsc,
			joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(query,
		user.ID, user.FullName, user.Phone, user.PasswordHash,
		user.Balance, user.Role, user.ReferredBy,
		user.BankAccountHolder, user.BankAccountNumber, user.BankIFSC,
		user.JoinedAt, user.UpdatedAt,
	)

	if err != nil {
		logger.Error("Failed to create user",
			logger.String("phone", user.Phone),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("User created successfully",
		logger.String("user_id", user.ID),
	)

	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		logger.Error("Failed to get user by ID",
			logger.String("user_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByPhone retrieves a user by phone number
func (r *userRepository) GetByPhone(phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`

	var user domain.User
	err := r.db.Get(&user, query, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("phone %s: %w", phone, domain.ErrNotFound)
		}
		logger.Error("Failed to get user by phone",
			logger.String("phone", phone),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// List retrieves all users, newest first
func (r *userRepository) List() ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY joined_at DESC`

	var users []*domain.User
	err := r.db.Select(&users, query)
	if err != nil {
		logger.Error("Failed to list users", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Update updates a user
func (r *userRepository) Update(user *domain.User) error {
	query := `
		UPDATE users SET
			full_name = $2, phone = $3, password_hash = $4, balance = $5,
			role = $6, referred_by = $7, bank_account_holder = $8,
			bank_account_number = $9, bank_ifsc = $10, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		user.ID, user.FullName, user.Phone, user.PasswordHash,
		user.Balance, user.Role, user.ReferredBy,
		user.BankAccountHolder, user.BankAccountNumber, user.BankIFSC,
	)

	if err != nil {
		logger.Error("Failed to update user",
			logger.String("user_id", user.ID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}

	return nil
}

// UpdateBankDetails sets the user's payout destination
func (r *userRepository) UpdateBankDetails(id string, details *domain.BankDetails) error {
	query := `
		UPDATE users SET
			bank_account_holder = $2, bank_account_number = $3, bank_ifsc = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id, details.AccountHolder, details.AccountNumber, details.IFSC)
	if err != nil {
		logger.Error("Failed to update bank details",
			logger.String("user_id", id),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to update bank details: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	logger.Info("Bank details updated",
		logger.String("user_id", id),
	)

	return nil
}

// GetByReferrer retrieves the direct referrals of a user. Stored referrer ids
// may carry incidental whitespace, so the comparison trims the column.
func (r *userRepository) GetByReferrer(referrerID string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users WHERE btrim(referred_by) = $1 ORDER BY joined_at DESC`

	var users []*domain.User
	err := r.db.Select(&users, query, referrerID)
	if err != nil {
		logger.Error("Failed to get users by referrer",
			logger.String("referrer_id", referrerID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get users by referrer: %w", err)
	}

	return users, nil
}

// GetBalance retrieves user balance
func (r *userRepository) GetBalance(id string) (int64, error) {
	query := `SELECT balance FROM users WHERE id = $1`

	var balance int64
	err := r.db.Get(&balance, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		logger.Error("Failed to get balance",
			logger.String("user_id", id),
			logger.ErrorField(err),
		)
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}
