package usecase

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
	"github.com/apsoplatform/apso/pkg/utils"
)

// UserCacheInvalidator evicts a cached user. Every flow that mutates a
// balance holds one, so a cached profile never outlives a balance change.
type UserCacheInvalidator interface {
	InvalidateUser(userID string) error
}

// UserCache is the subset of the cache layer the user flows need.
type UserCache interface {
	UserCacheInvalidator
	CacheUser(user *domain.User) error
	GetUser(userID string) (*domain.User, error)
}

type userUsecase struct {
	userRepo    domain.UserRepository
	cacheRepo   UserCache
	authService domain.AuthService

	now func() time.Time
}

// NewUserUsecase creates a new user use case. cacheRepo may be nil when no
// cache is wired.
func NewUserUsecase(
	userRepo domain.UserRepository,
	cacheRepo UserCache,
	authService domain.AuthService,
) domain.UserUsecase {
	return &userUsecase{
		userRepo:    userRepo,
		cacheRepo:   cacheRepo,
		authService: authService,
		now:         time.Now,
	}
}

// Register creates a new member account
func (uc *userUsecase) Register(input *domain.RegisterInput) (*domain.User, error) {
	if input == nil {
		return nil, fmt.Errorf("registration input is required: %w", domain.ErrValidation)
	}
	if input.FullName == "" {
		return nil, fmt.Errorf("full name is required: %w", domain.ErrValidation)
	}
	if !utils.ValidatePhoneNumber(input.Phone) {
		return nil, fmt.Errorf("invalid phone number: %w", domain.ErrValidation)
	}
	if len(input.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", domain.ErrValidation)
	}

	phone := utils.NormalizePhoneNumber(input.Phone)

	if existing, err := uc.userRepo.GetByPhone(phone); err == nil && existing != nil {
		return nil, fmt.Errorf("phone %s: %w", phone, domain.ErrDuplicate)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var referredBy *string
	if code := utils.TrimID(input.ReferralCode); code != "" {
		if _, err := uc.userRepo.GetByID(code); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("referral code %s is not a known user: %w", code, domain.ErrValidation)
			}
			return nil, err
		}
		referredBy = &code
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := uc.now()
	user := &domain.User{
		ID:           utils.GenerateUUID(),
		FullName:     input.FullName,
		Phone:        phone,
		PasswordHash: string(hash),
		Balance:      0,
		Role:         domain.RoleUser,
		ReferredBy:   referredBy,
		JoinedAt:     now,
		UpdatedAt:    now,
	}

	if err := uc.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Info("User registered",
		logger.String("user_id", user.ID),
		logger.Bool("referred", referredBy != nil),
	)

	return user, nil
}

// Login authenticates by phone and password and returns an access token
func (uc *userUsecase) Login(phone, password string) (*domain.User, string, error) {
	if phone == "" || password == "" {
		return nil, "", fmt.Errorf("phone and password are required: %w", domain.ErrValidation)
	}

	user, err := uc.userRepo.GetByPhone(utils.NormalizePhoneNumber(phone))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrValidation)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrValidation)
	}

	token, err := uc.authService.GenerateAccessToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	if uc.cacheRepo != nil {
		_ = uc.cacheRepo.CacheUser(user)
	}

	logger.Info("User logged in",
		logger.String("user_id", user.ID),
	)

	return user, token, nil
}

// Get loads a user, preferring the cache
func (uc *userUsecase) Get(id string) (*domain.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}

	if uc.cacheRepo != nil {
		if cached, err := uc.cacheRepo.GetUser(id); err == nil && cached != nil {
			return cached, nil
		}
	}

	user, err := uc.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		_ = uc.cacheRepo.CacheUser(user)
	}

	return user, nil
}

// List returns all users, newest first
func (uc *userUsecase) List() ([]*domain.User, error) {
	return uc.userRepo.List()
}

// UpdateBankDetails attaches a payout destination to the user
func (uc *userUsecase) UpdateBankDetails(id string, details *domain.BankDetails) error {
	if id == "" {
		return fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	if details == nil || details.AccountHolder == "" || details.AccountNumber == "" || details.IFSC == "" {
		return fmt.Errorf("account holder, account number and IFSC are required: %w", domain.ErrValidation)
	}

	if err := uc.userRepo.UpdateBankDetails(id, details); err != nil {
		return err
	}

	if uc.cacheRepo != nil {
		_ = uc.cacheRepo.InvalidateUser(id)
	}

	return nil
}

// ChangePassword verifies the current password and replaces it
func (uc *userUsecase) ChangePassword(id, oldPassword, newPassword string) error {
	if id == "" {
		return fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters: %w", domain.ErrValidation)
	}

	user, err := uc.userRepo.GetByID(id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = uc.now()
	if err := uc.userRepo.Update(user); err != nil {
		return err
	}

	if uc.cacheRepo != nil {
		_ = uc.cacheRepo.InvalidateUser(id)
	}

	logger.Info("Password changed",
		logger.String("user_id", id),
	)

	return nil
}
