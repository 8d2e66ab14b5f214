package api

import (
	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
	"github.com/apsoplatform/apso/pkg/xresponse"
)

// UserHandler handles account and authentication HTTP requests
type UserHandler struct {
	userUC    domain.UserUsecase
	roleGuard *RoleGuard
}

// NewUserHandler creates a new user handler
func NewUserHandler(userUC domain.UserUsecase) *UserHandler {
	return &UserHandler{
		userUC:    userUC,
		roleGuard: NewRoleGuard(),
	}
}

// RegisterRequest represents the sign-up payload
type RegisterRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Password     string `json:"password" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// BankDetailsRequest represents the payout destination payload
type BankDetailsRequest struct {
	AccountHolder string `json:"account_holder" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	IFSC          string `json:"ifsc" binding:"required"`
}

// ChangePasswordRequest represents the password rotation payload
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	Phone       string  `json:"phone"`
	Balance     int64   `json:"balance"`
	Role        string  `json:"role"`
	ReferredBy  *string `json:"referred_by,omitempty"`
	HasBank     bool    `json:"has_bank_details"`
	JoinedAt    string  `json:"joined_at"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		FullName:   user.FullName,
		Phone:      user.Phone,
		Balance:    user.Balance,
		Role:       user.Role,
		ReferredBy: user.ReferredBy,
		HasBank:    user.HasBankDetails(),
		JoinedAt:   user.JoinedAt.Format("2006-01-02 15:04:05"),
	}
}

// Register creates a new account
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	user, err := h.userUC.Register(&domain.RegisterInput{
		FullName:     req.FullName,
		Phone:        req.Phone,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondDomainError(c, err, "Failed to register")
		return
	}

	xresponse.Created(c, "Account created", toUserResponse(user))
}

// Login authenticates and returns an access token
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	user, token, err := h.userUC.Login(req.Phone, req.Password)
	if err != nil {
		// Any credential failure gets the same response.
		logger.Warn("Login failed",
			logger.String("ip", c.ClientIP()),
		)
		xresponse.InvalidCredentials(c, "Invalid phone or password")
		return
	}

	xresponse.Success(c, "Login successful", gin.H{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// Me returns the authenticated user's account
func (h *UserHandler) Me(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.userUC.Get(userID)
	if err != nil {
		respondDomainError(c, err, "Failed to load account")
		return
	}

	xresponse.Success(c, "Account loaded", toUserResponse(user))
}

// UpdateBankDetails attaches a payout destination to the caller's account
func (h *UserHandler) UpdateBankDetails(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	var req BankDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	err := h.userUC.UpdateBankDetails(userID, &domain.BankDetails{
		AccountHolder: req.AccountHolder,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
	})
	if err != nil {
		respondDomainError(c, err, "Failed to update bank details")
		return
	}

	xresponse.Success(c, "Bank details updated", nil)
}

// ChangePassword rotates the caller's password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	if err := h.userUC.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		respondDomainError(c, err, "Failed to change password")
		return
	}

	xresponse.Success(c, "Password changed", nil)
}

// ListUsers returns every account. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.roleGuard.LogAccess(c, "list_users", "users")

	users, err := h.userUC.List()
	if err != nil {
		respondDomainError(c, err, "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}

	xresponse.Success(c, "Users loaded", responses)
}
