package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	authpkg "github.com/apsoplatform/apso/pkg/auth"
	"github.com/apsoplatform/apso/pkg/logger"
	"github.com/apsoplatform/apso/pkg/xresponse"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	router *gin.Engine,
	userHandler *UserHandler,
	planHandler *PlanHandler,
	ledgerHandler *LedgerHandler,
	investmentHandler *InvestmentHandler,
	referralHandler *ReferralHandler,
	authService domain.AuthService,
) {
	router.Use(corsMiddleware(), recoveryMiddleware())

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		// Catalog is public: locked plans are still browsable.
		v1.GET("/plans", planHandler.List)
		v1.GET("/plans/:id", planHandler.Get)

		authed := v1.Group("")
		authed.Use(authMiddleware(authService))
		{
			authed.GET("/me", userHandler.Me)
			authed.PUT("/me/bank-details", userHandler.UpdateBankDetails)
			authed.PUT("/me/password", userHandler.ChangePassword)

			authed.POST("/transactions", ledgerHandler.Submit)
			authed.GET("/transactions", ledgerHandler.History)
			authed.GET("/transactions/stats", ledgerHandler.Stats)

			authed.POST("/investments", investmentHandler.Purchase)
			authed.GET("/investments", investmentHandler.List)

			authed.GET("/team", referralHandler.Team)
		}

		admin := v1.Group("/admin")
		admin.Use(authMiddleware(authService), adminMiddleware())
		{
			admin.GET("/users", userHandler.ListUsers)
			admin.GET("/transactions/pending", ledgerHandler.Pending)
			admin.POST("/transactions/:id/decide", ledgerHandler.Decide)
			admin.POST("/investments/:id/accrue", investmentHandler.Accrue)
		}
	}

	logger.Info("API routes configured successfully")
}

// authMiddleware validates JWT token and sets user context
func authMiddleware(authService domain.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			xresponse.InternalServerError(c, "Auth service not available")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			xresponse.Unauthorized(c, "Authorization header with Bearer token required")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			xresponse.Unauthorized(c, "Token is empty")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, authpkg.ErrExpiredToken):
				xresponse.Unauthorized(c, "Token expired")
			case errors.Is(err, authpkg.ErrInvalidToken):
				xresponse.Unauthorized(c, "Invalid token")
			default:
				xresponse.InternalServerError(c, "Failed to validate token")
			}
			c.Abort()
			return
		}

		userID := strings.TrimSpace(claims.UserID)
		if userID == "" {
			xresponse.Unauthorized(c, "Invalid token payload")
			c.Abort()
			return
		}

		role := strings.ToUpper(strings.TrimSpace(claims.Role))

		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Set("token_issued_at", claims.IssuedAt)
		c.Set("token_expires_at", claims.ExpiresAt)

		c.Next()
	}
}

// adminMiddleware restricts access to admin users only
func adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get("user_role")
		if !exists {
			xresponse.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		role, _ := roleVal.(string)
		if strings.ToUpper(role) != domain.RoleAdmin {
			logger.Warn("Admin access denied",
				logger.String("user_role", role),
				logger.String("ip", c.ClientIP()),
			)
			xresponse.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			logger.String("error", fmt.Sprintf("%v", recovered)),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
		)

		xresponse.InternalServerError(c, "Internal server error")
		c.Abort()
	})
}
