package api

import (
	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
)

// RoleGuard reads the identity the auth middleware placed in the request
// context.
type RoleGuard struct{}

// NewRoleGuard creates a new role guard
func NewRoleGuard() *RoleGuard {
	return &RoleGuard{}
}

// GetCurrentUser extracts the authenticated user's id and role
func (g *RoleGuard) GetCurrentUser(c *gin.Context) (userID, role string, exists bool) {
	idVal, ok := c.Get("user_id")
	if !ok {
		return "", "", false
	}
	userID, ok = idVal.(string)
	if !ok || userID == "" {
		return "", "", false
	}

	role = domain.RoleUser
	if roleVal, ok := c.Get("user_role"); ok {
		if roleStr, ok := roleVal.(string); ok && roleStr != "" {
			role = roleStr
		}
	}

	return userID, role, true
}

// IsAdmin reports whether the current request carries the admin role
func (g *RoleGuard) IsAdmin(c *gin.Context) bool {
	_, role, exists := g.GetCurrentUser(c)
	return exists && role == domain.RoleAdmin
}

// CanAccessOwnData checks that the requester owns the resource or is admin
func (g *RoleGuard) CanAccessOwnData(c *gin.Context, ownerID string) bool {
	userID, role, exists := g.GetCurrentUser(c)
	if !exists {
		return false
	}
	return userID == ownerID || role == domain.RoleAdmin
}

// LogAccess records an access attempt for audit purposes
func (g *RoleGuard) LogAccess(c *gin.Context, action, resource string) {
	userID, role, _ := g.GetCurrentUser(c)
	logger.Debug("Access attempt",
		logger.String("user_id", userID),
		logger.String("role", role),
		logger.String("action", action),
		logger.String("resource", resource),
		logger.String("ip", c.ClientIP()),
	)
}
