package api

import (
	"github.com/gin-gonic/gin"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/xresponse"
)

// ReferralHandler serves referral team views
type ReferralHandler struct {
	referralUC domain.ReferralUsecase
	roleGuard  *RoleGuard
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralUC domain.ReferralUsecase) *ReferralHandler {
	return &ReferralHandler{
		referralUC: referralUC,
		roleGuard:  NewRoleGuard(),
	}
}

// TeamMember is the reduced member view shown in team listings
type TeamMember struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	JoinedAt string `json:"joined_at"`
}

func toTeamMembers(users []*domain.User) []TeamMember {
	members := make([]TeamMember, 0, len(users))
	for _, user := range users {
		members = append(members, TeamMember{
			ID:       user.ID,
			FullName: user.FullName,
			JoinedAt: user.JoinedAt.Format("2006-01-02"),
		})
	}
	return members
}

// Team returns the caller's three referral levels
func (h *ReferralHandler) Team(c *gin.Context) {
	userID, _, exists := h.roleGuard.GetCurrentUser(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return
	}

	levels, err := h.referralUC.Resolve(userID)
	if err != nil {
		respondDomainError(c, err, "Failed to resolve team")
		return
	}

	xresponse.Success(c, "Team loaded", gin.H{
		"level1":     toTeamMembers(levels.Level1),
		"level2":     toTeamMembers(levels.Level2),
		"level3":     toTeamMembers(levels.Level3),
		"total_size": levels.TotalMembers(),
	})
}
