package usecase

import (
	"fmt"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/metrics"
	"github.com/apsoplatform/apso/pkg/utils"
)

type referralUsecase struct {
	userRepo domain.UserRepository
}

// NewReferralUsecase creates a new referral use case
func NewReferralUsecase(userRepo domain.UserRepository) domain.ReferralUsecase {
	return &referralUsecase{userRepo: userRepo}
}

// Resolve walks the referral tree below a user to exactly three levels.
// Level 1 holds direct referrals, level 2 their referrals, level 3 one more
// step. Anything deeper is out of scope for team views and commissions.
func (uc *referralUsecase) Resolve(userID string) (*domain.ReferralLevels, error) {
	userID = utils.TrimID(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}

	if _, err := uc.userRepo.GetByID(userID); err != nil {
		return nil, err
	}

	levels := &domain.ReferralLevels{}

	frontier := []string{userID}
	for depth := 1; depth <= domain.MaxReferralDepth; depth++ {
		var members []*domain.User
		for _, id := range frontier {
			referred, err := uc.userRepo.GetByReferrer(id)
			if err != nil {
				return nil, err
			}
			members = append(members, referred...)
		}

		next := make([]string, 0, len(members))
		for _, member := range members {
			next = append(next, utils.TrimID(member.ID))
		}

		switch depth {
		case 1:
			levels.Level1 = members
		case 2:
			levels.Level2 = members
		case 3:
			levels.Level3 = members
		}
		frontier = next
	}

	metrics.RecordReferralResolution()

	return levels, nil
}

// TeamSize counts the members across all three levels
func (uc *referralUsecase) TeamSize(userID string) (int, error) {
	levels, err := uc.Resolve(userID)
	if err != nil {
		return 0, err
	}
	return levels.TotalMembers(), nil
}
