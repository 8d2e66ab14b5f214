package domain

// MaxReferralDepth bounds resolution to exactly three generations. The
// referral forest is acyclic by construction (the referrer pointer is fixed
// at registration and cannot name a not-yet-created descendant), but the
// resolver still never walks past this depth.
const MaxReferralDepth = 3

// ReferralLevels groups a user's downstream team by generational distance.
// Level1 members were referred directly; Level2 by a Level1 member; Level3
// by a Level2 member.
type ReferralLevels struct {
	Level1 []*User `json:"level1"`
	Level2 []*User `json:"level2"`
	Level3 []*User `json:"level3"`
}

// TotalMembers counts the team across all three levels
func (r *ReferralLevels) TotalMembers() int {
	return len(r.Level1) + len(r.Level2) + len(r.Level3)
}

// ReferralUsecase resolves a user's referral team. Pure read path: it may
// run concurrently with writers without coordination.
type ReferralUsecase interface {
	Resolve(userID string) (*ReferralLevels, error)
	TeamSize(userID string) (int, error)
}
