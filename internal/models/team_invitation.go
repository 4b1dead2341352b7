package models

import "time"

// TeamInvitation is a capability token granting a fixed role on redemption.
// MaxUses nil means unlimited; ExpiresAt nil means no expiry.
type TeamInvitation struct {
	BaseModel

	RoadmapID string `gorm:"type:uuid;not null;index" json:"roadmap_id"`
	TokenHash string `gorm:"uniqueIndex;not null" json:"-"`
	Role      string `gorm:"not null;default:member" json:"role"`
	InvitedBy string `gorm:"type:uuid" json:"invited_by"`
	Email     string `gorm:"index" json:"email"`

	ExpiresAt   *time.Time `json:"expires_at"`
	MaxUses     *int       `json:"max_uses"`
	CurrentUses int        `gorm:"default:0" json:"current_uses"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`

	Roadmap *Roadmap `gorm:"foreignKey:RoadmapID;constraint:OnDelete:CASCADE" json:"roadmap,omitempty"`
}

// Exhausted reports whether a capped invitation has no uses left.
func (i *TeamInvitation) Exhausted() bool {
	return i.MaxUses != nil && i.CurrentUses >= *i.MaxUses
}

// Expired reports whether the invitation expiry has passed at the given time.
func (i *TeamInvitation) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}
