package models

import "time"

// Permissions a shareable link can grant.
const (
	ShareView    = "view"
	ShareComment = "comment"
	ShareEdit    = "edit"
)

// ShareableLink grants account-less access to a roadmap through a public
// token, optionally password protected and embeddable.
type ShareableLink struct {
	BaseModel

	RoadmapID  string `gorm:"type:uuid;not null;index" json:"roadmap_id"`
	Token      string `gorm:"uniqueIndex;not null" json:"token"`
	Permission string `gorm:"not null;default:view" json:"permission"`
	CreatedBy  string `gorm:"type:uuid" json:"created_by"`

	PasswordProtected bool   `gorm:"default:false" json:"password_protected"`
	PasswordHash      string `json:"-"`

	ExpiresAt  *time.Time `json:"expires_at"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	AllowEmbed bool       `gorm:"default:false" json:"allow_embed"`

	Roadmap *Roadmap `gorm:"foreignKey:RoadmapID;constraint:OnDelete:CASCADE" json:"roadmap,omitempty"`
}

// Usable reports whether the link can serve content at the given time.
func (l *ShareableLink) Usable(now time.Time) bool {
	if !l.IsActive {
		return false
	}
	return l.ExpiresAt == nil || l.ExpiresAt.After(now)
}

// ValidSharePermission reports whether the value is a recognised grant.
func ValidSharePermission(p string) bool {
	switch p {
	case ShareView, ShareComment, ShareEdit:
		return true
	}
	return false
}
