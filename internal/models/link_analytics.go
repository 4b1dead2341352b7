package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LinkAnalytics is an append-only visit record for a shareable link.
type LinkAnalytics struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	LinkID    string         `gorm:"type:uuid;not null;index" json:"link_id"`
	VisitorIP string         `json:"-"`
	UserAgent string         `json:"user_agent"`
	Referer   string         `json:"referer"`
	Context   datatypes.JSON `json:"context,omitempty"`
	VisitedAt time.Time      `gorm:"index" json:"visited_at"`

	Link *ShareableLink `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate assigns identity and visit timestamp.
func (a *LinkAnalytics) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.VisitedAt.IsZero() {
		a.VisitedAt = time.Now().UTC()
	}
	return nil
}
