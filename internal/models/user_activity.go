package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserActivity is an append-only audit record of user actions.
type UserActivity struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string         `gorm:"type:uuid;index" json:"user_id"`
	Action     string         `gorm:"not null;index" json:"action"`
	Resource   string         `gorm:"index" json:"resource"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	OccurredAt time.Time      `gorm:"index" json:"occurred_at"`
}

// BeforeCreate assigns identity and event timestamp.
func (a *UserActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	return nil
}
