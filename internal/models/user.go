package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User describes an account holder. PasswordHash is empty for identities
// provisioned through the federated token verifier.
type User struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `json:"-"`
	FederatedID  *string `gorm:"uniqueIndex" json:"-"`

	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	Roadmaps []Roadmap `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Personas []Persona `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
