package database

import (
	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Roadmap{},
		&models.Feature{},
		&models.Persona{},
		&models.ProjectMember{},
		&models.TeamInvitation{},
		&models.ShareableLink{},
		&models.LinkAnalytics{},
		&models.ExportHistory{},
		&models.UserActivity{},
	)
}
