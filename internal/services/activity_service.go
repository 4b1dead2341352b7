package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/pkg/logger"
)

// ActivityEntry captures a single user action to persist.
type ActivityEntry struct {
	UserID   string
	Action   string
	Resource string
	Metadata map[string]any
}

// ActivityService persists and retrieves the append-only user activity log.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService constructs an ActivityService using the provided database handle.
func NewActivityService(db *gorm.DB) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	return &ActivityService{db: db}, nil
}

// Log stores an activity entry, marshalling metadata into JSON form. Failures
// are logged and returned but callers treat them as non-fatal.
func (s *ActivityService) Log(ctx context.Context, entry ActivityEntry) error {
	ctx = ensureContext(ctx)

	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return errors.New("activity service: action is required")
	}

	record := models.UserActivity{
		UserID:   strings.TrimSpace(entry.UserID),
		Action:   action,
		Resource: strings.TrimSpace(entry.Resource),
	}

	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("activity service: marshal metadata: %w", err)
		}
		record.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		logger.WithModule("activity").Warn("failed to record activity")
		return fmt.Errorf("activity service: create record: %w", err)
	}
	return nil
}

// ListForUser returns the most recent activity rows for a user.
func (s *ActivityService) ListForUser(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []models.UserActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("activity service: list: %w", err)
	}
	return rows, nil
}
