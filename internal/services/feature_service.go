package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/models"
	apperrors "github.com/productcompass/compass/pkg/errors"
)

// ErrFeatureNotFound indicates the requested feature does not exist.
var ErrFeatureNotFound = apperrors.New("FEATURE_NOT_FOUND", "Feature not found", http.StatusNotFound)

// CreateFeatureInput captures a new feature.
type CreateFeatureInput struct {
	Title       string
	Description string
	Priority    string
	Status      string
	Release     string
	Date        string
}

// UpdateFeatureInput describes mutable feature fields.
type UpdateFeatureInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	Release     *string
	Date        *string
}

// FeatureService handles feature lifecycle within roadmaps.
type FeatureService struct {
	db       *gorm.DB
	checker  *access.Checker
	activity *ActivityService
	now      func() time.Time
}

// FeatureOption customises FeatureService behaviour.
type FeatureOption func(*FeatureService)

// WithFeatureClock injects a custom clock primarily for testing.
func WithFeatureClock(clock func() time.Time) FeatureOption {
	return func(s *FeatureService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewFeatureService constructs a FeatureService instance.
func NewFeatureService(db *gorm.DB, checker *access.Checker, activity *ActivityService, opts ...FeatureOption) (*FeatureService, error) {
	if db == nil {
		return nil, errors.New("feature service: db is required")
	}
	if checker == nil {
		return nil, errors.New("feature service: access checker is required")
	}
	svc := &FeatureService{db: db, checker: checker, activity: activity, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ListByRoadmap returns the roadmap's features ordered by date.
func (s *FeatureService) ListByRoadmap(ctx context.Context, userID, roadmapID string) ([]models.Feature, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, userID, roadmapID, access.PermView, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	var features []models.Feature
	err := s.db.WithContext(ctx).
		Where("roadmap_id = ?", roadmapID).
		Order("date").
		Find(&features).Error
	if err != nil {
		return nil, fmt.Errorf("feature service: list: %w", err)
	}
	return features, nil
}

// Create adds a feature to a roadmap. Requires edit access.
func (s *FeatureService) Create(ctx context.Context, userID, roadmapID string, input CreateFeatureInput) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, userID, roadmapID, access.PermEdit, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, err
	}

	feature := &models.Feature{
		RoadmapID:   roadmapID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    defaultEnum(input.Priority, models.ValidPriority, models.PriorityMedium),
		Status:      defaultEnum(input.Status, models.ValidStatus, models.StatusPlanned),
		Release:     strings.TrimSpace(input.Release),
		Date:        date,
	}

	if err := s.db.WithContext(ctx).Create(feature).Error; err != nil {
		return nil, fmt.Errorf("feature service: create: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "feature.create",
		Resource: feature.ID,
		Metadata: map[string]any{"roadmap_id": roadmapID, "title": title},
	})
	return feature, nil
}

// Get loads a feature the user may view.
func (s *FeatureService) Get(ctx context.Context, userID, featureID string) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	feature, err := s.load(ctx, featureID)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Require(ctx, userID, feature.RoadmapID, access.PermView, apperrors.ErrForbidden); err != nil {
		return nil, err
	}
	return feature, nil
}

// Update modifies a feature. Requires edit access on the parent roadmap.
func (s *FeatureService) Update(ctx context.Context, userID, featureID string, input UpdateFeatureInput) (*models.Feature, error) {
	ctx = ensureContext(ctx)

	feature, err := s.load(ctx, featureID)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Require(ctx, userID, feature.RoadmapID, access.PermEdit, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title must not be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		updates["priority"] = defaultEnum(*input.Priority, models.ValidPriority, feature.Priority)
	}
	if input.Status != nil {
		updates["status"] = defaultEnum(*input.Status, models.ValidStatus, feature.Status)
	}
	if input.Release != nil {
		updates["release"] = strings.TrimSpace(*input.Release)
	}
	if input.Date != nil {
		date, err := s.parseDate(*input.Date)
		if err != nil {
			return nil, err
		}
		updates["date"] = date
	}
	if len(updates) == 0 {
		return feature, nil
	}

	if err := s.db.WithContext(ctx).Model(feature).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("feature service: update: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "feature.update",
		Resource: featureID,
	})
	return s.load(ctx, featureID)
}

// Delete removes a feature. Requires edit access on the parent roadmap.
func (s *FeatureService) Delete(ctx context.Context, userID, featureID string) error {
	ctx = ensureContext(ctx)

	feature, err := s.load(ctx, featureID)
	if err != nil {
		return err
	}
	if err := s.checker.Require(ctx, userID, feature.RoadmapID, access.PermEdit, apperrors.ErrForbidden); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Feature{}, "id = ?", featureID).Error; err != nil {
		return fmt.Errorf("feature service: delete: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "feature.delete",
		Resource: featureID,
		Metadata: map[string]any{"roadmap_id": feature.RoadmapID},
	})
	return nil
}

// BulkInsert persists pre-normalised rows for a roadmap. Requires edit access.
func (s *FeatureService) BulkInsert(ctx context.Context, userID, roadmapID string, features []models.Feature) (int, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, userID, roadmapID, access.PermEdit, apperrors.ErrForbidden); err != nil {
		return 0, err
	}
	if len(features) == 0 {
		return 0, nil
	}

	for i := range features {
		features[i].RoadmapID = roadmapID
	}
	if err := s.db.WithContext(ctx).Create(&features).Error; err != nil {
		return 0, fmt.Errorf("feature service: bulk insert: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "feature.import",
		Resource: roadmapID,
		Metadata: map[string]any{"count": len(features)},
	})
	return len(features), nil
}

func (s *FeatureService) load(ctx context.Context, featureID string) (*models.Feature, error) {
	var feature models.Feature
	err := s.db.WithContext(ctx).First(&feature, "id = ?", featureID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFeatureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("feature service: load: %w", err)
	}
	return &feature, nil
}

func (s *FeatureService) parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.now().Truncate(24 * time.Hour), nil
	}
	if d, err := time.Parse(models.DateLayout, value); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, value); err == nil {
		return d.Truncate(24 * time.Hour), nil
	}
	return time.Time{}, apperrors.NewBadRequest("date must be an ISO date (YYYY-MM-DD)")
}

func defaultEnum(value string, valid func(string) bool, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if valid(value) {
		return value
	}
	return fallback
}
