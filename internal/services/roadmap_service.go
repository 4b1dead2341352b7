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

var (
	// ErrRoadmapNotFound indicates the requested roadmap does not exist.
	ErrRoadmapNotFound = apperrors.New("ROADMAP_NOT_FOUND", "Roadmap not found", http.StatusNotFound)
	// ErrUnknownTemplate signals a create request with an unrecognised template.
	ErrUnknownTemplate = apperrors.New("UNKNOWN_TEMPLATE", "Unknown roadmap template", http.StatusBadRequest)
)

// CreateRoadmapInput captures new roadmap metadata.
type CreateRoadmapInput struct {
	Name        string
	Description string
	IsPublic    bool
	Template    string
}

// UpdateRoadmapInput describes mutable roadmap fields.
type UpdateRoadmapInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// RoadmapService handles roadmap lifecycle and listing.
type RoadmapService struct {
	db       *gorm.DB
	checker  *access.Checker
	activity *ActivityService
	now      func() time.Time
}

// RoadmapOption customises RoadmapService behaviour.
type RoadmapOption func(*RoadmapService)

// WithRoadmapClock injects a custom clock primarily for testing.
func WithRoadmapClock(clock func() time.Time) RoadmapOption {
	return func(s *RoadmapService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewRoadmapService constructs a RoadmapService instance.
func NewRoadmapService(db *gorm.DB, checker *access.Checker, activity *ActivityService, opts ...RoadmapOption) (*RoadmapService, error) {
	if db == nil {
		return nil, errors.New("roadmap service: db is required")
	}
	if checker == nil {
		return nil, errors.New("roadmap service: access checker is required")
	}
	svc := &RoadmapService{db: db, checker: checker, activity: activity, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create registers a new roadmap owned by ownerID, optionally populating it
// from a built-in template.
func (s *RoadmapService) Create(ctx context.Context, ownerID string, input CreateRoadmapInput) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	template := strings.TrimSpace(input.Template)
	if !KnownTemplate(template) {
		return nil, ErrUnknownTemplate
	}

	roadmap := &models.Roadmap{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     ownerID,
		IsPublic:    input.IsPublic,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(roadmap).Error; err != nil {
			return fmt.Errorf("create roadmap: %w", err)
		}

		// The owner also holds an explicit membership row so member listings
		// are uniform.
		member := &models.ProjectMember{
			RoadmapID: roadmap.ID,
			UserID:    ownerID,
			Role:      models.RoleOwner,
			Status:    models.MemberActive,
		}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}

		if features := templateFeatures(template, roadmap.ID, s.now()); len(features) > 0 {
			if err := tx.Create(&features).Error; err != nil {
				return fmt.Errorf("populate template features: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("roadmap service: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   ownerID,
		Action:   "roadmap.create",
		Resource: roadmap.ID,
		Metadata: map[string]any{"name": roadmap.Name, "template": template},
	})

	return roadmap, nil
}

// List returns roadmaps the user owns or actively collaborates on.
func (s *RoadmapService) List(ctx context.Context, userID string) ([]models.Roadmap, error) {
	ctx = ensureContext(ctx)

	var roadmaps []models.Roadmap
	err := s.db.WithContext(ctx).
		Distinct("roadmaps.*").
		Joins("LEFT JOIN project_members ON project_members.roadmap_id = roadmaps.id").
		Where("roadmaps.owner_id = ? OR (project_members.user_id = ? AND project_members.status = ?)",
			userID, userID, models.MemberActive).
		Order("roadmaps.created_at").
		Find(&roadmaps).Error
	if err != nil {
		return nil, fmt.Errorf("roadmap service: list: %w", err)
	}
	return roadmaps, nil
}

// GetByID loads a roadmap the user may view. An empty userID is allowed for
// public roadmaps.
func (s *RoadmapService) GetByID(ctx context.Context, userID, id string) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	var roadmap models.Roadmap
	err := s.db.WithContext(ctx).First(&roadmap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoadmapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("roadmap service: load roadmap: %w", err)
	}

	if err := s.checker.Require(ctx, userID, id, access.PermView, apperrors.ErrForbidden); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// Update modifies roadmap metadata. Requires admin access.
func (s *RoadmapService) Update(ctx context.Context, userID, id string, input UpdateRoadmapInput) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	var roadmap models.Roadmap
	err := s.db.WithContext(ctx).First(&roadmap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoadmapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("roadmap service: load roadmap: %w", err)
	}

	if err := s.checker.Require(ctx, userID, id, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if len(updates) == 0 {
		return &roadmap, nil
	}

	if err := s.db.WithContext(ctx).Model(&roadmap).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("roadmap service: update roadmap: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "roadmap.update",
		Resource: id,
		Metadata: updates,
	})

	if err := s.db.WithContext(ctx).First(&roadmap, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("roadmap service: reload roadmap: %w", err)
	}
	return &roadmap, nil
}

// Delete removes a roadmap and its dependent rows. Owner only.
func (s *RoadmapService) Delete(ctx context.Context, userID, id string) error {
	ctx = ensureContext(ctx)

	var roadmap models.Roadmap
	err := s.db.WithContext(ctx).First(&roadmap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoadmapNotFound
	}
	if err != nil {
		return fmt.Errorf("roadmap service: load roadmap: %w", err)
	}

	if err := s.checker.Require(ctx, userID, id, access.PermOwner, apperrors.ErrForbidden); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.Feature{}, &models.ProjectMember{}, &models.TeamInvitation{},
			&models.ShareableLink{}, &models.ExportHistory{},
		} {
			if err := tx.Where("roadmap_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Roadmap{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("roadmap service: delete roadmap: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "roadmap.delete",
		Resource: id,
		Metadata: map[string]any{"name": roadmap.Name},
	})
	return nil
}

// EnsureDemo finds or creates the public demo roadmap owned by demoOwnerID.
func (s *RoadmapService) EnsureDemo(ctx context.Context, demoOwnerID string) (*models.Roadmap, error) {
	ctx = ensureContext(ctx)

	var roadmap models.Roadmap
	err := s.db.WithContext(ctx).First(&roadmap, "name = ? AND owner_id = ?", DemoRoadmapName, demoOwnerID).Error
	if err == nil {
		return &roadmap, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("roadmap service: load demo roadmap: %w", err)
	}

	return s.Create(ctx, demoOwnerID, CreateRoadmapInput{
		Name:     DemoRoadmapName,
		IsPublic: true,
		Template: DemoTemplateID,
	})
}
