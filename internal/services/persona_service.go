package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/models"
	apperrors "github.com/productcompass/compass/pkg/errors"
)

// ErrPersonaNotFound indicates the requested persona does not exist.
var ErrPersonaNotFound = apperrors.New("PERSONA_NOT_FOUND", "Persona not found", http.StatusNotFound)

// PersonaInput captures persona attributes for create and update.
type PersonaInput struct {
	Name         string
	Age          *int
	JobTitle     string
	Demographics string
	Behaviors    string
	Goals        string
	Pains        string
}

// PersonaService handles customer persona lifecycle, scoped to the creator.
type PersonaService struct {
	db       *gorm.DB
	activity *ActivityService
}

// NewPersonaService constructs a PersonaService instance.
func NewPersonaService(db *gorm.DB, activity *ActivityService) (*PersonaService, error) {
	if db == nil {
		return nil, errors.New("persona service: db is required")
	}
	return &PersonaService{db: db, activity: activity}, nil
}

// List returns the user's personas in creation order.
func (s *PersonaService) List(ctx context.Context, userID string) ([]models.Persona, error) {
	ctx = ensureContext(ctx)

	var personas []models.Persona
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at").
		Find(&personas).Error
	if err != nil {
		return nil, fmt.Errorf("persona service: list: %w", err)
	}
	return personas, nil
}

// Create adds a persona for the user.
func (s *PersonaService) Create(ctx context.Context, userID string, input PersonaInput) (*models.Persona, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	persona := &models.Persona{
		OwnerID:      userID,
		Name:         name,
		Age:          input.Age,
		JobTitle:     strings.TrimSpace(input.JobTitle),
		Demographics: strings.TrimSpace(input.Demographics),
		Behaviors:    strings.TrimSpace(input.Behaviors),
		Goals:        strings.TrimSpace(input.Goals),
		Pains:        strings.TrimSpace(input.Pains),
	}

	if err := s.db.WithContext(ctx).Create(persona).Error; err != nil {
		return nil, fmt.Errorf("persona service: create: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "persona.create",
		Resource: persona.ID,
	})
	return persona, nil
}

// Update modifies a persona the user owns.
func (s *PersonaService) Update(ctx context.Context, userID, personaID string, input PersonaInput) (*models.Persona, error) {
	ctx = ensureContext(ctx)

	persona, err := s.load(ctx, userID, personaID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		persona.Name = name
	}
	if input.Age != nil {
		persona.Age = input.Age
	}
	persona.JobTitle = strings.TrimSpace(input.JobTitle)
	persona.Demographics = strings.TrimSpace(input.Demographics)
	persona.Behaviors = strings.TrimSpace(input.Behaviors)
	persona.Goals = strings.TrimSpace(input.Goals)
	persona.Pains = strings.TrimSpace(input.Pains)

	if err := s.db.WithContext(ctx).Save(persona).Error; err != nil {
		return nil, fmt.Errorf("persona service: update: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "persona.update",
		Resource: personaID,
	})
	return persona, nil
}

// Delete removes a persona the user owns.
func (s *PersonaService) Delete(ctx context.Context, userID, personaID string) error {
	ctx = ensureContext(ctx)

	if _, err := s.load(ctx, userID, personaID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Persona{}, "id = ?", personaID).Error; err != nil {
		return fmt.Errorf("persona service: delete: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "persona.delete",
		Resource: personaID,
	})
	return nil
}

func (s *PersonaService) load(ctx context.Context, userID, personaID string) (*models.Persona, error) {
	var persona models.Persona
	err := s.db.WithContext(ctx).First(&persona, "id = ?", personaID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPersonaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persona service: load: %w", err)
	}
	if persona.OwnerID != userID {
		return nil, apperrors.ErrForbidden
	}
	return &persona, nil
}
