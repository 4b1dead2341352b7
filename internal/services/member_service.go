package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/models"
	apperrors "github.com/productcompass/compass/pkg/errors"
)

var (
	// ErrMemberNotFound indicates the requested membership does not exist.
	ErrMemberNotFound = apperrors.New("MEMBER_NOT_FOUND", "User is not a member of the roadmap", http.StatusNotFound)
	// ErrMemberExists signals the user already holds a membership.
	ErrMemberExists = apperrors.New("MEMBER_EXISTS", "User is already a member of the roadmap", http.StatusConflict)
	// ErrOwnerImmutable rejects role changes or removal of the owner membership.
	ErrOwnerImmutable = apperrors.New("OWNER_IMMUTABLE", "The roadmap owner membership cannot be modified", http.StatusBadRequest)
)

// MemberService manages roadmap collaborator memberships.
type MemberService struct {
	db       *gorm.DB
	checker  *access.Checker
	activity *ActivityService
}

// NewMemberService constructs a MemberService instance.
func NewMemberService(db *gorm.DB, checker *access.Checker, activity *ActivityService) (*MemberService, error) {
	if db == nil {
		return nil, errors.New("member service: db is required")
	}
	if checker == nil {
		return nil, errors.New("member service: access checker is required")
	}
	return &MemberService{db: db, checker: checker, activity: activity}, nil
}

// List returns the roadmap's memberships with user profiles preloaded.
func (s *MemberService) List(ctx context.Context, userID, roadmapID string) ([]models.ProjectMember, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, userID, roadmapID, access.PermView, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	var members []models.ProjectMember
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("roadmap_id = ?", roadmapID).
		Order("created_at").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("member service: list: %w", err)
	}
	return members, nil
}

// UpdateRole changes a member's role. Requires admin access; the owner row is
// immutable and the owner role cannot be granted.
func (s *MemberService) UpdateRole(ctx context.Context, actorID, roadmapID, memberUserID, role string) (*models.ProjectMember, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, actorID, roadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	if !models.ValidRole(role) || role == models.RoleOwner {
		return nil, apperrors.NewBadRequest("role must be one of admin, member, viewer")
	}

	member, err := s.load(ctx, roadmapID, memberUserID)
	if err != nil {
		return nil, err
	}
	if member.Role == models.RoleOwner {
		return nil, ErrOwnerImmutable
	}

	if err := s.db.WithContext(ctx).Model(member).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("member service: update role: %w", err)
	}
	member.Role = role

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		Action:   "member.role.update",
		Resource: roadmapID,
		Metadata: map[string]any{"member": memberUserID, "role": role},
	})
	return member, nil
}

// Remove deletes a membership. Admins can remove others; any member can
// remove themselves. The owner membership cannot be removed.
func (s *MemberService) Remove(ctx context.Context, actorID, roadmapID, memberUserID string) error {
	ctx = ensureContext(ctx)

	if actorID != memberUserID {
		if err := s.checker.Require(ctx, actorID, roadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
			return err
		}
	}

	member, err := s.load(ctx, roadmapID, memberUserID)
	if err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		return ErrOwnerImmutable
	}

	if err := s.db.WithContext(ctx).Delete(member).Error; err != nil {
		return fmt.Errorf("member service: remove: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		Action:   "member.remove",
		Resource: roadmapID,
		Metadata: map[string]any{"member": memberUserID},
	})
	return nil
}

func (s *MemberService) load(ctx context.Context, roadmapID, memberUserID string) (*models.ProjectMember, error) {
	var member models.ProjectMember
	err := s.db.WithContext(ctx).
		Where("roadmap_id = ? AND user_id = ?", roadmapID, memberUserID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("member service: load: %w", err)
	}
	return &member, nil
}
