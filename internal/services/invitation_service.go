package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/pkg/crypto"
	apperrors "github.com/productcompass/compass/pkg/errors"
	"github.com/productcompass/compass/pkg/logger"
	"github.com/productcompass/compass/pkg/mail"
)

const (
	defaultInviteExpiry     = 7 * 24 * time.Hour
	defaultInviteTokenBytes = 32
)

var (
	// ErrInvitationNotFound indicates no invitation matches the provided token.
	ErrInvitationNotFound = apperrors.New("INVITATION_NOT_FOUND", "Invitation not found", http.StatusNotFound)
	// ErrInvitationExpired indicates the invitation token has expired.
	ErrInvitationExpired = apperrors.New("INVITATION_EXPIRED", "Invitation has expired", http.StatusGone)
	// ErrInvitationExhausted indicates the invitation usage cap has been reached.
	ErrInvitationExhausted = apperrors.New("INVITATION_EXHAUSTED", "Invitation has no uses remaining", http.StatusGone)
	// ErrInvitationInactive indicates the invitation was deactivated.
	ErrInvitationInactive = apperrors.New("INVITATION_INACTIVE", "Invitation is no longer active", http.StatusGone)
)

// CreateInvitationInput captures a new invitation.
type CreateInvitationInput struct {
	Role      string
	Email     string
	ExpiresIn time.Duration // zero means the default expiry; negative means no expiry
	MaxUses   *int
}

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationBaseURL configures the base URL used to build join hyperlinks.
func WithInvitationBaseURL(url string) InvitationOption {
	return func(s *InvitationService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithInvitationClock injects a custom clock primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InvitationService manages generation and redemption of roadmap invitations.
type InvitationService struct {
	db       *gorm.DB
	checker  *access.Checker
	activity *ActivityService
	mailer   mail.Mailer
	baseURL  string
	now      func() time.Time
}

// NewInvitationService constructs an InvitationService with the provided dependencies.
func NewInvitationService(db *gorm.DB, checker *access.Checker, activity *ActivityService, mailer mail.Mailer, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	if checker == nil {
		return nil, errors.New("invitation service: access checker is required")
	}

	svc := &InvitationService{
		db:       db,
		checker:  checker,
		activity: activity,
		mailer:   mailer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create issues a new invitation for a roadmap and dispatches an email to the
// invitee when one is addressed. Requires admin access. Email delivery is
// fire-and-forget: failures are logged, never returned.
func (s *InvitationService) Create(ctx context.Context, actorID, roadmapID string, input CreateInvitationInput) (*models.TeamInvitation, string, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, actorID, roadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return nil, "", err
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) || role == models.RoleOwner {
		return nil, "", apperrors.NewBadRequest("role must be one of admin, member, viewer")
	}
	if input.MaxUses != nil && *input.MaxUses < 1 {
		return nil, "", apperrors.NewBadRequest("max_uses must be at least 1")
	}

	rawToken, err := crypto.GenerateToken(defaultInviteTokenBytes)
	if err != nil {
		return nil, "", fmt.Errorf("invitation service: generate token: %w", err)
	}

	invitation := &models.TeamInvitation{
		RoadmapID: roadmapID,
		TokenHash: tokenHash(rawToken),
		Role:      role,
		InvitedBy: actorID,
		Email:     normaliseEmail(input.Email),
		MaxUses:   input.MaxUses,
		IsActive:  true,
	}

	switch {
	case input.ExpiresIn > 0:
		expires := s.now().Add(input.ExpiresIn)
		invitation.ExpiresAt = &expires
	case input.ExpiresIn == 0:
		expires := s.now().Add(defaultInviteExpiry)
		invitation.ExpiresAt = &expires
	}

	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, "", fmt.Errorf("invitation service: create: %w", err)
	}

	if invitation.Email != "" {
		s.sendInviteEmail(ctx, invitation, rawToken)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		Action:   "invitation.create",
		Resource: roadmapID,
		Metadata: map[string]any{"role": role},
	})

	return invitation, rawToken, nil
}

// List returns the roadmap's invitations. Requires admin access.
func (s *InvitationService) List(ctx context.Context, actorID, roadmapID string) ([]models.TeamInvitation, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, actorID, roadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	var invitations []models.TeamInvitation
	err := s.db.WithContext(ctx).
		Where("roadmap_id = ?", roadmapID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: list: %w", err)
	}
	return invitations, nil
}

// Preview resolves a token without mutating it, for the join page.
func (s *InvitationService) Preview(ctx context.Context, token string) (*models.TeamInvitation, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkRedeemable(invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

// Redeem consumes the invitation for userID, creating the membership and
// incrementing the usage counter in one transaction. The usage increment is a
// guarded conditional update so a capped invitation never oversells under
// concurrent redemption.
func (s *InvitationService) Redeem(ctx context.Context, userID, token string) (*models.ProjectMember, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrUnauthorized
	}

	invitation, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkRedeemable(invitation); err != nil {
		return nil, err
	}

	var member *models.ProjectMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TeamInvitation{}).
			Where("id = ? AND is_active = ? AND (max_uses IS NULL OR current_uses < max_uses)", invitation.ID, true).
			Update("current_uses", gorm.Expr("current_uses + 1"))
		if result.Error != nil {
			return fmt.Errorf("increment uses: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvitationExhausted
		}

		member = &models.ProjectMember{
			RoadmapID: invitation.RoadmapID,
			UserID:    userID,
			Role:      invitation.Role,
			Status:    models.MemberActive,
		}
		if err := tx.Create(member).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrMemberExists
			}
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("invitation service: redeem: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "invitation.redeem",
		Resource: invitation.RoadmapID,
		Metadata: map[string]any{"role": invitation.Role},
	})
	return member, nil
}

// Deactivate permanently disables an invitation. Requires admin access.
func (s *InvitationService) Deactivate(ctx context.Context, actorID, invitationID string) error {
	ctx = ensureContext(ctx)

	var invitation models.TeamInvitation
	err := s.db.WithContext(ctx).First(&invitation, "id = ?", invitationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("invitation service: load: %w", err)
	}

	if err := s.checker.Require(ctx, actorID, invitation.RoadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&invitation).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("invitation service: deactivate: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		Action:   "invitation.deactivate",
		Resource: invitation.RoadmapID,
	})
	return nil
}

func (s *InvitationService) findByToken(ctx context.Context, token string) (*models.TeamInvitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("token is required")
	}

	var invitation models.TeamInvitation
	err := s.db.WithContext(ctx).
		Preload("Roadmap").
		Where("token_hash = ?", tokenHash(token)).
		First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: find by token: %w", err)
	}
	return &invitation, nil
}

// checkRedeemable rejects invitations in a terminal state without mutation.
func (s *InvitationService) checkRedeemable(invitation *models.TeamInvitation) error {
	if !invitation.IsActive {
		return ErrInvitationInactive
	}
	if invitation.Expired(s.now()) {
		return ErrInvitationExpired
	}
	if invitation.Exhausted() {
		return ErrInvitationExhausted
	}
	return nil
}

func (s *InvitationService) sendInviteEmail(ctx context.Context, invitation *models.TeamInvitation, rawToken string) {
	if s.mailer == nil {
		return
	}

	roadmapName := "a roadmap"
	if invitation.Roadmap != nil {
		roadmapName = invitation.Roadmap.Name
	} else {
		var roadmap models.Roadmap
		if err := s.db.WithContext(ctx).Select("name").First(&roadmap, "id = ?", invitation.RoadmapID).Error; err == nil {
			roadmapName = roadmap.Name
		}
	}

	link := rawToken
	if s.baseURL != "" {
		link = fmt.Sprintf("%s/join/%s", s.baseURL, rawToken)
	}

	msg := mail.Message{
		To:      []string{invitation.Email},
		Subject: fmt.Sprintf("You've been invited to collaborate on %s", roadmapName),
		HTMLBody: fmt.Sprintf(
			"<p>You have been invited to join <strong>%s</strong> as a %s.</p><p><a href=%q>Accept the invitation</a></p>",
			roadmapName, invitation.Role, link),
		TextBody: fmt.Sprintf("You have been invited to join %s as a %s. Accept: %s", roadmapName, invitation.Role, link),
	}

	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrMailDisabled) {
		logger.WithModule("invitations").Warn("invite email delivery failed")
	}
}

func tokenHash(token string) string {
	checksum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(checksum[:])
}
