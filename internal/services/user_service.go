package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/auth"
	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/pkg/crypto"
	apperrors "github.com/productcompass/compass/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken signals a registration against an existing email.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "An account with this email already exists", http.StatusConflict)
)

// RegisterInput captures a local account registration.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// UpdateProfileInput describes mutable profile fields.
type UpdateProfileInput struct {
	DisplayName *string
	Avatar      *string
}

// UserService handles account lifecycle for local and federated identities.
type UserService struct {
	db       *gorm.DB
	activity *ActivityService
	now      func() time.Time
}

// UserOption customises UserService behaviour.
type UserOption func(*UserService)

// WithUserClock injects a custom clock primarily for testing.
func WithUserClock(clock func() time.Time) UserOption {
	return func(s *UserService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, activity *ActivityService, opts ...UserOption) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	svc := &UserService{db: db, activity: activity, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates a local account with a bcrypt credential hash.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		IsActive:     true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID: user.ID,
		Action: "user.register",
	})

	return user, nil
}

// Authenticate verifies a local credential pair and stamps the login.
func (s *UserService) Authenticate(ctx context.Context, email, password, ip string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !user.IsActive || user.PasswordHash == "" || !crypto.VerifyPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.stampLogin(ctx, &user, ip); err != nil {
		return nil, err
	}

	recordActivity(s.activity, ctx, ActivityEntry{UserID: user.ID, Action: "user.login"})
	return &user, nil
}

// FederatedLogin finds or provisions the account bound to a verified
// federated identity and stamps the login.
func (s *UserService) FederatedLogin(ctx context.Context, claims *auth.IdentityClaims, ip string) (*models.User, error) {
	ctx = ensureContext(ctx)

	if claims == nil || claims.Subject == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "federated_id = ?", claims.Subject).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		provisioned, createErr := s.provisionFederated(ctx, claims)
		if createErr != nil {
			return nil, createErr
		}
		user = *provisioned
	default:
		return nil, fmt.Errorf("user service: load federated user: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrForbidden
	}

	if err := s.stampLogin(ctx, &user, ip); err != nil {
		return nil, err
	}

	recordActivity(s.activity, ctx, ActivityEntry{UserID: user.ID, Action: "user.login.federated"})
	return &user, nil
}

func (s *UserService) provisionFederated(ctx context.Context, claims *auth.IdentityClaims) (*models.User, error) {
	// Attach the identity to an existing account when the verified email
	// already has one; otherwise create a fresh account.
	if claims.Email != "" {
		var existing models.User
		err := s.db.WithContext(ctx).First(&existing, "email = ?", claims.Email).Error
		if err == nil {
			subject := claims.Subject
			if err := s.db.WithContext(ctx).Model(&existing).Update("federated_id", subject).Error; err != nil {
				return nil, fmt.Errorf("user service: link federated identity: %w", err)
			}
			existing.FederatedID = &subject
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user service: lookup by email: %w", err)
		}
	}

	subject := claims.Subject
	email := claims.Email
	if email == "" {
		// Some identity providers withhold email; fall back to a stable alias.
		email = fmt.Sprintf("%s@federated.local", subject)
	}

	user := &models.User{
		Email:       email,
		FederatedID: &subject,
		DisplayName: claims.Name,
		Avatar:      claims.Picture,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("user service: provision federated user: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{UserID: user.ID, Action: "user.register.federated"})
	return user, nil
}

func (s *UserService) stampLogin(ctx context.Context, user *models.User, ip string) error {
	now := s.now()
	updates := map[string]any{
		"last_login_at": now,
		"last_login_ip": strings.TrimSpace(ip),
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("user service: stamp login: %w", err)
	}
	user.LastLoginAt = &now
	return nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile modifies mutable profile attributes.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*input.DisplayName)
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{UserID: id, Action: "user.profile.update"})
	return s.GetByID(ctx, id)
}

// Delete removes the account together with owned roadmaps and personas.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roadmapIDs []string
		if err := tx.Model(&models.Roadmap{}).Where("owner_id = ?", id).Pluck("id", &roadmapIDs).Error; err != nil {
			return fmt.Errorf("user service: list owned roadmaps: %w", err)
		}

		if len(roadmapIDs) > 0 {
			if err := tx.Delete(&models.Roadmap{}, "id IN ?", roadmapIDs).Error; err != nil {
				return fmt.Errorf("user service: delete owned roadmaps: %w", err)
			}
		}
		if err := tx.Delete(&models.Persona{}, "owner_id = ?", id).Error; err != nil {
			return fmt.Errorf("user service: delete personas: %w", err)
		}
		if err := tx.Delete(&models.ProjectMember{}, "user_id = ?", id).Error; err != nil {
			return fmt.Errorf("user service: delete memberships: %w", err)
		}

		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("user service: delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
