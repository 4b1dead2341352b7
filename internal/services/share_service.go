package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/pkg/crypto"
	apperrors "github.com/productcompass/compass/pkg/errors"
	"github.com/productcompass/compass/pkg/logger"
)

const shareTokenBytes = 24

var (
	// ErrLinkNotFound indicates no shareable link matches the token or id.
	ErrLinkNotFound = apperrors.New("LINK_NOT_FOUND", "Shareable link not found", http.StatusNotFound)
	// ErrLinkGone indicates the link is deactivated or expired.
	ErrLinkGone = apperrors.New("LINK_GONE", "This link is no longer available", http.StatusGone)
	// ErrLinkPasswordRequired indicates the link requires a password.
	ErrLinkPasswordRequired = apperrors.New("LINK_PASSWORD_REQUIRED", "This link is password protected", http.StatusUnauthorized)
	// ErrLinkPasswordInvalid indicates the supplied password does not match.
	ErrLinkPasswordInvalid = apperrors.New("LINK_PASSWORD_INVALID", "Incorrect link password", http.StatusUnauthorized)
	// ErrEmbedNotAllowed indicates the link does not permit iframe embedding.
	ErrEmbedNotAllowed = apperrors.New("EMBED_NOT_ALLOWED", "This link cannot be embedded", http.StatusForbidden)
)

// CreateLinkInput captures a new shareable link.
type CreateLinkInput struct {
	Permission string
	Password   string
	ExpiresIn  time.Duration // zero or negative means no expiry
	AllowEmbed bool
}

// UpdateLinkInput carries partial link updates; nil fields are untouched.
type UpdateLinkInput struct {
	Permission *string
	Password   *string // empty string removes protection
	ExpiresAt  *time.Time
	AllowEmbed *bool
}

// VisitInfo describes the requester recorded against a link visit.
type VisitInfo struct {
	IP        string
	UserAgent string
	Referer   string
	Embedded  bool
}

// SharedContent is the resolved payload served to a link visitor.
type SharedContent struct {
	Link     *models.ShareableLink `json:"link"`
	Roadmap  *models.Roadmap       `json:"roadmap"`
	Features []models.Feature      `json:"features"`
}

// ShareOption customises ShareService behaviour.
type ShareOption func(*ShareService)

// WithShareClock injects a custom clock primarily for testing.
func WithShareClock(clock func() time.Time) ShareOption {
	return func(s *ShareService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithShareBaseURL configures the base URL embedded in QR codes.
func WithShareBaseURL(url string) ShareOption {
	return func(s *ShareService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// ShareService manages shareable links, their resolution and visit analytics.
type ShareService struct {
	db       *gorm.DB
	checker  *access.Checker
	activity *ActivityService
	baseURL  string
	now      func() time.Time
}

// NewShareService constructs a ShareService with the provided dependencies.
func NewShareService(db *gorm.DB, checker *access.Checker, activity *ActivityService, opts ...ShareOption) (*ShareService, error) {
	if db == nil {
		return nil, errors.New("share service: db is required")
	}
	if checker == nil {
		return nil, errors.New("share service: access checker is required")
	}

	svc := &ShareService{
		db:       db,
		checker:  checker,
		activity: activity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create issues a new link for a roadmap. Requires admin access.
func (s *ShareService) Create(ctx context.Context, actorID, roadmapID string, input CreateLinkInput) (*models.ShareableLink, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, actorID, roadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	permission := strings.TrimSpace(input.Permission)
	if permission == "" {
		permission = models.ShareView
	}
	if !models.ValidSharePermission(permission) {
		return nil, apperrors.NewBadRequest("permission must be one of view, comment, edit")
	}

	token, err := crypto.GenerateToken(shareTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("share service: generate token: %w", err)
	}

	link := &models.ShareableLink{
		RoadmapID:  roadmapID,
		Token:      token,
		Permission: permission,
		CreatedBy:  actorID,
		IsActive:   true,
		AllowEmbed: input.AllowEmbed,
	}

	if password := strings.TrimSpace(input.Password); password != "" {
		hash, err := crypto.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("share service: hash password: %w", err)
		}
		link.PasswordProtected = true
		link.PasswordHash = hash
	}

	if input.ExpiresIn > 0 {
		expires := s.now().Add(input.ExpiresIn)
		link.ExpiresAt = &expires
	}

	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, fmt.Errorf("share service: create: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		Action:   "share.create",
		Resource: roadmapID,
		Metadata: map[string]any{"permission": permission},
	})
	return link, nil
}

// List returns the roadmap's links. Requires admin access.
func (s *ShareService) List(ctx context.Context, actorID, roadmapID string) ([]models.ShareableLink, error) {
	ctx = ensureContext(ctx)

	if err := s.checker.Require(ctx, actorID, roadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	var links []models.ShareableLink
	err := s.db.WithContext(ctx).
		Where("roadmap_id = ?", roadmapID).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("share service: list: %w", err)
	}
	return links, nil
}

// Update applies partial changes to a link. Requires admin access.
func (s *ShareService) Update(ctx context.Context, actorID, linkID string, input UpdateLinkInput) (*models.ShareableLink, error) {
	ctx = ensureContext(ctx)

	link, err := s.loadForAdmin(ctx, actorID, linkID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Permission != nil {
		permission := strings.TrimSpace(*input.Permission)
		if !models.ValidSharePermission(permission) {
			return nil, apperrors.NewBadRequest("permission must be one of view, comment, edit")
		}
		updates["permission"] = permission
	}
	if input.Password != nil {
		if password := strings.TrimSpace(*input.Password); password == "" {
			updates["password_protected"] = false
			updates["password_hash"] = ""
		} else {
			hash, err := crypto.HashPassword(password)
			if err != nil {
				return nil, fmt.Errorf("share service: hash password: %w", err)
			}
			updates["password_protected"] = true
			updates["password_hash"] = hash
		}
	}
	if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if input.AllowEmbed != nil {
		updates["allow_embed"] = *input.AllowEmbed
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(link).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("share service: update: %w", err)
		}
	}
	return link, nil
}

// Deactivate permanently disables a link. Requires admin access.
func (s *ShareService) Deactivate(ctx context.Context, actorID, linkID string) error {
	ctx = ensureContext(ctx)

	link, err := s.loadForAdmin(ctx, actorID, linkID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(link).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("share service: deactivate: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		Action:   "share.deactivate",
		Resource: link.RoadmapID,
	})
	return nil
}

// Resolve serves a link visitor. An unusable link is gone regardless of any
// supplied password; a protected link demands the password before content.
// The visit is recorded fire-and-forget so analytics never block delivery.
func (s *ShareService) Resolve(ctx context.Context, token, password string, visit VisitInfo) (*SharedContent, error) {
	ctx = ensureContext(ctx)

	link, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.Usable(s.now()) {
		return nil, ErrLinkGone
	}
	if visit.Embedded && !link.AllowEmbed {
		return nil, ErrEmbedNotAllowed
	}
	if link.PasswordProtected {
		if password == "" {
			return nil, ErrLinkPasswordRequired
		}
		if !crypto.VerifyPassword(link.PasswordHash, password) {
			return nil, ErrLinkPasswordInvalid
		}
	}

	var roadmap models.Roadmap
	if err := s.db.WithContext(ctx).First(&roadmap, "id = ?", link.RoadmapID).Error; err != nil {
		return nil, fmt.Errorf("share service: load roadmap: %w", err)
	}

	var features []models.Feature
	err = s.db.WithContext(ctx).
		Where("roadmap_id = ?", link.RoadmapID).
		Order("date").
		Find(&features).Error
	if err != nil {
		return nil, fmt.Errorf("share service: load features: %w", err)
	}

	s.recordVisit(link.ID, visit)

	return &SharedContent{Link: link, Roadmap: &roadmap, Features: features}, nil
}

// QRCode renders a PNG QR code pointing at the link's public URL.
func (s *ShareService) QRCode(ctx context.Context, actorID, linkID string, size int) ([]byte, error) {
	ctx = ensureContext(ctx)

	link, err := s.loadForAdmin(ctx, actorID, linkID)
	if err != nil {
		return nil, err
	}

	if size <= 0 {
		size = 256
	}
	url := link.Token
	if s.baseURL != "" {
		url = fmt.Sprintf("%s/shared/%s", s.baseURL, link.Token)
	}

	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("share service: encode qr: %w", err)
	}
	return png, nil
}

// Analytics returns the link's visit records, newest first. Requires admin access.
func (s *ShareService) Analytics(ctx context.Context, actorID, linkID string, limit int) ([]models.LinkAnalytics, error) {
	ctx = ensureContext(ctx)

	link, err := s.loadForAdmin(ctx, actorID, linkID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	var visits []models.LinkAnalytics
	err = s.db.WithContext(ctx).
		Where("link_id = ?", link.ID).
		Order("visited_at DESC").
		Limit(limit).
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("share service: analytics: %w", err)
	}
	return visits, nil
}

func (s *ShareService) recordVisit(linkID string, visit VisitInfo) {
	payload, _ := json.Marshal(map[string]any{"embedded": visit.Embedded})
	record := models.LinkAnalytics{
		LinkID:    linkID,
		VisitorIP: visit.IP,
		UserAgent: visit.UserAgent,
		Referer:   visit.Referer,
		Context:   datatypes.JSON(payload),
		VisitedAt: s.now().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		logger.WithModule("shares").Warn("visit record failed")
	}
}

func (s *ShareService) findByToken(ctx context.Context, token string) (*models.ShareableLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("token is required")
	}

	var link models.ShareableLink
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("share service: find by token: %w", err)
	}
	return &link, nil
}

func (s *ShareService) loadForAdmin(ctx context.Context, actorID, linkID string) (*models.ShareableLink, error) {
	var link models.ShareableLink
	err := s.db.WithContext(ctx).First(&link, "id = ?", linkID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("share service: load: %w", err)
	}
	if err := s.checker.Require(ctx, actorID, link.RoadmapID, access.PermAdmin, apperrors.ErrForbidden); err != nil {
		return nil, err
	}
	return &link, nil
}
