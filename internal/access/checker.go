package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/models"
)

// Permission levels a caller can require on a roadmap.
const (
	PermView  = "view"
	PermEdit  = "edit"
	PermAdmin = "admin"
	PermOwner = "owner"
)

// ErrUnknownPermission is returned when the required permission is not one of
// the fixed levels.
var ErrUnknownPermission = errors.New("access: unknown permission")

// roleGrants is the fixed, total permission hierarchy. Unknown roles grant
// nothing; there are no wildcard or negative grants.
var roleGrants = map[string]map[string]struct{}{
	models.RoleOwner:  grantSet(PermView, PermEdit, PermAdmin, PermOwner),
	models.RoleAdmin:  grantSet(PermView, PermEdit, PermAdmin),
	models.RoleMember: grantSet(PermView, PermEdit),
	models.RoleViewer: grantSet(PermView),
}

func grantSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// RoleGrants reports whether the given member role satisfies the required
// permission under the fixed hierarchy.
func RoleGrants(role, required string) bool {
	grants, ok := roleGrants[role]
	if !ok {
		return false
	}
	_, ok = grants[required]
	return ok
}

// Checker evaluates roadmap access for users.
type Checker struct {
	db *gorm.DB
}

// NewChecker constructs an access checker backed by the provided database.
func NewChecker(db *gorm.DB) (*Checker, error) {
	if db == nil {
		return nil, errors.New("access checker: db is required")
	}
	return &Checker{db: db}, nil
}

// HasAccess determines whether the user satisfies the required permission on
// the roadmap. An empty userID denotes an anonymous caller, which only ever
// passes the public-roadmap view check.
func (c *Checker) HasAccess(ctx context.Context, userID, roadmapID, required string) (bool, error) {
	required = strings.TrimSpace(required)
	switch required {
	case PermView, PermEdit, PermAdmin, PermOwner:
	default:
		return false, fmt.Errorf("%w %q", ErrUnknownPermission, required)
	}

	roadmapID = strings.TrimSpace(roadmapID)
	if roadmapID == "" {
		return false, errors.New("access checker: roadmap id is required")
	}

	var roadmap models.Roadmap
	if err := c.db.WithContext(ctx).
		Select("id", "owner_id", "is_public").
		First(&roadmap, "id = ?", roadmapID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("access checker: load roadmap: %w", err)
	}

	if roadmap.IsPublic && required == PermView {
		return true, nil
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}

	if roadmap.OwnerID == userID {
		return true, nil
	}

	var member models.ProjectMember
	err := c.db.WithContext(ctx).
		Where("roadmap_id = ? AND user_id = ? AND status = ?", roadmapID, userID, models.MemberActive).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("access checker: load membership: %w", err)
	}

	return RoleGrants(member.Role, required), nil
}

// Require behaves like HasAccess but maps a denied check onto err.
func (c *Checker) Require(ctx context.Context, userID, roadmapID, required string, denied error) error {
	ok, err := c.HasAccess(ctx, userID, roadmapID, required)
	if err != nil {
		return err
	}
	if !ok {
		return denied
	}
	return nil
}
