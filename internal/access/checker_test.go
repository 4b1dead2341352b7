package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/database/testutil"
	"github.com/productcompass/compass/internal/models"
)

func seedRoadmap(t *testing.T, db *gorm.DB, public bool) (owner *models.User, roadmap *models.Roadmap) {
	t.Helper()

	owner = &models.User{Email: "owner@example.com", DisplayName: "Owner"}
	require.NoError(t, db.Create(owner).Error)

	roadmap = &models.Roadmap{Name: "Q3 Plan", OwnerID: owner.ID, IsPublic: public}
	require.NoError(t, db.Create(roadmap).Error)
	return owner, roadmap
}

func addMember(t *testing.T, db *gorm.DB, roadmapID, role, status string) *models.User {
	t.Helper()

	user := &models.User{Email: role + "-" + status + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.ProjectMember{
		RoadmapID: roadmapID,
		UserID:    user.ID,
		Role:      role,
		Status:    status,
	}).Error)
	return user
}

func TestOwnerHasEveryPermission(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	owner, roadmap := seedRoadmap(t, db, false)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	for _, perm := range []string{PermView, PermEdit, PermAdmin, PermOwner} {
		ok, err := checker.HasAccess(context.Background(), owner.ID, roadmap.ID, perm)
		require.NoError(t, err)
		require.True(t, ok, "owner should pass %s", perm)
	}
}

func TestRoleHierarchy(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	_, roadmap := seedRoadmap(t, db, false)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	cases := []struct {
		role    string
		granted []string
		denied  []string
	}{
		{models.RoleAdmin, []string{PermView, PermEdit, PermAdmin}, []string{PermOwner}},
		{models.RoleMember, []string{PermView, PermEdit}, []string{PermAdmin, PermOwner}},
		{models.RoleViewer, []string{PermView}, []string{PermEdit, PermAdmin, PermOwner}},
	}

	for _, tc := range cases {
		user := addMember(t, db, roadmap.ID, tc.role, models.MemberActive)
		for _, perm := range tc.granted {
			ok, err := checker.HasAccess(context.Background(), user.ID, roadmap.ID, perm)
			require.NoError(t, err)
			require.True(t, ok, "%s should pass %s", tc.role, perm)
		}
		for _, perm := range tc.denied {
			ok, err := checker.HasAccess(context.Background(), user.ID, roadmap.ID, perm)
			require.NoError(t, err)
			require.False(t, ok, "%s should fail %s", tc.role, perm)
		}
	}
}

func TestPublicRoadmapGrantsAnonymousView(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	_, roadmap := seedRoadmap(t, db, true)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	ok, err := checker.HasAccess(context.Background(), "", roadmap.ID, PermView)
	require.NoError(t, err)
	require.True(t, ok)

	stranger := &models.User{Email: "stranger@example.com"}
	require.NoError(t, db.Create(stranger).Error)

	ok, err = checker.HasAccess(context.Background(), stranger.ID, roadmap.ID, PermView)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.HasAccess(context.Background(), stranger.ID, roadmap.ID, PermEdit)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInactiveMembershipGrantsNothing(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	_, roadmap := seedRoadmap(t, db, false)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	pending := addMember(t, db, roadmap.ID, models.RoleAdmin, models.MemberPending)
	inactive := addMember(t, db, roadmap.ID, models.RoleAdmin, models.MemberInactive)

	for _, user := range []*models.User{pending, inactive} {
		ok, err := checker.HasAccess(context.Background(), user.ID, roadmap.ID, PermView)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestUnknownRoleGrantsNothing(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	_, roadmap := seedRoadmap(t, db, false)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	user := addMember(t, db, roadmap.ID, "superuser", models.MemberActive)

	ok, err := checker.HasAccess(context.Background(), user.ID, roadmap.ID, PermView)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnknownPermissionRejected(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	owner, roadmap := seedRoadmap(t, db, false)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	_, err = checker.HasAccess(context.Background(), owner.ID, roadmap.ID, "delete")
	require.ErrorIs(t, err, ErrUnknownPermission)
}

func TestMissingRoadmapDenies(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	ok, err := checker.HasAccess(context.Background(), "someone", "no-such-roadmap", PermView)
	require.NoError(t, err)
	require.False(t, ok)
}
