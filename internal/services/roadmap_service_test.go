package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcompass/compass/internal/models"
	apperrors "github.com/productcompass/compass/pkg/errors"
)

func TestRoadmapCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")

	roadmap, err := env.roadmaps.Create(ctx, owner.ID, CreateRoadmapInput{Name: "  Q3 Plan  "})
	require.NoError(t, err)
	assert.Equal(t, "Q3 Plan", roadmap.Name)
	assert.Equal(t, owner.ID, roadmap.OwnerID)

	// The owner holds an explicit membership row.
	members, err := env.members.List(ctx, owner.ID, roadmap.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleOwner, members[0].Role)

	_, err = env.roadmaps.Create(ctx, owner.ID, CreateRoadmapInput{Name: ""})
	require.Error(t, err)

	_, err = env.roadmaps.Create(ctx, owner.ID, CreateRoadmapInput{Name: "X", Template: "no-such-template"})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRoadmapCreateFromDemoTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")

	roadmap, err := env.roadmaps.Create(ctx, owner.ID, CreateRoadmapInput{
		Name:     "Demo",
		IsPublic: true,
		Template: DemoTemplateID,
	})
	require.NoError(t, err)

	features, err := env.features.ListByRoadmap(ctx, owner.ID, roadmap.ID)
	require.NoError(t, err)
	require.Len(t, features, len(demoTemplate))

	// Same clock, same catalog: a second instantiation is identical.
	again, err := env.roadmaps.Create(ctx, owner.ID, CreateRoadmapInput{Name: "Demo 2", Template: DemoTemplateID})
	require.NoError(t, err)
	repeated, err := env.features.ListByRoadmap(ctx, owner.ID, again.ID)
	require.NoError(t, err)
	require.Len(t, repeated, len(features))
	for i := range features {
		assert.Equal(t, features[i].Title, repeated[i].Title)
		assert.Equal(t, features[i].Status, repeated[i].Status)
		assert.True(t, features[i].Date.Equal(repeated[i].Date))
	}

	base := env.now.Truncate(24 * time.Hour)
	assert.True(t, features[0].Date.Equal(base))
	last := features[len(features)-1]
	assert.True(t, last.Date.Equal(base.AddDate(0, 0, 180)))
}

func TestRoadmapListVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	collaborator := env.createUser(t, "collab@example.com")
	stranger := env.createUser(t, "stranger@example.com")

	mine := env.createRoadmap(t, owner.ID, "Mine", false)
	env.createRoadmap(t, stranger.ID, "Theirs", false)
	env.addMember(t, mine.ID, collaborator.ID, models.RoleViewer)

	listed, err := env.roadmaps.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)

	listed, err = env.roadmaps.List(ctx, collaborator.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)
}

func TestRoadmapGetAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	stranger := env.createUser(t, "stranger@example.com")

	private := env.createRoadmap(t, owner.ID, "Private", false)
	public := env.createRoadmap(t, owner.ID, "Public", true)

	_, err := env.roadmaps.GetByID(ctx, stranger.ID, private.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Public roadmaps are viewable even anonymously.
	got, err := env.roadmaps.GetByID(ctx, "", public.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID)

	_, err = env.roadmaps.GetByID(ctx, owner.ID, "missing-id")
	assert.ErrorIs(t, err, ErrRoadmapNotFound)
}

func TestRoadmapUpdateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	editor := env.createUser(t, "editor@example.com")

	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)
	env.addMember(t, roadmap.ID, editor.ID, models.RoleMember)

	name := "Renamed"
	_, err := env.roadmaps.Update(ctx, editor.ID, roadmap.ID, UpdateRoadmapInput{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := env.roadmaps.Update(ctx, owner.ID, roadmap.ID, UpdateRoadmapInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestRoadmapDeleteOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	admin := env.createUser(t, "admin@example.com")

	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)
	env.addMember(t, roadmap.ID, admin.ID, models.RoleAdmin)

	assert.ErrorIs(t, env.roadmaps.Delete(ctx, admin.ID, roadmap.ID), apperrors.ErrForbidden)
	require.NoError(t, env.roadmaps.Delete(ctx, owner.ID, roadmap.ID))

	var members int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).Where("roadmap_id = ?", roadmap.ID).Count(&members).Error)
	assert.Zero(t, members)
}

func TestEnsureDemoIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "demo@example.com")

	first, err := env.roadmaps.EnsureDemo(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, first.IsPublic)

	second, err := env.roadmaps.EnsureDemo(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
