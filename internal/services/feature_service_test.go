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

func TestFeatureCreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	feature, err := env.features.Create(ctx, owner.ID, roadmap.ID, CreateFeatureInput{
		Title:    "Search",
		Priority: "bananas",
		Status:   "whatever",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, feature.Priority)
	assert.Equal(t, models.StatusPlanned, feature.Status)
	assert.True(t, feature.Date.Equal(env.now.Truncate(24*time.Hour)))

	_, err = env.features.Create(ctx, owner.ID, roadmap.ID, CreateFeatureInput{Title: "   "})
	require.Error(t, err)

	_, err = env.features.Create(ctx, owner.ID, roadmap.ID, CreateFeatureInput{Title: "X", Date: "not-a-date"})
	require.Error(t, err)
}

func TestFeatureCreateRequiresEdit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	viewer := env.createUser(t, "viewer@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)
	env.addMember(t, roadmap.ID, viewer.ID, models.RoleViewer)

	_, err := env.features.Create(ctx, viewer.ID, roadmap.ID, CreateFeatureInput{Title: "Search"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	member := env.createUser(t, "member@example.com")
	env.addMember(t, roadmap.ID, member.ID, models.RoleMember)
	_, err = env.features.Create(ctx, member.ID, roadmap.ID, CreateFeatureInput{Title: "Search"})
	require.NoError(t, err)
}

func TestFeatureListOrderedByDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	for _, date := range []string{"2026-06-01", "2026-04-01", "2026-05-01"} {
		_, err := env.features.Create(ctx, owner.ID, roadmap.ID, CreateFeatureInput{Title: date, Date: date})
		require.NoError(t, err)
	}

	features, err := env.features.ListByRoadmap(ctx, owner.ID, roadmap.ID)
	require.NoError(t, err)
	require.Len(t, features, 3)
	assert.Equal(t, "2026-04-01", features[0].Title)
	assert.Equal(t, "2026-05-01", features[1].Title)
	assert.Equal(t, "2026-06-01", features[2].Title)
}

func TestFeatureUpdatePartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	feature, err := env.features.Create(ctx, owner.ID, roadmap.ID, CreateFeatureInput{
		Title:       "Search",
		Description: "Full-text search",
		Priority:    models.PriorityHigh,
	})
	require.NoError(t, err)

	status := models.StatusInProgress
	updated, err := env.features.Update(ctx, owner.ID, feature.ID, UpdateFeatureInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "Search", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)

	empty := "  "
	_, err = env.features.Update(ctx, owner.ID, feature.ID, UpdateFeatureInput{Title: &empty})
	require.Error(t, err)
}

func TestFeatureDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	feature, err := env.features.Create(ctx, owner.ID, roadmap.ID, CreateFeatureInput{Title: "Search"})
	require.NoError(t, err)

	require.NoError(t, env.features.Delete(ctx, owner.ID, feature.ID))
	_, err = env.features.Get(ctx, owner.ID, feature.ID)
	assert.ErrorIs(t, err, ErrFeatureNotFound)
}
