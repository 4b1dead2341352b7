package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcompass/compass/internal/models"
	apperrors "github.com/productcompass/compass/pkg/errors"
)

func TestShareResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)
	_, err := env.features.Create(ctx, owner.ID, roadmap.ID, CreateFeatureInput{Title: "Search"})
	require.NoError(t, err)

	link, err := env.shares.Create(ctx, owner.ID, roadmap.ID, CreateLinkInput{})
	require.NoError(t, err)
	assert.Equal(t, models.ShareView, link.Permission)

	content, err := env.shares.Resolve(ctx, link.Token, "", VisitInfo{IP: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	assert.Equal(t, roadmap.ID, content.Roadmap.ID)
	require.Len(t, content.Features, 1)

	// Each resolution records a visit.
	visits, err := env.shares.Analytics(ctx, owner.ID, link.ID, 0)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "test", visits[0].UserAgent)
}

func TestSharePasswordProtection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	link, err := env.shares.Create(ctx, owner.ID, roadmap.ID, CreateLinkInput{Password: "hunter2222"})
	require.NoError(t, err)
	assert.True(t, link.PasswordProtected)

	_, err = env.shares.Resolve(ctx, link.Token, "", VisitInfo{})
	assert.ErrorIs(t, err, ErrLinkPasswordRequired)

	_, err = env.shares.Resolve(ctx, link.Token, "wrong", VisitInfo{})
	assert.ErrorIs(t, err, ErrLinkPasswordInvalid)

	_, err = env.shares.Resolve(ctx, link.Token, "hunter2222", VisitInfo{})
	require.NoError(t, err)

	// Removing the password opens the link.
	removed := ""
	_, err = env.shares.Update(ctx, owner.ID, link.ID, UpdateLinkInput{Password: &removed})
	require.NoError(t, err)
	_, err = env.shares.Resolve(ctx, link.Token, "", VisitInfo{})
	require.NoError(t, err)
}

func TestShareExpiredIsGoneRegardlessOfPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	link, err := env.shares.Create(ctx, owner.ID, roadmap.ID, CreateLinkInput{
		Password:  "hunter2222",
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.ShareableLink{}).
		Where("id = ?", link.ID).
		Update("expires_at", env.now.Add(-time.Minute)).Error)

	_, err = env.shares.Resolve(ctx, link.Token, "hunter2222", VisitInfo{})
	assert.ErrorIs(t, err, ErrLinkGone)
	_, err = env.shares.Resolve(ctx, link.Token, "", VisitInfo{})
	assert.ErrorIs(t, err, ErrLinkGone)
}

func TestShareDeactivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	link, err := env.shares.Create(ctx, owner.ID, roadmap.ID, CreateLinkInput{})
	require.NoError(t, err)

	require.NoError(t, env.shares.Deactivate(ctx, owner.ID, link.ID))
	_, err = env.shares.Resolve(ctx, link.Token, "", VisitInfo{})
	assert.ErrorIs(t, err, ErrLinkGone)
}

func TestShareEmbedGating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	link, err := env.shares.Create(ctx, owner.ID, roadmap.ID, CreateLinkInput{})
	require.NoError(t, err)

	_, err = env.shares.Resolve(ctx, link.Token, "", VisitInfo{Embedded: true})
	assert.ErrorIs(t, err, ErrEmbedNotAllowed)

	embed := true
	_, err = env.shares.Update(ctx, owner.ID, link.ID, UpdateLinkInput{AllowEmbed: &embed})
	require.NoError(t, err)
	_, err = env.shares.Resolve(ctx, link.Token, "", VisitInfo{Embedded: true})
	require.NoError(t, err)
}

func TestShareManagementRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	member := env.createUser(t, "member@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)
	env.addMember(t, roadmap.ID, member.ID, models.RoleMember)

	_, err := env.shares.Create(ctx, member.ID, roadmap.ID, CreateLinkInput{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	link, err := env.shares.Create(ctx, owner.ID, roadmap.ID, CreateLinkInput{})
	require.NoError(t, err)

	_, err = env.shares.List(ctx, member.ID, roadmap.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.ErrorIs(t, env.shares.Deactivate(ctx, member.ID, link.ID), apperrors.ErrForbidden)
}

func TestShareQRCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	link, err := env.shares.Create(ctx, owner.ID, roadmap.ID, CreateLinkInput{})
	require.NoError(t, err)

	png, err := env.shares.QRCode(ctx, owner.ID, link.ID, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
