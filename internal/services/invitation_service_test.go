package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/models"
	apperrors "github.com/productcompass/compass/pkg/errors"
)

func TestInvitationCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	invitation, token, err := env.invitations.Create(ctx, owner.ID, roadmap.ID, CreateInvitationInput{
		Role:  models.RoleMember,
		Email: "Invitee@Example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, token, invitation.TokenHash)
	assert.Equal(t, "invitee@example.com", invitation.Email)
	require.NotNil(t, invitation.ExpiresAt)
	assert.True(t, invitation.ExpiresAt.After(env.now))

	messages := env.mailer.messages()
	require.Len(t, messages, 1)
	assert.Equal(t, []string{"invitee@example.com"}, messages[0].To)
	assert.Contains(t, messages[0].TextBody, token)

	// Granting the owner role via invitation is rejected.
	_, _, err = env.invitations.Create(ctx, owner.ID, roadmap.ID, CreateInvitationInput{Role: models.RoleOwner})
	require.Error(t, err)

	viewer := env.createUser(t, "viewer@example.com")
	env.addMember(t, roadmap.ID, viewer.ID, models.RoleViewer)
	_, _, err = env.invitations.Create(ctx, viewer.ID, roadmap.ID, CreateInvitationInput{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestInvitationRedeem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	joiner := env.createUser(t, "joiner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	_, token, err := env.invitations.Create(ctx, owner.ID, roadmap.ID, CreateInvitationInput{Role: models.RoleAdmin})
	require.NoError(t, err)

	member, err := env.invitations.Redeem(ctx, joiner.ID, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, member.Role)
	assert.Equal(t, models.MemberActive, member.Status)

	ok, err := env.checker.HasAccess(ctx, joiner.ID, roadmap.ID, access.PermAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	// Redeeming again for the same user conflicts without mutating usage.
	_, err = env.invitations.Redeem(ctx, joiner.ID, token)
	assert.ErrorIs(t, err, ErrMemberExists)

	var invitation models.TeamInvitation
	require.NoError(t, env.db.First(&invitation, "roadmap_id = ?", roadmap.ID).Error)
	assert.Equal(t, 1, invitation.CurrentUses)
}

func TestInvitationCapNeverOversells(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	first := env.createUser(t, "first@example.com")
	second := env.createUser(t, "second@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	maxUses := 1
	_, token, err := env.invitations.Create(ctx, owner.ID, roadmap.ID, CreateInvitationInput{MaxUses: &maxUses})
	require.NoError(t, err)

	_, err = env.invitations.Redeem(ctx, first.ID, token)
	require.NoError(t, err)

	_, err = env.invitations.Redeem(ctx, second.ID, token)
	assert.ErrorIs(t, err, ErrInvitationExhausted)

	var members int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).
		Where("roadmap_id = ? AND user_id <> ?", roadmap.ID, owner.ID).
		Count(&members).Error)
	assert.Equal(t, int64(1), members)
}

func TestInvitationExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	joiner := env.createUser(t, "joiner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	_, token, err := env.invitations.Create(ctx, owner.ID, roadmap.ID, CreateInvitationInput{ExpiresIn: time.Hour})
	require.NoError(t, err)

	// Valid while the window is open.
	preview, err := env.invitations.Preview(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, roadmap.ID, preview.RoadmapID)

	require.NoError(t, env.db.Model(&models.TeamInvitation{}).
		Where("roadmap_id = ?", roadmap.ID).
		Update("expires_at", env.now.Add(-time.Minute)).Error)

	_, err = env.invitations.Preview(ctx, token)
	assert.ErrorIs(t, err, ErrInvitationExpired)
	_, err = env.invitations.Redeem(ctx, joiner.ID, token)
	assert.ErrorIs(t, err, ErrInvitationExpired)
}

func TestInvitationDeactivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	joiner := env.createUser(t, "joiner@example.com")
	roadmap := env.createRoadmap(t, owner.ID, "Plan", false)

	invitation, token, err := env.invitations.Create(ctx, owner.ID, roadmap.ID, CreateInvitationInput{})
	require.NoError(t, err)

	require.NoError(t, env.invitations.Deactivate(ctx, owner.ID, invitation.ID))

	_, err = env.invitations.Redeem(ctx, joiner.ID, token)
	assert.ErrorIs(t, err, ErrInvitationInactive)
}

func TestInvitationBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.invitations.Preview(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrInvitationNotFound)

	_, err = env.invitations.Redeem(ctx, "some-user", "")
	require.Error(t, err)

	_, err = env.invitations.Redeem(ctx, "", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
