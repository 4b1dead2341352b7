package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/productcompass/compass/pkg/errors"
)

func TestPersonaLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")

	age := 34
	persona, err := env.personas.Create(ctx, owner.ID, PersonaInput{
		Name:     "Power User",
		Age:      &age,
		JobTitle: "Product Manager",
		Goals:    "Ship faster",
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, persona.OwnerID)

	listed, err := env.personas.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	updated, err := env.personas.Update(ctx, owner.ID, persona.ID, PersonaInput{
		Name:  "Power User",
		Pains: "Context switching",
	})
	require.NoError(t, err)
	assert.Equal(t, "Context switching", updated.Pains)

	require.NoError(t, env.personas.Delete(ctx, owner.ID, persona.ID))
	listed, err = env.personas.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestPersonaScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")

	persona, err := env.personas.Create(ctx, owner.ID, PersonaInput{Name: "Power User"})
	require.NoError(t, err)

	listed, err := env.personas.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = env.personas.Update(ctx, other.ID, persona.ID, PersonaInput{Name: "Hijacked"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	assert.ErrorIs(t, env.personas.Delete(ctx, other.ID, persona.ID), apperrors.ErrForbidden)
}
