package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgdir/backend/internal/domain/identity"
	"github.com/orgdir/backend/internal/domain/shared"
)

func TestGormUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(newTestDB(t))
	policy := identity.PasswordPolicy{MinLength: 3}

	user, err := identity.NewUser("User@Example.com", "secret", policy)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	t.Run("find by email ignores case", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "USER@example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.True(t, got.IsActive)
		assert.False(t, got.IsSuperuser)
	})

	t.Run("exists by email", func(t *testing.T) {
		exists, err := repo.ExistsByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := identity.NewUser("user@example.com", "another", policy)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), identity.ErrUserAlreadyExists)
	})

	t.Run("update persists false flags", func(t *testing.T) {
		require.NoError(t, user.Apply(identity.UserPatch{IsActive: ptr(false)}, policy, true))
		require.NoError(t, repo.Update(ctx, user))

		got, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, user.ID))
		_, err := repo.FindByID(ctx, user.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, user.ID), shared.ErrNotFound)
	})
}
