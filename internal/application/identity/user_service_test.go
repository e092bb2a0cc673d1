package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgdir/backend/internal/domain/shared"
)

func TestUserService_UpdateMe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "user@example.com", "pa55word")
	f.register(t, "taken@example.com", "pa55word")

	t.Run("ignores privilege escalation", func(t *testing.T) {
		me, err := f.userSvc.UpdateMe(ctx, u.ID, UpdateMeRequest{Email: ptr("new@example.com")})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", me.Email)
		assert.False(t, me.IsSuperuser)
	})

	t.Run("rejects taken email", func(t *testing.T) {
		_, err := f.userSvc.UpdateMe(ctx, u.ID, UpdateMeRequest{Email: ptr("taken@example.com")})
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("password change revokes earlier tokens", func(t *testing.T) {
		issuedAt := time.Now().Add(-2 * time.Second)
		_, err := f.userSvc.UpdateMe(ctx, u.ID, UpdateMeRequest{Password: ptr("n3w-pass")})
		require.NoError(t, err)

		revoked, err := f.blacklist.IsUserTokenInvalidated(ctx, u.ID, issuedAt)
		require.NoError(t, err)
		assert.True(t, revoked)

		_, err = f.auth.Login(ctx, LoginInput{Username: "new@example.com", Password: "n3w-pass"})
		assert.NoError(t, err)
	})
}

func TestUserService_SuperuserOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "user@example.com", "pa55word")

	got, err := f.userSvc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	updated, err := f.userSvc.Update(ctx, u.ID, UpdateUserRequest{IsSuperuser: ptr(true), IsVerified: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsSuperuser)
	assert.True(t, updated.IsVerified)

	require.NoError(t, f.userSvc.Delete(ctx, u.ID))
	_, err = f.userSvc.Me(ctx, u.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.userSvc.Delete(ctx, u.ID), shared.ErrNotFound)
}
