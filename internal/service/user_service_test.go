package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-streaks/internal/repository"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(repository.NewUserRepository(newTestDB(t)))

	user, err := users.Register(ctx, " Ann@Example.com ", "Ann")
	require.NoError(t, err)
	require.NotNil(t, user.Email)
	assert.Equal(t, "ann@example.com", *user.Email)

	_, err = users.Register(ctx, "ann@example.com", "Other Ann")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = users.Register(ctx, "not-an-email", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = users.Register(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)

	found, err := users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = users.Get(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}
