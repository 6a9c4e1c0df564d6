package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "recipeserv/src/app"
)

func TestNewImageStorage(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t)

	storage, err := NewImageStorage(ctx, config)
	require.NoError(t, err)
	assert.IsType(t, &app.LocalStorage{}, storage)

	config.Storage.Backend = "ftp"
	_, err = NewImageStorage(ctx, config)
	assert.Error(t, err)
}

func TestBootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, bootstrapAdmin(ctx, env.config, env.handler.users))

	env.config.Auth.AdminEmail = "admin@example.com"
	env.config.Auth.AdminPassword = "adminpass123"
	require.NoError(t, bootstrapAdmin(ctx, env.config, env.handler.users))
	// a second start finds the account and leaves it alone
	require.NoError(t, bootstrapAdmin(ctx, env.config, env.handler.users))

	admin, err := env.handler.users.Authenticate(ctx, "admin@example.com", "adminpass123")
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)
}
