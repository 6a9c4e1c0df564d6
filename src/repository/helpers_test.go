package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	app "recipeserv/src/app"
	cfg "recipeserv/src/configuration"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDatabase(cfg.DatabaseProperties{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *app.User {
	t.Helper()
	user, err := NewUserRepository(db).CreateUser(context.Background(), email, "testpass123", "Test Name")
	require.NoError(t, err)
	return user
}
