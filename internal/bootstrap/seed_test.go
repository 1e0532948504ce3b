package bootstrap_test

import (
	"testing"

	"anoa.com/gamingcommunity/internal/bootstrap"
	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedAdminUserIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, bootstrap.SeedAdminUser(db, "admin@gaming.local", "admin123", zap.NewNop()))
	require.NoError(t, bootstrap.SeedAdminUser(db, "admin@gaming.local", "admin123", zap.NewNop()))

	var users []entity.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)
	assert.NotEqual(t, "admin123", users[0].PasswordHash)
}

func TestSeedAdminPromotesExistingAccount(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&entity.User{Username: "boss", Email: "boss@x.com", PasswordHash: "h"}).Error)

	require.NoError(t, bootstrap.SeedAdminUser(db, "boss@x.com", "pw", zap.NewNop()))

	var u entity.User
	require.NoError(t, db.First(&u, "email = ?", "boss@x.com").Error)
	assert.True(t, u.IsAdmin)
}

func TestSeedAdminAvoidsTakenUsername(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&entity.User{Username: "admin", Email: "someone@x.com", PasswordHash: "h"}).Error)

	require.NoError(t, bootstrap.SeedAdminUser(db, "ops@gaming.local", "admin123", zap.NewNop()))

	var seeded entity.User
	require.NoError(t, db.First(&seeded, "email = ?", "ops@gaming.local").Error)
	assert.Equal(t, "ops", seeded.Username)
	assert.True(t, seeded.IsAdmin)

	var squatter entity.User
	require.NoError(t, db.First(&squatter, "email = ?", "someone@x.com").Error)
	assert.False(t, squatter.IsAdmin)
}

func TestSeedAdminFallsBackToSuffixedUsername(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&entity.User{Username: "admin", Email: "a@x.com", PasswordHash: "h"}).Error)
	require.NoError(t, db.Create(&entity.User{Username: "root", Email: "b@x.com", PasswordHash: "h"}).Error)

	require.NoError(t, bootstrap.SeedAdminUser(db, "root@gaming.local", "admin123", zap.NewNop()))

	var seeded entity.User
	require.NoError(t, db.First(&seeded, "email = ?", "root@gaming.local").Error)
	assert.Regexp(t, `^admin-[0-9a-f]{8}$`, seeded.Username)
	assert.True(t, seeded.IsAdmin)
}
