package bootstrap

import (
	"context"
	"testing"

	"github.com/Cerega32/Bucket-List/internal/config"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		DevBootstrapAdmin: true,
		DevAdminUsername:  "root",
		DevAdminEmail:     "Root@Example.com",
		DevAdminPassword:  "admin-pass-1",
	}
}

func TestEnsureDevAdmin_CreatesAdmin(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureDevAdmin(ctx, devConfig(), db))
	require.NoError(t, EnsureDevAdmin(ctx, devConfig(), db))

	var admins []models.User
	require.NoError(t, db.Where("is_admin = ?", true).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root", admins[0].Username)
	assert.Equal(t, "root@example.com", admins[0].Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("admin-pass-1")))
}

func TestEnsureDevAdmin_PromotesExistingAccount(t *testing.T) {
	db := testutil.OpenDB(t)
	user := testutil.CreateUser(t, db, "someone", 0)
	require.NoError(t, db.Model(user).Update("email", "root@example.com").Error)

	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))

	reloaded := testutil.ReloadUser(t, db, user.ID)
	assert.True(t, reloaded.IsAdmin)
	assert.Equal(t, "someone", reloaded.Username)
}

func TestEnsureDevAdmin_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"disabled", func(c *config.Config) { c.DevBootstrapAdmin = false }},
		{"not development", func(c *config.Config) { c.Env = "staging" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.OpenDB(t)
			cfg := devConfig()
			tt.mutate(cfg)

			require.NoError(t, EnsureDevAdmin(context.Background(), cfg, db))

			var n int64
			require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

func TestEnsureDevAdmin_RequiresStrongPassword(t *testing.T) {
	db := testutil.OpenDB(t)

	cfg := devConfig()
	cfg.DevAdminPassword = ""
	assert.Error(t, EnsureDevAdmin(context.Background(), cfg, db))

	cfg.DevAdminPassword = "short"
	assert.Error(t, EnsureDevAdmin(context.Background(), cfg, db))
}
