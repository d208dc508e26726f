// Package bootstrap wires the process-wide dependencies shared by the
// server and the command-line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/config"
	"github.com/Cerega32/Bucket-List/internal/database"
	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/seed"
	"github.com/Cerega32/Bucket-List/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// LoadCatalog inserts the embedded catalog entries that are missing.
	LoadCatalog bool
}

// InitRuntime connects to DB and Redis, ensures the development admin and
// optionally loads the built-in catalog. The Redis client is nil when Redis
// is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.LoadCatalog {
		catalog, err := seed.DefaultCatalog()
		if err != nil {
			return nil, nil, err
		}
		stats, err := seed.LoadCatalog(ctx, db, catalog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load built-in catalog: %w", err)
		}
		middleware.Logger.Info("built-in catalog ensured",
			slog.Int("categories", stats.Categories),
			slog.Int("goals", stats.Goals),
			slog.Int("lists", stats.Lists),
			slog.Int("achievements", stats.Achievements),
		)
	}

	return db, r, nil
}

// EnsureDevAdmin creates the configured development admin, or promotes the
// existing account with that email. It does nothing unless the environment
// is development and DEV_BOOTSTRAP_ADMIN is set.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@bucket-list.local"
	}
	password := cfg.DevAdminPassword
	if password == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("DEV_ADMIN_PASSWORD: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				Username: username,
				Email:    email,
				Password: string(hashedPassword),
				IsAdmin:  true,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured", slog.String("email", email))
	return nil
}
