// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Cerega32/Bucket-List/internal/database"
	"github.com/Cerega32/Bucket-List/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// Store bundles every repository over one connection. Inside Transaction the
// repositories read and write through the transaction, never the replica.
type Store struct {
	db *gorm.DB

	Users        UserRepository
	Categories   CategoryRepository
	Goals        GoalRepository
	Lists        GoalListRepository
	Memberships  MembershipRepository
	Achievements AchievementRepository
	Experience   ExperienceRepository
	Comments     CommentRepository
	Leaderboard  LeaderboardRepository
}

// NewStore builds a Store over db, reading from the replica when one is
// configured.
func NewStore(db *gorm.DB) *Store {
	return newStore(db, readDB(db))
}

func newStore(db, reader *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        &userRepository{db: db, read: reader},
		Categories:   &categoryRepository{db: db, read: reader},
		Goals:        &goalRepository{db: db, read: reader},
		Lists:        &goalListRepository{db: db, read: reader},
		Memberships:  &membershipRepository{db: db, read: reader},
		Achievements: &achievementRepository{db: db, read: reader},
		Experience:   &experienceRepository{db: db},
		Comments:     &commentRepository{db: db, read: reader},
		Leaderboard:  &leaderboardRepository{read: reader},
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single database
// transaction. Any error returned by fn rolls everything back and is
// returned unchanged.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, tx))
	})
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

func notFoundOr(err error, resource string, key interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, key)
	}
	return models.NewInternalError(err)
}
