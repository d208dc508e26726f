// Package testutil provides shared database fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Cerega32/Bucket-List/internal/database"
	"github.com/Cerega32/Bucket-List/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory SQLite database private to t.
// The pool holds a single connection, so code running inside a transaction
// must only use the transaction handle.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with the given username and experience.
func CreateUser(t testing.TB, db *gorm.DB, username string, experience int) *models.User {
	t.Helper()
	u := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "x",
		Experience: experience,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCategory inserts a top-level category.
func CreateCategory(t testing.TB, db *gorm.DB, nameEn string) *models.Category {
	t.Helper()
	c := &models.Category{Name: nameEn, NameEn: nameEn}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateGoal inserts a goal in category.
func CreateGoal(t testing.TB, db *gorm.DB, category *models.Category, title string) *models.Goal {
	t.Helper()
	g := &models.Goal{
		Title:       title,
		CategoryID:  category.ID,
		Complexity:  models.ComplexityMedium,
		Description: title + " description",
	}
	require.NoError(t, db.Create(g).Error)
	return g
}

// CreateList inserts a list holding goals in the given order.
func CreateList(t testing.TB, db *gorm.DB, category *models.Category, title string, goals ...*models.Goal) *models.GoalList {
	t.Helper()
	l := &models.GoalList{
		Title:      title,
		CategoryID: category.ID,
		Complexity: models.ComplexityMedium,
	}
	require.NoError(t, db.Create(l).Error)
	for i, g := range goals {
		require.NoError(t, db.Create(&models.GoalListItem{GoalListID: l.ID, GoalID: g.ID, Position: i}).Error)
	}
	return l
}

// CreateAchievement inserts an achievement with a raw JSON condition. An
// empty condition matches every user.
func CreateAchievement(t testing.TB, db *gorm.DB, title, condition string) *models.Achievement {
	t.Helper()
	a := &models.Achievement{Title: title}
	if condition != "" {
		a.Condition = datatypes.JSON(condition)
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// ReloadUser reads u back from db.
func ReloadUser(t testing.TB, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return &u
}
