package service

import (
	"testing"
	"time"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/notifications"
	"github.com/Cerega32/Bucket-List/internal/repository"
	"github.com/Cerega32/Bucket-List/internal/storage"
	"github.com/Cerega32/Bucket-List/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMaxUpload = 1 << 20

type fixture struct {
	db      *gorm.DB
	store   *repository.Store
	blobs   *storage.MemoryStorage
	ledger  *ExperienceLedger
	cache   *cache.Cache
	notify  *notifications.Notifier
	catalog *CatalogService
}

// newFixture wires the services over a private SQLite database with the
// cache and notifier disabled.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	f := &fixture{
		db:     db,
		store:  repository.NewStore(db),
		blobs:  storage.NewMemoryStorage("/uploads"),
		ledger: NewExperienceLedger(NewAchievementEvaluator(nil)),
		cache:  cache.New(nil),
		notify: notifications.NewNotifier(nil),
	}
	f.catalog = NewCatalogService(f.store, f.cache, f.blobs, testMaxUpload)
	return f
}

func (f *fixture) completion() *CompletionService {
	return NewCompletionService(f.store, f.ledger, f.notify, f.cache)
}

func (f *fixture) comments() *CommentService {
	return NewCommentService(f.store, f.ledger, f.notify, f.cache, f.blobs, testMaxUpload)
}

func (f *fixture) achievements() *AchievementService {
	return NewAchievementService(f.store, f.ledger, f.notify, f.cache)
}

func (f *fixture) users() *UserService {
	return NewUserService(f.store, f.cache, f.blobs, testMaxUpload)
}

func (f *fixture) leaderboard() *LeaderboardService {
	return NewLeaderboardService(f.store, f.cache, time.Minute)
}

// events counts the experience ledger rows of userID.
func (f *fixture) events(t *testing.T, userID uint) []models.ExperienceEvent {
	t.Helper()
	var out []models.ExperienceEvent
	require.NoError(t, f.db.Where("user_id = ?", userID).Order("id").Find(&out).Error)
	return out
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}
