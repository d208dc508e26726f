package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		mockBehavior func(mock sqlmock.Sqlmock)
		wantCode     string
		wantUsername string
	}{
		{
			name: "found",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "username", "experience"}).AddRow(1, "anna", 150))
			},
			wantUsername: "anna",
		},
		{
			name: "missing",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantCode: models.CodeNotFound,
		},
		{
			name: "storage failure",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
					WillReturnError(errors.New("connection reset"))
			},
			wantCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			tt.mockBehavior(mock)

			user, err := NewStore(db).Users.GetByID(ctx, 1)
			if tt.wantCode != "" {
				assert.True(t, models.IsCode(err, tt.wantCode), "got %v", err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUsername, user.Username)
				assert.Equal(t, 2, user.Level)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_AddExperienceFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "experience"=experience + $1 WHERE id = $2`)).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := NewStore(db).Users.AddExperience(context.Background(), 7, 50)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isUniqueConstraintError(errors.New(`duplicate key value violates unique constraint "idx_users_email"`)))
	assert.False(t, isUniqueConstraintError(errors.New("connection refused")))
}

func TestUserRepository_SQLite(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := &models.User{Username: "anna", Email: "anna@example.com", Password: "hash"}
	require.NoError(t, store.Users.Create(ctx, user))

	dup := &models.User{Username: "anna", Email: "other@example.com", Password: "hash"}
	err := store.Users.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	exp, err := store.Users.AddExperience(ctx, user.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 150, exp)

	exp, err = store.Users.AddExperience(ctx, user.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 145, exp)

	_, err = store.Users.AddExperience(ctx, 999, 5)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	// A stale struct must not overwrite the counter.
	user.Bio = "climber"
	user.Experience = 0
	require.NoError(t, store.Users.UpdateProfile(ctx, user))
	reloaded := testutil.ReloadUser(t, db, user.ID)
	assert.Equal(t, "climber", reloaded.Bio)
	assert.Equal(t, 145, reloaded.Experience)
	assert.Equal(t, 2, reloaded.Level)

	missing, err := store.Users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "bob", 0)

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Users.AddExperience(ctx, user.ID, 50); err != nil {
			return err
		}
		if err := tx.Experience.Append(ctx, &models.ExperienceEvent{UserID: user.ID, Action: "COMPLETE_GOAL", Amount: 50}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, testutil.ReloadUser(t, db, user.ID).Experience)
	var events int64
	require.NoError(t, db.Model(&models.ExperienceEvent{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestGoalCreateAssignsCode(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()
	cat := testutil.CreateCategory(t, db, "travel")

	goal := &models.Goal{Title: "Climb Kilimanjaro", CategoryID: cat.ID, Complexity: models.ComplexityHard}
	require.NoError(t, store.Goals.Create(ctx, goal))
	assert.Equal(t, models.EntityCode(goal.ID, "Climb Kilimanjaro"), goal.Code)

	loaded, err := store.Goals.GetByCode(ctx, goal.Code)
	require.NoError(t, err)
	assert.Equal(t, goal.ID, loaded.ID)
	require.NotNil(t, loaded.Category)
	assert.Equal(t, "travel", loaded.Category.NameEn)

	_, err = store.Goals.GetByCode(ctx, "missing")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestMembershipRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "carol", 0)
	cat := testutil.CreateCategory(t, db, "sport")
	other := testutil.CreateCategory(t, db, "art")
	g1 := testutil.CreateGoal(t, db, cat, "Run a marathon")
	g2 := testutil.CreateGoal(t, db, cat, "Swim a mile")
	g3 := testutil.CreateGoal(t, db, other, "Paint a portrait")
	list := testutil.CreateList(t, db, cat, "Endurance", g1, g2, g3)

	added, err := store.Memberships.AddGoal(ctx, user.ID, g1.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.Memberships.AddGoal(ctx, user.ID, g1.ID)
	require.NoError(t, err)
	assert.False(t, added)

	n, err := store.Memberships.AddGoals(ctx, user.ID, []uint{g1.ID, g2.ID, g3.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, g := range []*models.Goal{g1, g3} {
		done, err := store.Memberships.CompleteGoal(ctx, user.ID, g.ID)
		require.NoError(t, err)
		assert.True(t, done)
	}

	completed, total, err := store.Memberships.ListProgress(ctx, user.ID, list.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), completed)
	assert.Equal(t, int64(3), total)

	byCategory, err := store.Memberships.CompletedByCategory(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{cat.ID: 1, other.ID: 1}, byCategory)

	ids, err := store.Memberships.CompletedGoalIDs(ctx, user.ID, []uint{g1.ID, g2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{g1.ID: true}, ids)

	removed, err := store.Memberships.UncompleteGoal(ctx, user.ID, g2.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	lists, err := store.Lists.IDsContainingGoals(ctx, []uint{g1.ID, g3.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{list.ID}, lists)
}

func TestAchievementRepository_ExclusionAndGrant(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "dave", 0)
	a1 := testutil.CreateAchievement(t, db, "First steps", "")
	a2 := testutil.CreateAchievement(t, db, "Veteran", `{"kind":"level_reached","value":5}`)

	n, err := store.Achievements.Grant(ctx, user.ID, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = store.Achievements.Grant(ctx, user.ID, a1.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err := store.Achievements.ListNotGrantedTo(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a2.ID, pending[0].ID)

	granted, err := store.Achievements.ListGrantedTo(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, granted, 1)
	assert.Equal(t, "First steps", granted[0].Title)
	assert.False(t, granted[0].GrantedAt.IsZero())
}

func TestCommentRepository_ListForGoal(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "erin", 0)
	fan := testutil.CreateUser(t, db, "frank", 0)
	cat := testutil.CreateCategory(t, db, "food")
	goal := testutil.CreateGoal(t, db, cat, "Bake bread")

	older := &models.Comment{GoalID: goal.ID, UserID: author.ID, Text: "older", Photos: []models.CommentPhoto{{URL: "/uploads/a.png"}}}
	require.NoError(t, store.Comments.Create(ctx, older))
	newer := &models.Comment{GoalID: goal.ID, UserID: author.ID, Text: "newer"}
	require.NoError(t, store.Comments.Create(ctx, newer))
	require.NoError(t, db.Model(older).Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	require.NoError(t, store.Comments.SetReaction(ctx, older.ID, fan.ID, models.ReactionLike))
	require.NoError(t, store.Comments.SetReaction(ctx, newer.ID, author.ID, models.ReactionDislike))
	_, err := store.Memberships.CompleteGoal(ctx, author.ID, goal.ID)
	require.NoError(t, err)

	byDate, total, err := store.Comments.ListForGoal(ctx, CommentQuery{GoalID: goal.ID, ViewerID: fan.ID, Sort: CommentSortDate, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, byDate, 2)
	assert.Equal(t, "newer", byDate[0].Text)
	assert.Equal(t, int64(1), byDate[0].DislikesCount)

	byLikes, _, err := store.Comments.ListForGoal(ctx, CommentQuery{GoalID: goal.ID, ViewerID: fan.ID, Sort: CommentSortLikes, Limit: 10})
	require.NoError(t, err)
	require.Len(t, byLikes, 2)
	first := byLikes[0]
	assert.Equal(t, "older", first.Text)
	assert.Equal(t, int64(1), first.LikesCount)
	assert.True(t, first.HasLiked)
	assert.False(t, first.HasDisliked)
	assert.Equal(t, int64(1), first.AuthorCompletedGoals)
	assert.Equal(t, "erin", first.Author.Username)
	assert.Len(t, first.Photos, 1)

	// Switching the reaction keeps a single row per user.
	require.NoError(t, store.Comments.SetReaction(ctx, older.ID, fan.ID, models.ReactionDislike))
	score, err := store.Comments.Score(ctx, older.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionScore{DislikesCount: 1, HasDisliked: true}, score)

	require.NoError(t, store.Comments.Delete(ctx, older.ID))
	var photos int64
	require.NoError(t, db.Model(&models.CommentPhoto{}).Count(&photos).Error)
	assert.Zero(t, photos)
	_, err = store.Comments.GetByID(ctx, older.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestLeaderboardRepository_Activity(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	active := testutil.CreateUser(t, db, "gina", 0)
	stale := testutil.CreateUser(t, db, "hank", 0)
	testutil.CreateUser(t, db, "idle", 0)
	cat := testutil.CreateCategory(t, db, "music")
	goal := testutil.CreateGoal(t, db, cat, "Learn guitar")

	require.NoError(t, db.Create(&models.GoalCompletion{UserID: active.ID, GoalID: goal.ID}).Error)
	require.NoError(t, db.Create(&models.ExperienceEvent{UserID: active.ID, Action: "COMPLETE_GOAL", Amount: 50}).Error)
	require.NoError(t, db.Create(&models.ExperienceEvent{UserID: active.ID, Action: "ADD_COMMENT", Amount: 5}).Error)
	require.NoError(t, db.Create(&models.ExperienceEvent{UserID: stale.ID, Action: "COMPLETE_GOAL", Amount: 50, CreatedAt: now.Add(-30 * 24 * time.Hour)}).Error)

	rows, err := store.Leaderboard.Activity(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, LeaderRow{UserID: active.ID, GoalsCompleted: 1, ExperienceEarned: 55}, rows[0])
}

func TestCategoryRepository_ListCountsGoals(t *testing.T) {
	db := testutil.OpenDB(t)
	store := NewStore(db)
	ctx := context.Background()

	parent := testutil.CreateCategory(t, db, "outdoors")
	child := &models.Category{Name: "Hiking", NameEn: "hiking", ParentCategoryID: &parent.ID}
	require.NoError(t, store.Categories.Create(ctx, child))

	goal := testutil.CreateGoal(t, db, parent, "Walk the Camino")
	require.NoError(t, db.Model(goal).Update("subcategory_id", child.ID).Error)

	categories, err := store.Categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, 1, categories[0].GoalCount)
	assert.Equal(t, 1, categories[1].GoalCount)
	require.NotNil(t, categories[1].ParentCategory)
	assert.Equal(t, "outdoors", categories[1].ParentCategory.NameEn)

	err = store.Categories.Create(ctx, &models.Category{Name: "dup", NameEn: "hiking"})
	assert.True(t, models.IsCode(err, models.CodeConflict))
}
