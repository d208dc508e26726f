package service

import (
	"context"
	"testing"
	"time"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grantAt(t *testing.T, f *fixture, userID uint, amount int, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.ExperienceEvent{
		UserID:    userID,
		Action:    "COMPLETE_GOAL",
		Amount:    amount,
		CreatedAt: at,
	}).Error)
}

func TestLeaderboard_RanksWindow(t *testing.T) {
	f := newFixture(t)
	svc := f.leaderboard()
	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	a := testutil.CreateUser(t, f.db, "ann", 0)
	b := testutil.CreateUser(t, f.db, "ben", 0)
	c := testutil.CreateUser(t, f.db, "cid", 0)
	d := testutil.CreateUser(t, f.db, "dot", 0)
	idle := testutil.CreateUser(t, f.db, "idle", 500)

	grantAt(t, f, a.ID, 100, now.Add(-time.Hour))
	grantAt(t, f, b.ID, 150, now.Add(-2*time.Hour))
	grantAt(t, f, c.ID, 100, now.Add(-3*time.Hour))
	grantAt(t, f, d.ID, 400, now.Add(-10*24*time.Hour))
	grantAt(t, f, idle.ID, 0, now.Add(-time.Hour))

	entries, err := svc.Top(context.Background(), 10, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "ben", entries[0].User.Username)
	assert.Equal(t, int64(150), entries[0].ExperienceEarned)
	assert.Equal(t, "ann", entries[1].User.Username, "ties go to the lower user id")
	assert.Equal(t, "cid", entries[2].User.Username)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}

	top, err := svc.Top(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].Rank)

	wide, err := svc.Top(context.Background(), 10, 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, wide, 4)
	assert.Equal(t, "dot", wide[0].User.Username)
}

func TestLeaderboard_CommentsMakeUserEligible(t *testing.T) {
	f := newFixture(t)
	svc := f.leaderboard()

	cat := testutil.CreateCategory(t, f.db, "travel")
	goal := testutil.CreateGoal(t, f.db, cat, "Walk the Camino")
	writer := testutil.CreateUser(t, f.db, "eve", 0)

	_, err := f.comments().CreateComment(context.Background(), CreateCommentInput{UserID: writer.ID, GoalCode: goal.Code, Text: "hi"})
	require.NoError(t, err)

	entries, err := svc.Top(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].Comments)
	assert.Equal(t, int64(5), entries[0].ExperienceEarned)
}

func TestLeaderboard_CacheInvalidatedByCompletion(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t)
	f.cache = cache.New(rdb)
	svc := f.leaderboard()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "travel")
	goal := testutil.CreateGoal(t, f.db, cat, "Walk the Camino")
	user := testutil.CreateUser(t, f.db, "fay", 0)

	entries, err := svc.Top(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	completion := f.completion()
	_, err = completion.AddGoal(ctx, user.ID, goal.Code)
	require.NoError(t, err)
	_, err = completion.MarkGoal(ctx, user.ID, goal.Code, true)
	require.NoError(t, err)

	entries, err = svc.Top(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].GoalsCompleted)
	assert.Equal(t, int64(50), entries[0].ExperienceEarned)
}

func TestLeaderboard_SubDayWindowsCachedSeparately(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t)
	f.cache = cache.New(rdb)
	svc := f.leaderboard()
	now := time.Now().UTC()
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	early := testutil.CreateUser(t, f.db, "gus", 0)
	late := testutil.CreateUser(t, f.db, "hal", 0)
	grantAt(t, f, late.ID, 50, now.Add(-time.Hour))
	grantAt(t, f, early.ID, 100, now.Add(-16*time.Hour))

	half, err := svc.Top(ctx, 10, 12*time.Hour)
	require.NoError(t, err)
	require.Len(t, half, 1)
	assert.Equal(t, "hal", half[0].User.Username)

	longer, err := svc.Top(ctx, 10, 20*time.Hour)
	require.NoError(t, err)
	require.Len(t, longer, 2)
	assert.Equal(t, "gus", longer[0].User.Username)
}
