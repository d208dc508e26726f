package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCompletion_ThreeGoalList(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "travel")
	g1 := testutil.CreateGoal(t, f.db, cat, "See the aurora")
	g2 := testutil.CreateGoal(t, f.db, cat, "Cross the Alps")
	g3 := testutil.CreateGoal(t, f.db, cat, "Sail the fjords")
	list := testutil.CreateList(t, f.db, cat, "100 goals", g1, g2, g3)
	user := testutil.CreateUser(t, f.db, "alice", 0)

	state, err := svc.AddList(ctx, user.ID, list.Code)
	require.NoError(t, err)
	assert.True(t, state.Added)
	assert.False(t, state.Completed)
	assert.Equal(t, int64(3), state.GoalsCount)

	for _, g := range []*models.Goal{g1, g2, g3} {
		added, err := f.store.Memberships.IsGoalAdded(ctx, user.ID, g.ID)
		require.NoError(t, err)
		assert.True(t, added, "goal %d should be added with the list", g.ID)
	}

	_, err = svc.MarkGoal(ctx, user.ID, g1.Code, true)
	require.NoError(t, err)
	_, err = svc.MarkGoal(ctx, user.ID, g2.Code, true)
	require.NoError(t, err)

	done, err := f.store.Memberships.IsListCompleted(ctx, user.ID, list.ID)
	require.NoError(t, err)
	assert.False(t, done, "list must not complete before the last goal")

	last, err := svc.MarkGoal(ctx, user.ID, g3.Code, true)
	require.NoError(t, err)
	assert.True(t, last.Completed)
	assert.Equal(t, []uint{list.ID}, last.Progress.CompletedLists)
	assert.Equal(t, 150, last.Progress.ExperienceGained)
	assert.Equal(t, 250, last.Progress.Experience)

	var completions int64
	require.NoError(t, f.db.Model(&models.GoalListCompletion{}).
		Where("user_id = ? AND goal_list_id = ?", user.ID, list.ID).
		Count(&completions).Error)
	assert.Equal(t, int64(1), completions)

	// Repeating the mark is a no-op.
	again, err := svc.MarkGoal(ctx, user.ID, g3.Code, true)
	require.NoError(t, err)
	assert.Zero(t, again.Progress.ExperienceGained)
	assert.Empty(t, again.Progress.CompletedLists)

	undone, err := svc.MarkGoal(ctx, user.ID, g2.Code, false)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Equal(t, 250, undone.Progress.Experience, "un-completing keeps experience")

	done, err = f.store.Memberships.IsListCompleted(ctx, user.ID, list.ID)
	require.NoError(t, err)
	assert.False(t, done)

	var listRewards int64
	require.NoError(t, f.db.Model(&models.ExperienceEvent{}).
		Where("user_id = ? AND action = ?", user.ID, "COMPLETE_LIST").
		Count(&listRewards).Error)
	assert.Equal(t, int64(1), listRewards)
}

func TestCompletion_SingleGoalListReachesLevelTwo(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "sport")
	goal := testutil.CreateGoal(t, f.db, cat, "Run a marathon")
	list := testutil.CreateList(t, f.db, cat, "Endurance", goal)
	user := testutil.CreateUser(t, f.db, "bob", 0)

	_, err := svc.AddList(ctx, user.ID, list.Code)
	require.NoError(t, err)

	state, err := svc.MarkGoal(ctx, user.ID, goal.Code, true)
	require.NoError(t, err)
	assert.Equal(t, 150, state.Progress.Experience)
	assert.Equal(t, 2, state.Progress.Level)
	assert.True(t, state.Progress.LeveledUp)
	assert.Equal(t, 100, state.Progress.NextLevelExperience)

	events := f.events(t, user.ID)
	require.Len(t, events, 2)
	assert.Equal(t, "COMPLETE_GOAL", events[0].Action)
	assert.Equal(t, 50, events[0].Amount)
	assert.Equal(t, "COMPLETE_LIST", events[1].Action)
	assert.Equal(t, 100, events[1].Amount)

	assert.Equal(t, 150, testutil.ReloadUser(t, f.db, user.ID).Experience)
}

func TestCompletion_LevelUpRunsEvaluator(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "food")
	goal := testutil.CreateGoal(t, f.db, cat, "Bake bread")
	user := testutil.CreateUser(t, f.db, "carol", 60)
	reached := testutil.CreateAchievement(t, f.db, "Level two", `{"kind":"level_reached","value":2}`)
	testutil.CreateAchievement(t, f.db, "Level five", `{"kind":"level_reached","value":5}`)

	_, err := svc.AddGoal(ctx, user.ID, goal.Code)
	require.NoError(t, err)
	state, err := svc.MarkGoal(ctx, user.ID, goal.Code, true)
	require.NoError(t, err)

	require.Len(t, state.Progress.NewAchievements, 1)
	assert.Equal(t, reached.ID, state.Progress.NewAchievements[0].ID)
	// The evaluator grants without paying.
	assert.Equal(t, 110, state.Progress.Experience)

	held, err := f.store.Achievements.IsGranted(ctx, user.ID, reached.ID)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestCompletion_Preconditions(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "art")
	goal := testutil.CreateGoal(t, f.db, cat, "Paint a mural")
	list := testutil.CreateList(t, f.db, cat, "Creative", goal)
	user := testutil.CreateUser(t, f.db, "dave", 0)

	t.Run("unknown goal code", func(t *testing.T) {
		_, err := svc.AddGoal(ctx, user.ID, "missing-goal")
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("unknown list code", func(t *testing.T) {
		_, err := svc.AddList(ctx, user.ID, "missing-list")
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("remove goal that is not added", func(t *testing.T) {
		_, err := svc.RemoveGoal(ctx, user.ID, goal.Code)
		assertCode(t, err, models.CodePreconditionFailed)
	})

	t.Run("mark goal that is not added", func(t *testing.T) {
		_, err := svc.MarkGoal(ctx, user.ID, goal.Code, true)
		assertCode(t, err, models.CodePreconditionFailed)
		assert.Zero(t, testutil.ReloadUser(t, f.db, user.ID).Experience)
	})

	t.Run("mark all in list that is not added", func(t *testing.T) {
		_, err := svc.MarkAllInList(ctx, user.ID, list.Code)
		assertCode(t, err, models.CodePreconditionFailed)
	})

	t.Run("remove list that is not added", func(t *testing.T) {
		_, err := svc.RemoveList(ctx, user.ID, list.Code)
		assertCode(t, err, models.CodePreconditionFailed)
	})

	t.Run("add goal twice", func(t *testing.T) {
		_, err := svc.AddGoal(ctx, user.ID, goal.Code)
		require.NoError(t, err)
		_, err = svc.AddGoal(ctx, user.ID, goal.Code)
		assertCode(t, err, models.CodePreconditionFailed)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.AddGoal(ctx, 9999, goal.Code)
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestCompletion_RemoveGoalClearsCompletion(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "music")
	goal := testutil.CreateGoal(t, f.db, cat, "Learn guitar")
	list := testutil.CreateList(t, f.db, cat, "Instruments", goal)
	user := testutil.CreateUser(t, f.db, "erin", 0)

	_, err := svc.AddList(ctx, user.ID, list.Code)
	require.NoError(t, err)
	_, err = svc.MarkGoal(ctx, user.ID, goal.Code, true)
	require.NoError(t, err)

	state, err := svc.RemoveGoal(ctx, user.ID, goal.Code)
	require.NoError(t, err)
	assert.False(t, state.Added)
	assert.False(t, state.Completed)
	assert.Equal(t, 150, state.Progress.Experience)

	done, err := f.store.Memberships.IsListCompleted(ctx, user.ID, list.ID)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCompletion_RemoveListKeepsGoals(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "nature")
	goal := testutil.CreateGoal(t, f.db, cat, "Climb a volcano")
	list := testutil.CreateList(t, f.db, cat, "Peaks", goal)
	user := testutil.CreateUser(t, f.db, "frank", 0)

	_, err := svc.AddList(ctx, user.ID, list.Code)
	require.NoError(t, err)
	_, err = svc.MarkGoal(ctx, user.ID, goal.Code, true)
	require.NoError(t, err)

	state, err := svc.RemoveList(ctx, user.ID, list.Code)
	require.NoError(t, err)
	assert.False(t, state.Added)
	assert.False(t, state.Completed)

	completed, err := f.store.Memberships.IsGoalCompleted(ctx, user.ID, goal.ID)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestCompletion_MarkAllInList(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "books")
	g1 := testutil.CreateGoal(t, f.db, cat, "Read Ulysses")
	g2 := testutil.CreateGoal(t, f.db, cat, "Read Dune")
	list := testutil.CreateList(t, f.db, cat, "Classics", g1, g2)
	other := testutil.CreateList(t, f.db, cat, "Sci-fi", g2)
	user := testutil.CreateUser(t, f.db, "gina", 0)

	_, err := svc.AddList(ctx, user.ID, list.Code)
	require.NoError(t, err)
	_, err = svc.AddGoal(ctx, user.ID, g1.Code)
	require.Error(t, err, "list add already added the goal")

	_, err = svc.MarkGoal(ctx, user.ID, g1.Code, true)
	require.NoError(t, err)

	state, err := svc.MarkAllInList(ctx, user.ID, list.Code)
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, int64(2), state.GoalsCompleted)
	assert.ElementsMatch(t, []uint{list.ID, other.ID}, state.Progress.CompletedLists)
	// One new goal plus two lists.
	assert.Equal(t, 250, state.Progress.ExperienceGained)
	assert.Equal(t, 300, state.Progress.Experience)
}

func TestCompletion_FailureRollsBack(t *testing.T) {
	f := newFixture(t)
	svc := f.completion()
	ctx := context.Background()

	cat := testutil.CreateCategory(t, f.db, "science")
	goal := testutil.CreateGoal(t, f.db, cat, "Visit CERN")
	user := testutil.CreateUser(t, f.db, "hank", 0)
	_, err := svc.AddGoal(ctx, user.ID, goal.Code)
	require.NoError(t, err)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").
		Register("test:fail_ledger", func(tx *gorm.DB) {
			if tx.Statement.Table == "experience_events" {
				_ = tx.AddError(errors.New("disk full"))
			}
		}))

	_, err = svc.MarkGoal(ctx, user.ID, goal.Code, true)
	assertCode(t, err, models.CodeInternal)

	completed, err := f.store.Memberships.IsGoalCompleted(ctx, user.ID, goal.ID)
	require.NoError(t, err)
	assert.False(t, completed, "completion must roll back with the ledger")
	assert.Zero(t, testutil.ReloadUser(t, f.db, user.ID).Experience)
	assert.Empty(t, f.events(t, user.ID))
}
