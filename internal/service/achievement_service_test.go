package service

import (
	"context"
	"testing"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/progression"
	"github.com/Cerega32/Bucket-List/internal/repository"
	"github.com/Cerega32/Bucket-List/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkInTx(t *testing.T, f *fixture, e *AchievementEvaluator, userID uint) []models.Achievement {
	t.Helper()
	var granted []models.Achievement
	err := f.store.Transaction(context.Background(), func(tx *repository.Store) error {
		var err error
		granted, err = e.Check(context.Background(), tx, userID)
		return err
	})
	require.NoError(t, err)
	return granted
}

func TestAchievementEvaluator_Idempotent(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "ivy", 0)
	welcome := testutil.CreateAchievement(t, f.db, "Welcome", "")
	testutil.CreateAchievement(t, f.db, "Veteran", `{"kind":"level_reached","value":10}`)

	e := NewAchievementEvaluator(nil)

	first := checkInTx(t, f, e, user.ID)
	require.Len(t, first, 1)
	assert.Equal(t, welcome.ID, first[0].ID)

	second := checkInTx(t, f, e, user.ID)
	assert.Empty(t, second)

	var grants int64
	require.NoError(t, f.db.Model(&models.AchievementGrant{}).Where("user_id = ?", user.ID).Count(&grants).Error)
	assert.Equal(t, int64(1), grants)
}

func TestAchievementEvaluator_SkipsBadConditions(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "jack", 0)
	testutil.CreateAchievement(t, f.db, "Mystery", `{"kind":"moon_phase","value":1}`)
	testutil.CreateAchievement(t, f.db, "Broken", `{"kind":`)
	ok := testutil.CreateAchievement(t, f.db, "Always", `{"kind":"always"}`)

	granted := checkInTx(t, f, NewAchievementEvaluator(nil), user.ID)
	require.Len(t, granted, 1)
	assert.Equal(t, ok.ID, granted[0].ID)
}

func TestAchievementEvaluator_CustomKind(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "kate", 0)
	cat := testutil.CreateCategory(t, f.db, "travel")
	goal := testutil.CreateGoal(t, f.db, cat, "Visit Kyoto")
	require.NoError(t, f.db.Create(&models.GoalCompletion{UserID: user.ID, GoalID: goal.ID}).Error)
	explorer := testutil.CreateAchievement(t, f.db, "Explorer", `{"kind":"explorer"}`)

	registry := progression.NewConditionRegistry()
	registry.Register("explorer", func(_ progression.Condition, s progression.Snapshot) bool {
		return s.CompletedByCategory[cat.ID] > 0
	})

	granted := checkInTx(t, f, NewAchievementEvaluator(registry), user.ID)
	require.Len(t, granted, 1)
	assert.Equal(t, explorer.ID, granted[0].ID)
}

func TestAchievementService_Award(t *testing.T) {
	f := newFixture(t)
	svc := f.achievements()
	ctx := context.Background()

	user := testutil.CreateUser(t, f.db, "liam", 30)
	medal := testutil.CreateAchievement(t, f.db, "Medal", `{"kind":"level_reached","value":99}`)

	progress, err := svc.Award(ctx, medal.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, progress.Experience)
	assert.Equal(t, 75, progress.ExperienceGained)
	assert.True(t, progress.LeveledUp)
	require.Len(t, progress.NewAchievements, 1)
	assert.Equal(t, medal.ID, progress.NewAchievements[0].ID)

	_, err = svc.Award(ctx, medal.ID, user.ID)
	assertCode(t, err, models.CodePreconditionFailed)
	assert.Equal(t, 105, testutil.ReloadUser(t, f.db, user.ID).Experience)

	_, err = svc.Award(ctx, 9999, user.ID)
	assertCode(t, err, models.CodeNotFound)

	granted, err := svc.Granted(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, granted, 1)
	assert.Equal(t, "Medal", granted[0].Achievement.Title)

	_, err = svc.Granted(ctx, 9999)
	assertCode(t, err, models.CodeNotFound)
}
