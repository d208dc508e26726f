package seed

import (
	"context"
	"testing"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/progression"
	"github.com/Cerega32/Bucket-List/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogParses(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Categories)
	assert.NotEmpty(t, c.Goals)
	assert.NotEmpty(t, c.Lists)
	assert.NotEmpty(t, c.Achievements)
}

func TestLoadCatalog_Idempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	c, err := DefaultCatalog()
	require.NoError(t, err)

	first, err := LoadCatalog(ctx, db, c)
	require.NoError(t, err)
	assert.Equal(t, len(c.Goals), first.Goals)
	assert.Equal(t, len(c.Lists), first.Lists)
	assert.Equal(t, len(c.Achievements), first.Achievements)

	second, err := LoadCatalog(ctx, db, c)
	require.NoError(t, err)
	assert.Equal(t, CatalogStats{}, second)

	var goals int64
	require.NoError(t, db.Model(&models.Goal{}).Count(&goals).Error)
	assert.Equal(t, int64(len(c.Goals)), goals)

	// Codes are transliterated slugs prefixed by the id.
	var goal models.Goal
	require.NoError(t, db.Where("title = ?", "Пробежать марафон").First(&goal).Error)
	assert.Equal(t, models.EntityCode(goal.ID, goal.Title), goal.Code)
	assert.NotContains(t, goal.Code, "марафон")
	require.NotNil(t, goal.SubcategoryID)

	var runner models.GoalList
	require.NoError(t, db.Where("title = ?", "Путь бегуна").First(&runner).Error)
	var items []models.GoalListItem
	require.NoError(t, db.Where("goal_list_id = ?", runner.ID).Order("position").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, goal.ID, items[1].GoalID)
}

func TestLoadCatalog_ResolvesCategoryConditions(t *testing.T) {
	db := testutil.OpenDB(t)
	c, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = LoadCatalog(context.Background(), db, c)
	require.NoError(t, err)

	var travel models.Category
	require.NoError(t, db.Where("name_en = ?", "travel").First(&travel).Error)

	var badge models.Achievement
	require.NoError(t, db.Where("title = ?", "Путешественник").First(&badge).Error)
	cond, err := progression.ParseCondition(badge.Condition)
	require.NoError(t, err)
	assert.Equal(t, progression.KindCategoryCount, cond.Kind)
	assert.Equal(t, travel.ID, cond.CategoryID)
	assert.Equal(t, int64(3), cond.Value)
}

func TestLoadCatalog_RejectsDanglingReferences(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown category",
			doc: `
goals:
  - title: Orphan
    category: nowhere
`,
		},
		{
			name: "unknown goal in list",
			doc: `
categories:
  - name: Misc
    name_en: misc
lists:
  - title: Broken
    category: misc
    goals: [Missing]
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.OpenDB(t)
			c, err := ParseCatalog([]byte(tt.doc))
			require.NoError(t, err)

			_, err = LoadCatalog(context.Background(), db, c)
			require.Error(t, err)

			var categories int64
			require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
			assert.Zero(t, categories, "failed load must roll back")
		})
	}
}

func TestDemo_KeepsLedgerConsistent(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = LoadCatalog(ctx, db, c)
	require.NoError(t, err)

	stats, err := Demo(ctx, db, DemoOptions{Users: 4, MaxGoalsPerUser: 4, CommentChance: 100, RandSeed: 42})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Users)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 4)
	for _, u := range users {
		var sum int64
		require.NoError(t, db.Model(&models.ExperienceEvent{}).
			Where("user_id = ?", u.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&sum).Error)
		assert.Equal(t, int64(u.Experience), sum, u.Username)
	}

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(stats.Comments), comments)
}

func TestDemo_RequiresCatalog(t *testing.T) {
	db := testutil.OpenDB(t)
	_, err := Demo(context.Background(), db, DemoOptions{Users: 1})
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = LoadCatalog(ctx, db, c)
	require.NoError(t, err)
	testutil.CreateUser(t, db, "ann", 10)

	require.NoError(t, Reset(ctx, db))

	for _, model := range []any{&models.User{}, &models.Goal{}, &models.GoalListItem{}, &models.Achievement{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}
