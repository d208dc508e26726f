package database

import (
	"testing"

	"github.com/Cerega32/Bucket-List/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesLedgerAndMemberships(t *testing.T) {
	want := map[string]bool{
		"ExperienceEvent":    false,
		"GoalCompletion":     false,
		"GoalListCompletion": false,
		"AchievementGrant":   false,
	}
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.ExperienceEvent:
			want["ExperienceEvent"] = true
		case *models.GoalCompletion:
			want["GoalCompletion"] = true
		case *models.GoalListCompletion:
			want["GoalListCompletion"] = true
		case *models.AchievementGrant:
			want["AchievementGrant"] = true
		}
	}
	for name, found := range want {
		require.True(t, found, "PersistentModels should include %s", name)
	}
}
