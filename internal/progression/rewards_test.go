package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReward(t *testing.T) {
	cases := map[Action]int{
		ActionCompleteGoal:       50,
		ActionCompleteList:       100,
		ActionAddComment:         5,
		ActionReceiveAchievement: 75,
	}
	for action, want := range cases {
		got, ok := Reward(action)
		assert.True(t, ok, action)
		assert.Equal(t, want, got, action)
	}

	_, ok := Reward(Action("SHARE_GOAL"))
	assert.False(t, ok)
}

func TestApplyDetectsLevelUp(t *testing.T) {
	change := Apply(7, ActionCompleteGoal, 0, 50)
	assert.Equal(t, 50, change.ExperienceAfter)
	assert.False(t, change.LeveledUp())

	change = Apply(7, ActionCompleteGoal, 50, 50)
	assert.Equal(t, 1, change.LevelBefore)
	assert.Equal(t, 2, change.LevelAfter)
	assert.True(t, change.LeveledUp())

	change = Apply(7, ActionAddComment, 100, -5)
	assert.False(t, change.LeveledUp())
	assert.Equal(t, 1, change.LevelAfter)
}
