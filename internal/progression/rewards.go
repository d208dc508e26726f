package progression

// Action is an experience-granting user action.
type Action string

const (
	ActionCompleteGoal       Action = "COMPLETE_GOAL"
	ActionCompleteList       Action = "COMPLETE_LIST"
	ActionAddComment         Action = "ADD_COMMENT"
	ActionReceiveAchievement Action = "RECEIVE_ACHIEVEMENT"
)

var rewards = map[Action]int{
	ActionCompleteGoal:       50,
	ActionCompleteList:       100,
	ActionAddComment:         5,
	ActionReceiveAchievement: 75,
}

// Reward returns the fixed experience amount for action. ok is false for
// actions outside the known set.
func Reward(action Action) (amount int, ok bool) {
	amount, ok = rewards[action]
	return amount, ok
}

// LevelChange describes the effect of one ledger write on a user's level.
type LevelChange struct {
	UserID          uint
	Action          Action
	Delta           int
	ExperienceAfter int
	LevelBefore     int
	LevelAfter      int
}

// LeveledUp reports whether the write moved the user to a higher level.
func (c LevelChange) LeveledUp() bool {
	return c.LevelAfter > c.LevelBefore
}

// Apply computes the change of adding delta to experience. It does not
// persist anything.
func Apply(userID uint, action Action, experience, delta int) LevelChange {
	after := experience + delta
	return LevelChange{
		UserID:          userID,
		Action:          action,
		Delta:           delta,
		ExperienceAfter: after,
		LevelBefore:     LevelFor(experience),
		LevelAfter:      LevelFor(after),
	}
}
