package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/notifications"
	"github.com/Cerega32/Bucket-List/internal/repository"
)

// Progress reports a user's standing after a mutating operation together
// with what the operation earned.
type Progress struct {
	Experience          int                  `json:"experience"`
	Level               int                  `json:"level"`
	NextLevelExperience int                  `json:"next_level_experience"`
	ExperienceGained    int                  `json:"experience_gained"`
	LeveledUp           bool                 `json:"leveled_up"`
	NewAchievements     []models.Achievement `json:"new_achievements"`
	CompletedLists      []uint               `json:"completed_lists"`
}

// effects collects the side effects of one transaction. Events are only
// published once the transaction has committed.
type effects struct {
	userID         uint
	gained         int
	leveledUp      bool
	achievements   []models.Achievement
	completedLists []uint
	events         []notifications.Event
}

func newEffects(userID uint) *effects {
	return &effects{
		userID:         userID,
		achievements:   []models.Achievement{},
		completedLists: []uint{},
	}
}

func (fx *effects) record(change *ExperienceChange) {
	if change == nil {
		return
	}
	fx.gained += change.Delta
	if change.LeveledUp() {
		fx.leveledUp = true
		fx.events = append(fx.events, notifications.Event{
			Type:   notifications.EventLevelUp,
			UserID: fx.userID,
			Data:   map[string]any{"level": change.LevelAfter, "experience": change.ExperienceAfter},
		})
	}
	fx.achievementsGranted(change.Achievements)
}

func (fx *effects) achievementsGranted(granted []models.Achievement) {
	for _, a := range granted {
		fx.achievements = append(fx.achievements, a)
		fx.events = append(fx.events, notifications.Event{
			Type:   notifications.EventAchievementGranted,
			UserID: fx.userID,
			Data:   map[string]any{"achievement_id": a.ID, "title": a.Title},
		})
	}
}

func (fx *effects) listCompleted(listID uint) {
	fx.completedLists = append(fx.completedLists, listID)
	fx.events = append(fx.events, notifications.Event{
		Type:   notifications.EventListCompleted,
		UserID: fx.userID,
		Data:   map[string]any{"goal_list_id": listID},
	})
}

// progress reads the user's counter through tx so it reflects every write
// made so far.
func (fx *effects) progress(ctx context.Context, tx *repository.Store) (*Progress, error) {
	user, err := tx.Users.GetByID(ctx, fx.userID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		Experience:          user.Experience,
		Level:               user.Level,
		NextLevelExperience: user.NextLevelExperience,
		ExperienceGained:    fx.gained,
		LeveledUp:           fx.leveledUp,
		NewAchievements:     fx.achievements,
		CompletedLists:      fx.completedLists,
	}, nil
}

// asAppError passes application errors through and turns anything else
// into a logged internal error.
func asAppError(ctx context.Context, op string, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == models.CodeInternal {
			middleware.Logger.ErrorContext(ctx, op+" failed", slog.String("error", err.Error()))
		}
		return appErr
	}
	middleware.Logger.ErrorContext(ctx, op+" failed", slog.String("error", err.Error()))
	return models.NewInternalError(err)
}
