// Package service holds the application's business logic.
package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/observability"
	"github.com/Cerega32/Bucket-List/internal/progression"
	"github.com/Cerega32/Bucket-List/internal/repository"
)

// ExperienceChange is the outcome of one ledger write, including the
// achievements unlocked by a level-up.
type ExperienceChange struct {
	progression.LevelChange
	Achievements []models.Achievement
}

// ExperienceLedger applies fixed experience rewards to users. Every method
// runs inside the caller's transaction.
type ExperienceLedger struct {
	evaluator *AchievementEvaluator
}

func NewExperienceLedger(evaluator *AchievementEvaluator) *ExperienceLedger {
	return &ExperienceLedger{evaluator: evaluator}
}

// Apply grants the reward for action. Unknown actions are a no-op and
// return a nil change. When the user's level rises the achievement evaluator
// runs before Apply returns.
func (l *ExperienceLedger) Apply(ctx context.Context, tx *repository.Store, userID uint, action progression.Action) (*ExperienceChange, error) {
	amount, ok := progression.Reward(action)
	if !ok {
		middleware.Logger.DebugContext(ctx, "ignoring unknown experience action", slog.String("action", string(action)))
		return nil, nil
	}

	change, err := l.write(ctx, tx, userID, action, amount)
	if err != nil {
		return nil, err
	}
	observability.ExperienceGranted.WithLabelValues(string(action)).Add(float64(amount))

	if change.LeveledUp() {
		observability.LevelUps.WithLabelValues(strconv.Itoa(change.LevelAfter)).Inc()
		middleware.Logger.InfoContext(ctx, "user leveled up",
			slog.Uint64("user_id", uint64(userID)),
			slog.Int("level", change.LevelAfter),
		)
		granted, err := l.evaluator.Check(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		change.Achievements = granted
	}
	return change, nil
}

// Revoke takes back the reward for action. The counter may go negative and
// a lower level has no side effects.
func (l *ExperienceLedger) Revoke(ctx context.Context, tx *repository.Store, userID uint, action progression.Action) (*ExperienceChange, error) {
	amount, ok := progression.Reward(action)
	if !ok {
		return nil, nil
	}
	change, err := l.write(ctx, tx, userID, action, -amount)
	if err != nil {
		return nil, err
	}
	observability.ExperienceRevoked.WithLabelValues(string(action)).Add(float64(amount))
	return change, nil
}

func (l *ExperienceLedger) write(ctx context.Context, tx *repository.Store, userID uint, action progression.Action, delta int) (*ExperienceChange, error) {
	after, err := tx.Users.AddExperience(ctx, userID, delta)
	if err != nil {
		return nil, err
	}
	if err := tx.Experience.Append(ctx, &models.ExperienceEvent{
		UserID: userID,
		Action: string(action),
		Amount: delta,
	}); err != nil {
		return nil, err
	}
	return &ExperienceChange{LevelChange: progression.Apply(userID, action, after-delta, delta)}, nil
}
