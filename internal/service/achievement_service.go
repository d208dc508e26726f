package service

import (
	"context"
	"log/slog"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/notifications"
	"github.com/Cerega32/Bucket-List/internal/observability"
	"github.com/Cerega32/Bucket-List/internal/progression"
	"github.com/Cerega32/Bucket-List/internal/repository"
)

// AchievementEvaluator grants every achievement whose condition a user
// satisfies.
type AchievementEvaluator struct {
	registry *progression.ConditionRegistry
}

// NewAchievementEvaluator uses the built-in conditions when registry is nil.
func NewAchievementEvaluator(registry *progression.ConditionRegistry) *AchievementEvaluator {
	if registry == nil {
		registry = progression.NewConditionRegistry()
	}
	return &AchievementEvaluator{registry: registry}
}

// Check scans the achievements the user does not hold and grants the ones
// whose condition is met. Running it again without a state change grants
// nothing. Conditions that fail to decode or name an unknown kind are
// logged and skipped.
func (e *AchievementEvaluator) Check(ctx context.Context, tx *repository.Store, userID uint) ([]models.Achievement, error) {
	candidates, err := tx.Achievements.ListNotGrantedTo(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	snap, err := e.snapshot(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var matched []models.Achievement
	ids := make([]uint, 0, len(candidates))
	for _, a := range candidates {
		ok, err := e.registry.Evaluate(a.Condition, snap)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "skipping achievement with invalid condition",
				slog.Uint64("achievement_id", uint64(a.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			matched = append(matched, a)
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.Achievements.Grant(ctx, userID, ids...); err != nil {
		return nil, err
	}
	observability.AchievementsGranted.Add(float64(len(ids)))
	return matched, nil
}

func (e *AchievementEvaluator) snapshot(ctx context.Context, tx *repository.Store, userID uint) (progression.Snapshot, error) {
	user, err := tx.Users.GetByID(ctx, userID)
	if err != nil {
		return progression.Snapshot{}, err
	}
	snap := progression.Snapshot{
		UserID:     userID,
		Experience: user.Experience,
		Level:      progression.LevelFor(user.Experience),
	}
	if snap.GoalsCompleted, err = tx.Memberships.CountCompletedGoals(ctx, userID); err != nil {
		return snap, err
	}
	if snap.ListsCompleted, err = tx.Memberships.CountCompletedLists(ctx, userID); err != nil {
		return snap, err
	}
	if snap.CommentsPosted, err = tx.Comments.CountByUser(ctx, userID); err != nil {
		return snap, err
	}
	if snap.CompletedByCategory, err = tx.Memberships.CompletedByCategory(ctx, userID); err != nil {
		return snap, err
	}
	return snap, nil
}

// AchievementService serves the achievement catalog and explicit grants.
type AchievementService struct {
	store    *repository.Store
	ledger   *ExperienceLedger
	notifier *notifications.Notifier
	cache    *cache.Cache
}

func NewAchievementService(store *repository.Store, ledger *ExperienceLedger, notifier *notifications.Notifier, c *cache.Cache) *AchievementService {
	return &AchievementService{store: store, ledger: ledger, notifier: notifier, cache: c}
}

func (s *AchievementService) Catalog(ctx context.Context) ([]models.Achievement, error) {
	return s.store.Achievements.List(ctx)
}

// Granted lists the user's achievements, newest first.
func (s *AchievementService) Granted(ctx context.Context, userID uint) ([]models.GrantedAchievement, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Achievements.ListGrantedTo(ctx, userID)
}

// Award grants an achievement by hand and pays RECEIVE_ACHIEVEMENT for it.
func (s *AchievementService) Award(ctx context.Context, achievementID, userID uint) (*Progress, error) {
	fx := newEffects(userID)
	var progress *Progress
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByIDForUpdate(ctx, userID); err != nil {
			return err
		}
		achievement, err := tx.Achievements.GetByID(ctx, achievementID)
		if err != nil {
			return err
		}
		held, err := tx.Achievements.IsGranted(ctx, userID, achievementID)
		if err != nil {
			return err
		}
		if held {
			return models.NewPreconditionError("Achievement already granted")
		}
		if _, err := tx.Achievements.Grant(ctx, userID, achievementID); err != nil {
			return err
		}
		observability.AchievementsGranted.Inc()
		fx.achievementsGranted([]models.Achievement{*achievement})

		change, err := s.ledger.Apply(ctx, tx, userID, progression.ActionReceiveAchievement)
		if err != nil {
			return err
		}
		fx.record(change)

		progress, err = fx.progress(ctx, tx)
		return err
	})
	if err != nil {
		return nil, asAppError(ctx, "award achievement", err)
	}
	s.notifier.PublishAll(ctx, fx.events)
	s.cache.Invalidate(ctx, cache.UserKey(userID))
	s.cache.BumpVersion(ctx, cache.NamespaceLeaderboard)
	return progress, nil
}
