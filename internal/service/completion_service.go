package service

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/notifications"
	"github.com/Cerega32/Bucket-List/internal/observability"
	"github.com/Cerega32/Bucket-List/internal/progression"
	"github.com/Cerega32/Bucket-List/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Completion operations, used as span names and metric labels.
const (
	OpAddGoal       = "add_goal"
	OpRemoveGoal    = "remove_goal"
	OpMarkGoal      = "mark_goal"
	OpAddList       = "add_list"
	OpRemoveList    = "remove_list"
	OpMarkAllInList = "mark_all_in_list"
)

// GoalState is a user's relation to one goal after an operation.
type GoalState struct {
	Code           string   `json:"code"`
	Added          bool     `json:"added"`
	Completed      bool     `json:"completed"`
	TotalAdded     int64    `json:"total_added"`
	TotalCompleted int64    `json:"total_completed"`
	Progress       Progress `json:"progress"`
}

// ListState is a user's relation to one list after an operation.
type ListState struct {
	Code           string   `json:"code"`
	Added          bool     `json:"added"`
	Completed      bool     `json:"completed"`
	GoalsCompleted int64    `json:"goals_completed"`
	GoalsCount     int64    `json:"goals_count"`
	Progress       Progress `json:"progress"`
}

// CompletionService moves goals and lists through
// NotAdded -> Added -> Completed for one user. Every operation is a single
// transaction that holds the user's row lock, so concurrent toggles by the
// same user are serialized.
type CompletionService struct {
	store    *repository.Store
	ledger   *ExperienceLedger
	notifier *notifications.Notifier
	cache    *cache.Cache
}

func NewCompletionService(store *repository.Store, ledger *ExperienceLedger, notifier *notifications.Notifier, c *cache.Cache) *CompletionService {
	return &CompletionService{store: store, ledger: ledger, notifier: notifier, cache: c}
}

type completionFunc func(ctx context.Context, tx *repository.Store, fx *effects) error

func (s *CompletionService) run(ctx context.Context, op string, userID uint, fn completionFunc) (err error) {
	ctx, span := observability.StartSpan(ctx, "completion."+op,
		attribute.String("completion.operation", op),
		attribute.Int64("user.id", int64(userID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	fx := newEffects(userID)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByIDForUpdate(ctx, userID); err != nil {
			return err
		}
		return fn(ctx, tx, fx)
	})
	if err != nil {
		err = asAppError(ctx, op, err)
		outcome := "rejected"
		if models.IsCode(err, models.CodeInternal) {
			outcome = "error"
		}
		observability.CompletionTransitions.WithLabelValues(op, outcome).Inc()
		return err
	}
	observability.CompletionTransitions.WithLabelValues(op, "ok").Inc()

	s.notifier.PublishAll(ctx, fx.events)
	s.cache.Invalidate(ctx, cache.UserKey(userID))
	s.cache.BumpVersion(ctx, cache.NamespaceLeaderboard)
	return nil
}

// AddGoal puts the goal into the user's added set.
func (s *CompletionService) AddGoal(ctx context.Context, userID uint, code string) (*GoalState, error) {
	var state *GoalState
	err := s.run(ctx, OpAddGoal, userID, func(ctx context.Context, tx *repository.Store, fx *effects) error {
		goal, err := tx.Goals.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		added, err := tx.Memberships.AddGoal(ctx, userID, goal.ID)
		if err != nil {
			return err
		}
		if !added {
			return models.NewPreconditionError("Goal is already added")
		}
		state, err = s.goalState(ctx, tx, fx, goal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// RemoveGoal drops the goal from both the added and the completed set and
// re-derives every list containing it. Earned experience is kept.
func (s *CompletionService) RemoveGoal(ctx context.Context, userID uint, code string) (*GoalState, error) {
	var state *GoalState
	err := s.run(ctx, OpRemoveGoal, userID, func(ctx context.Context, tx *repository.Store, fx *effects) error {
		goal, err := tx.Goals.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		removed, err := tx.Memberships.RemoveGoal(ctx, userID, goal.ID)
		if err != nil {
			return err
		}
		if !removed {
			return models.NewPreconditionError("Goal is not added")
		}
		if _, err := tx.Memberships.UncompleteGoal(ctx, userID, goal.ID); err != nil {
			return err
		}
		if err := s.recomputeLists(ctx, tx, fx, []uint{goal.ID}); err != nil {
			return err
		}
		state, err = s.goalState(ctx, tx, fx, goal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// MarkGoal sets the completion flag of an added goal. Completing pays
// COMPLETE_GOAL; un-completing keeps the experience. Repeating the current
// state changes nothing.
func (s *CompletionService) MarkGoal(ctx context.Context, userID uint, code string, done bool) (*GoalState, error) {
	var state *GoalState
	err := s.run(ctx, OpMarkGoal, userID, func(ctx context.Context, tx *repository.Store, fx *effects) error {
		goal, err := tx.Goals.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		added, err := tx.Memberships.IsGoalAdded(ctx, userID, goal.ID)
		if err != nil {
			return err
		}
		if !added {
			return models.NewPreconditionError("Goal is not added")
		}

		var changed bool
		if done {
			changed, err = s.completeGoal(ctx, tx, fx, goal.ID)
		} else {
			changed, err = tx.Memberships.UncompleteGoal(ctx, userID, goal.ID)
		}
		if err != nil {
			return err
		}
		if changed {
			if err := s.recomputeLists(ctx, tx, fx, []uint{goal.ID}); err != nil {
				return err
			}
		}
		state, err = s.goalState(ctx, tx, fx, goal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// AddList puts the list and every goal in it into the user's added sets.
func (s *CompletionService) AddList(ctx context.Context, userID uint, code string) (*ListState, error) {
	var state *ListState
	err := s.run(ctx, OpAddList, userID, func(ctx context.Context, tx *repository.Store, fx *effects) error {
		list, err := tx.Lists.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		added, err := tx.Memberships.AddList(ctx, userID, list.ID)
		if err != nil {
			return err
		}
		if !added {
			return models.NewPreconditionError("List is already added")
		}
		goalIDs, err := tx.Lists.GoalIDs(ctx, list.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Memberships.AddGoals(ctx, userID, goalIDs); err != nil {
			return err
		}
		state, err = s.listState(ctx, tx, fx, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// RemoveList drops the list from the user's added and completed sets. Its
// goals keep their state.
func (s *CompletionService) RemoveList(ctx context.Context, userID uint, code string) (*ListState, error) {
	var state *ListState
	err := s.run(ctx, OpRemoveList, userID, func(ctx context.Context, tx *repository.Store, fx *effects) error {
		list, err := tx.Lists.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		removed, err := tx.Memberships.RemoveList(ctx, userID, list.ID)
		if err != nil {
			return err
		}
		if !removed {
			return models.NewPreconditionError("List is not added")
		}
		if _, err := tx.Memberships.UncompleteList(ctx, userID, list.ID); err != nil {
			return err
		}
		state, err = s.listState(ctx, tx, fx, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// MarkAllInList adds and completes every goal of an added list, paying
// COMPLETE_GOAL once per newly completed goal, then re-derives every list
// that shares one of those goals.
func (s *CompletionService) MarkAllInList(ctx context.Context, userID uint, code string) (*ListState, error) {
	var state *ListState
	err := s.run(ctx, OpMarkAllInList, userID, func(ctx context.Context, tx *repository.Store, fx *effects) error {
		list, err := tx.Lists.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		added, err := tx.Memberships.IsListAdded(ctx, userID, list.ID)
		if err != nil {
			return err
		}
		if !added {
			return models.NewPreconditionError("List is not added")
		}

		goalIDs, err := tx.Lists.GoalIDs(ctx, list.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Memberships.AddGoals(ctx, userID, goalIDs); err != nil {
			return err
		}
		for _, goalID := range goalIDs {
			if _, err := s.completeGoal(ctx, tx, fx, goalID); err != nil {
				return err
			}
		}
		if err := s.recomputeLists(ctx, tx, fx, goalIDs); err != nil {
			return err
		}
		state, err = s.listState(ctx, tx, fx, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// completeGoal inserts the completion and pays for it when it is new.
func (s *CompletionService) completeGoal(ctx context.Context, tx *repository.Store, fx *effects, goalID uint) (bool, error) {
	inserted, err := tx.Memberships.CompleteGoal(ctx, fx.userID, goalID)
	if err != nil || !inserted {
		return false, err
	}
	change, err := s.ledger.Apply(ctx, tx, fx.userID, progression.ActionCompleteGoal)
	if err != nil {
		return false, err
	}
	fx.record(change)
	return true, nil
}

// recomputeLists re-derives list completion for every list holding one of
// goalIDs. A list is complete when it has goals and all of them are
// completed; the transition into that state pays COMPLETE_LIST once, the
// transition out of it removes the completion without a refund.
func (s *CompletionService) recomputeLists(ctx context.Context, tx *repository.Store, fx *effects, goalIDs []uint) error {
	listIDs, err := tx.Lists.IDsContainingGoals(ctx, goalIDs)
	if err != nil {
		return err
	}
	for _, listID := range listIDs {
		completed, total, err := tx.Memberships.ListProgress(ctx, fx.userID, listID)
		if err != nil {
			return err
		}
		if total == 0 || completed < total {
			if _, err := tx.Memberships.UncompleteList(ctx, fx.userID, listID); err != nil {
				return err
			}
			continue
		}

		inserted, err := tx.Memberships.CompleteList(ctx, fx.userID, listID)
		if err != nil {
			return err
		}
		if !inserted {
			continue
		}
		fx.listCompleted(listID)
		change, err := s.ledger.Apply(ctx, tx, fx.userID, progression.ActionCompleteList)
		if err != nil {
			return err
		}
		fx.record(change)
	}
	return nil
}

func (s *CompletionService) goalState(ctx context.Context, tx *repository.Store, fx *effects, goal *models.Goal) (*GoalState, error) {
	added, err := tx.Memberships.IsGoalAdded(ctx, fx.userID, goal.ID)
	if err != nil {
		return nil, err
	}
	completed, err := tx.Memberships.IsGoalCompleted(ctx, fx.userID, goal.ID)
	if err != nil {
		return nil, err
	}
	stats, err := tx.Goals.Stats(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	progress, err := fx.progress(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &GoalState{
		Code:           goal.Code,
		Added:          added,
		Completed:      completed,
		TotalAdded:     stats.TotalAdded,
		TotalCompleted: stats.TotalCompleted,
		Progress:       *progress,
	}, nil
}

func (s *CompletionService) listState(ctx context.Context, tx *repository.Store, fx *effects, list *models.GoalList) (*ListState, error) {
	added, err := tx.Memberships.IsListAdded(ctx, fx.userID, list.ID)
	if err != nil {
		return nil, err
	}
	completed, err := tx.Memberships.IsListCompleted(ctx, fx.userID, list.ID)
	if err != nil {
		return nil, err
	}
	done, total, err := tx.Memberships.ListProgress(ctx, fx.userID, list.ID)
	if err != nil {
		return nil, err
	}
	progress, err := fx.progress(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &ListState{
		Code:           list.Code,
		Added:          added,
		Completed:      completed,
		GoalsCompleted: done,
		GoalsCount:     total,
		Progress:       *progress,
	}, nil
}
