package repository

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository maintains the per-user added and completed sets of
// goals and lists. Insert and delete methods report whether the set changed.
type MembershipRepository interface {
	AddGoal(ctx context.Context, userID, goalID uint) (bool, error)
	// AddGoals adds every goal not yet added and returns how many were new.
	AddGoals(ctx context.Context, userID uint, goalIDs []uint) (int64, error)
	RemoveGoal(ctx context.Context, userID, goalID uint) (bool, error)
	IsGoalAdded(ctx context.Context, userID, goalID uint) (bool, error)

	CompleteGoal(ctx context.Context, userID, goalID uint) (bool, error)
	UncompleteGoal(ctx context.Context, userID, goalID uint) (bool, error)
	IsGoalCompleted(ctx context.Context, userID, goalID uint) (bool, error)
	// CompletedGoalIDs returns the subset of goalIDs the user has completed.
	CompletedGoalIDs(ctx context.Context, userID uint, goalIDs []uint) (map[uint]bool, error)

	AddList(ctx context.Context, userID, listID uint) (bool, error)
	RemoveList(ctx context.Context, userID, listID uint) (bool, error)
	IsListAdded(ctx context.Context, userID, listID uint) (bool, error)

	CompleteList(ctx context.Context, userID, listID uint) (bool, error)
	UncompleteList(ctx context.Context, userID, listID uint) (bool, error)
	IsListCompleted(ctx context.Context, userID, listID uint) (bool, error)

	// ListProgress counts the list's goals and how many of them the user completed.
	ListProgress(ctx context.Context, userID, listID uint) (completed, total int64, err error)

	CountCompletedGoals(ctx context.Context, userID uint) (int64, error)
	CountCompletedLists(ctx context.Context, userID uint) (int64, error)
	// CompletedByCategory counts completed goals per category id.
	CompletedByCategory(ctx context.Context, userID uint) (map[uint]int64, error)
}

type membershipRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *membershipRepository) insert(ctx context.Context, row interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepository) remove(ctx context.Context, model interface{}, column string, userID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND "+column+" = ?", userID, id).
		Delete(model)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepository) exists(ctx context.Context, model interface{}, column string, userID, id uint) (bool, error) {
	var count int64
	if err := r.read.WithContext(ctx).Model(model).
		Where("user_id = ? AND "+column+" = ?", userID, id).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *membershipRepository) AddGoal(ctx context.Context, userID, goalID uint) (bool, error) {
	return r.insert(ctx, &models.GoalAddition{UserID: userID, GoalID: goalID})
}

func (r *membershipRepository) AddGoals(ctx context.Context, userID uint, goalIDs []uint) (int64, error) {
	if len(goalIDs) == 0 {
		return 0, nil
	}
	rows := make([]models.GoalAddition, 0, len(goalIDs))
	for _, id := range goalIDs {
		rows = append(rows, models.GoalAddition{UserID: userID, GoalID: id})
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *membershipRepository) RemoveGoal(ctx context.Context, userID, goalID uint) (bool, error) {
	return r.remove(ctx, &models.GoalAddition{}, "goal_id", userID, goalID)
}

func (r *membershipRepository) IsGoalAdded(ctx context.Context, userID, goalID uint) (bool, error) {
	return r.exists(ctx, &models.GoalAddition{}, "goal_id", userID, goalID)
}

func (r *membershipRepository) CompleteGoal(ctx context.Context, userID, goalID uint) (bool, error) {
	return r.insert(ctx, &models.GoalCompletion{UserID: userID, GoalID: goalID})
}

func (r *membershipRepository) UncompleteGoal(ctx context.Context, userID, goalID uint) (bool, error) {
	return r.remove(ctx, &models.GoalCompletion{}, "goal_id", userID, goalID)
}

func (r *membershipRepository) IsGoalCompleted(ctx context.Context, userID, goalID uint) (bool, error) {
	return r.exists(ctx, &models.GoalCompletion{}, "goal_id", userID, goalID)
}

func (r *membershipRepository) CompletedGoalIDs(ctx context.Context, userID uint, goalIDs []uint) (map[uint]bool, error) {
	done := make(map[uint]bool, len(goalIDs))
	if len(goalIDs) == 0 {
		return done, nil
	}
	var ids []uint
	if err := r.read.WithContext(ctx).Model(&models.GoalCompletion{}).
		Where("user_id = ? AND goal_id IN ?", userID, goalIDs).
		Pluck("goal_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

func (r *membershipRepository) AddList(ctx context.Context, userID, listID uint) (bool, error) {
	return r.insert(ctx, &models.GoalListAddition{UserID: userID, GoalListID: listID})
}

func (r *membershipRepository) RemoveList(ctx context.Context, userID, listID uint) (bool, error) {
	return r.remove(ctx, &models.GoalListAddition{}, "goal_list_id", userID, listID)
}

func (r *membershipRepository) IsListAdded(ctx context.Context, userID, listID uint) (bool, error) {
	return r.exists(ctx, &models.GoalListAddition{}, "goal_list_id", userID, listID)
}

func (r *membershipRepository) CompleteList(ctx context.Context, userID, listID uint) (bool, error) {
	return r.insert(ctx, &models.GoalListCompletion{UserID: userID, GoalListID: listID})
}

func (r *membershipRepository) UncompleteList(ctx context.Context, userID, listID uint) (bool, error) {
	return r.remove(ctx, &models.GoalListCompletion{}, "goal_list_id", userID, listID)
}

func (r *membershipRepository) IsListCompleted(ctx context.Context, userID, listID uint) (bool, error) {
	return r.exists(ctx, &models.GoalListCompletion{}, "goal_list_id", userID, listID)
}

func (r *membershipRepository) ListProgress(ctx context.Context, userID, listID uint) (int64, int64, error) {
	var row struct {
		Total     int64
		Completed int64
	}
	err := r.read.WithContext(ctx).Model(&models.GoalListItem{}).
		Select("COUNT(*) AS total, COUNT(goal_completions.goal_id) AS completed").
		Joins("LEFT JOIN goal_completions ON goal_completions.goal_id = goal_list_items.goal_id AND goal_completions.user_id = ?", userID).
		Where("goal_list_items.goal_list_id = ?", listID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return row.Completed, row.Total, nil
}

func (r *membershipRepository) CountCompletedGoals(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.read.WithContext(ctx).Model(&models.GoalCompletion{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *membershipRepository) CountCompletedLists(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.read.WithContext(ctx).Model(&models.GoalListCompletion{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *membershipRepository) CompletedByCategory(ctx context.Context, userID uint) (map[uint]int64, error) {
	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := r.read.WithContext(ctx).Model(&models.GoalCompletion{}).
		Select("goals.category_id AS category_id, COUNT(*) AS total").
		Joins("JOIN goals ON goals.id = goal_completions.goal_id").
		Where("goal_completions.user_id = ?", userID).
		Group("goals.category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.CategoryID] = row.Total
	}
	return out, nil
}
