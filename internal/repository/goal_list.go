package repository

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/models"

	"gorm.io/gorm"
)

// ListStats are the public counters shown on a list page.
type ListStats struct {
	GoalsCount     int64 `json:"goals_count"`
	TotalAdded     int64 `json:"total_added"`
	TotalCompleted int64 `json:"total_completed"`
}

// GoalListRepository defines persistence operations for goal lists.
type GoalListRepository interface {
	GetByCode(ctx context.Context, code string) (*models.GoalList, error)
	// Create inserts the list and its items; goalIDs keep their order.
	Create(ctx context.Context, list *models.GoalList, goalIDs []uint) error
	GoalIDs(ctx context.Context, listID uint) ([]uint, error)
	Goals(ctx context.Context, listID uint) ([]models.Goal, error)
	// IDsContainingGoals returns every list holding at least one of goalIDs.
	IDsContainingGoals(ctx context.Context, goalIDs []uint) ([]uint, error)
	ListsForGoal(ctx context.Context, goalID uint, limit int) ([]models.GoalList, error)
	ByCategory(ctx context.Context, categoryID uint) ([]models.GoalList, error)
	Popular(ctx context.Context, limit int) ([]models.GoalList, error)
	AddedByUser(ctx context.Context, userID uint) ([]models.GoalList, error)
	Stats(ctx context.Context, listID uint) (ListStats, error)
}

type goalListRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *goalListRepository) GetByCode(ctx context.Context, code string) (*models.GoalList, error) {
	var list models.GoalList
	if err := r.read.WithContext(ctx).
		Preload("Category").
		Preload("Subcategory").
		Where("code = ?", code).
		First(&list).Error; err != nil {
		return nil, notFoundOr(err, "Goal list", code)
	}
	return &list, nil
}

func (r *goalListRepository) Create(ctx context.Context, list *models.GoalList, goalIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(list).Error; err != nil {
			return err
		}
		if len(goalIDs) == 0 {
			return nil
		}
		items := make([]models.GoalListItem, 0, len(goalIDs))
		for i, id := range goalIDs {
			items = append(items, models.GoalListItem{GoalListID: list.ID, GoalID: id, Position: i})
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A goal appears twice in the list")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *goalListRepository) GoalIDs(ctx context.Context, listID uint) ([]uint, error) {
	var ids []uint
	if err := r.read.WithContext(ctx).Model(&models.GoalListItem{}).
		Where("goal_list_id = ?", listID).
		Order("position ASC").
		Pluck("goal_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *goalListRepository) Goals(ctx context.Context, listID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.read.WithContext(ctx).
		Joins("JOIN goal_list_items ON goal_list_items.goal_id = goals.id").
		Where("goal_list_items.goal_list_id = ?", listID).
		Preload("Category").
		Order("goal_list_items.position ASC, goals.id ASC").
		Find(&goals).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return goals, nil
}

func (r *goalListRepository) IDsContainingGoals(ctx context.Context, goalIDs []uint) ([]uint, error) {
	var ids []uint
	if len(goalIDs) == 0 {
		return ids, nil
	}
	if err := r.read.WithContext(ctx).Model(&models.GoalListItem{}).
		Distinct("goal_list_id").
		Where("goal_id IN ?", goalIDs).
		Order("goal_list_id ASC").
		Pluck("goal_list_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *goalListRepository) ListsForGoal(ctx context.Context, goalID uint, limit int) ([]models.GoalList, error) {
	var lists []models.GoalList
	err := r.read.WithContext(ctx).
		Joins("JOIN goal_list_items ON goal_list_items.goal_list_id = goal_lists.id").
		Where("goal_list_items.goal_id = ?", goalID).
		Order("goal_lists.id ASC").
		Limit(limit).
		Find(&lists).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return lists, nil
}

func (r *goalListRepository) ByCategory(ctx context.Context, categoryID uint) ([]models.GoalList, error) {
	var lists []models.GoalList
	err := r.read.WithContext(ctx).
		Where("category_id = ? OR subcategory_id = ?", categoryID, categoryID).
		Preload("Category").
		Order("id ASC").
		Find(&lists).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return lists, nil
}

// Popular orders lists by how many users added them.
func (r *goalListRepository) Popular(ctx context.Context, limit int) ([]models.GoalList, error) {
	var lists []models.GoalList
	err := r.read.WithContext(ctx).
		Select("goal_lists.*, (SELECT COUNT(*) FROM goal_list_additions a WHERE a.goal_list_id = goal_lists.id) AS added_count").
		Preload("Category").
		Order("added_count DESC, goal_lists.id ASC").
		Limit(limit).
		Find(&lists).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return lists, nil
}

func (r *goalListRepository) AddedByUser(ctx context.Context, userID uint) ([]models.GoalList, error) {
	var lists []models.GoalList
	err := r.read.WithContext(ctx).
		Joins("JOIN goal_list_additions ON goal_list_additions.goal_list_id = goal_lists.id").
		Where("goal_list_additions.user_id = ?", userID).
		Preload("Category").
		Order("goal_list_additions.created_at DESC, goal_lists.id DESC").
		Find(&lists).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return lists, nil
}

func (r *goalListRepository) Stats(ctx context.Context, listID uint) (ListStats, error) {
	var stats ListStats
	db := r.read.WithContext(ctx)
	if err := db.Model(&models.GoalListItem{}).Where("goal_list_id = ?", listID).Count(&stats.GoalsCount).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.GoalListAddition{}).Where("goal_list_id = ?", listID).Count(&stats.TotalAdded).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.GoalListCompletion{}).Where("goal_list_id = ?", listID).Count(&stats.TotalCompleted).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	return stats, nil
}
