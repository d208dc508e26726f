package repository

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/models"

	"gorm.io/gorm"
)

// GoalStats are the public counters shown on a goal page.
type GoalStats struct {
	TotalAdded     int64 `json:"total_added"`
	TotalCompleted int64 `json:"total_completed"`
	ListsCount     int64 `json:"lists_count"`
}

// GoalRepository defines persistence operations for goals.
type GoalRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Goal, error)
	Create(ctx context.Context, goal *models.Goal) error
	ListAddedByUser(ctx context.Context, userID uint) ([]models.Goal, error)
	Stats(ctx context.Context, goalID uint) (GoalStats, error)
}

type goalRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *goalRepository) GetByCode(ctx context.Context, code string) (*models.Goal, error) {
	var goal models.Goal
	if err := r.read.WithContext(ctx).
		Preload("Category").
		Preload("Subcategory").
		Where("code = ?", code).
		First(&goal).Error; err != nil {
		return nil, notFoundOr(err, "Goal", code)
	}
	return &goal, nil
}

func (r *goalRepository) Create(ctx context.Context, goal *models.Goal) error {
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListAddedByUser returns the user's goals, most recently added first.
func (r *goalRepository) ListAddedByUser(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.read.WithContext(ctx).
		Joins("JOIN goal_additions ON goal_additions.goal_id = goals.id").
		Where("goal_additions.user_id = ?", userID).
		Preload("Category").
		Order("goal_additions.created_at DESC, goals.id DESC").
		Find(&goals).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return goals, nil
}

func (r *goalRepository) Stats(ctx context.Context, goalID uint) (GoalStats, error) {
	var stats GoalStats
	db := r.read.WithContext(ctx)
	if err := db.Model(&models.GoalAddition{}).Where("goal_id = ?", goalID).Count(&stats.TotalAdded).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.GoalCompletion{}).Where("goal_id = ?", goalID).Count(&stats.TotalCompleted).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.GoalListItem{}).Where("goal_id = ?", goalID).Count(&stats.ListsCount).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	return stats, nil
}
