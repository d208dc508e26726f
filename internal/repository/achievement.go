package repository

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementRepository defines persistence operations for achievements and
// their grants.
type AchievementRepository interface {
	List(ctx context.Context) ([]models.Achievement, error)
	GetByID(ctx context.Context, id uint) (*models.Achievement, error)
	Create(ctx context.Context, achievement *models.Achievement) error
	// ListNotGrantedTo returns the achievements the user does not hold yet.
	ListNotGrantedTo(ctx context.Context, userID uint) ([]models.Achievement, error)
	ListGrantedTo(ctx context.Context, userID uint) ([]models.GrantedAchievement, error)
	IsGranted(ctx context.Context, userID, achievementID uint) (bool, error)
	// Grant records the grants and returns how many were new.
	Grant(ctx context.Context, userID uint, achievementIDs ...uint) (int64, error)
}

type achievementRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *achievementRepository) List(ctx context.Context) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := r.read.WithContext(ctx).Order("id ASC").Find(&achievements).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return achievements, nil
}

func (r *achievementRepository) GetByID(ctx context.Context, id uint) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := r.read.WithContext(ctx).First(&achievement, id).Error; err != nil {
		return nil, notFoundOr(err, "Achievement", id)
	}
	return &achievement, nil
}

func (r *achievementRepository) Create(ctx context.Context, achievement *models.Achievement) error {
	if err := r.db.WithContext(ctx).Create(achievement).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *achievementRepository) ListNotGrantedTo(ctx context.Context, userID uint) ([]models.Achievement, error) {
	var achievements []models.Achievement
	held := r.read.Model(&models.AchievementGrant{}).
		Select("achievement_id").
		Where("user_id = ?", userID)
	if err := r.read.WithContext(ctx).
		Where("id NOT IN (?)", held).
		Order("id ASC").
		Find(&achievements).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return achievements, nil
}

func (r *achievementRepository) ListGrantedTo(ctx context.Context, userID uint) ([]models.GrantedAchievement, error) {
	var grants []models.AchievementGrant
	if err := r.read.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("created_at DESC, achievement_id ASC").
		Find(&grants).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	out := make([]models.GrantedAchievement, 0, len(grants))
	for _, g := range grants {
		if g.Achievement == nil {
			continue
		}
		out = append(out, models.GrantedAchievement{Achievement: *g.Achievement, GrantedAt: g.CreatedAt})
	}
	return out, nil
}

func (r *achievementRepository) IsGranted(ctx context.Context, userID, achievementID uint) (bool, error) {
	var count int64
	if err := r.read.WithContext(ctx).Model(&models.AchievementGrant{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *achievementRepository) Grant(ctx context.Context, userID uint, achievementIDs ...uint) (int64, error) {
	if len(achievementIDs) == 0 {
		return 0, nil
	}
	rows := make([]models.AchievementGrant, 0, len(achievementIDs))
	for _, id := range achievementIDs {
		rows = append(rows, models.AchievementGrant{UserID: userID, AchievementID: id})
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
