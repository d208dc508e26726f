package repository

import (
	"context"
	"time"

	"github.com/Cerega32/Bucket-List/internal/models"

	"gorm.io/gorm"
)

// LeaderRow is one user's activity inside a window.
type LeaderRow struct {
	UserID           uint
	GoalsCompleted   int64
	Comments         int64
	ExperienceEarned int64
}

// LeaderboardRepository aggregates per-user activity.
type LeaderboardRepository interface {
	// Activity returns a row for every user with any goal completion,
	// comment or experience event since the given instant.
	Activity(ctx context.Context, since time.Time) ([]LeaderRow, error)
}

type leaderboardRepository struct {
	read *gorm.DB
}

type userTotal struct {
	UserID uint
	Total  int64
}

func (r *leaderboardRepository) Activity(ctx context.Context, since time.Time) ([]LeaderRow, error) {
	db := r.read.WithContext(ctx)

	var goals, comments, experience []userTotal
	if err := db.Model(&models.GoalCompletion{}).
		Select("user_id, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("user_id").
		Scan(&goals).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Comment{}).
		Select("user_id, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("user_id").
		Scan(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.ExperienceEvent{}).
		Select("user_id, COALESCE(SUM(amount), 0) AS total").
		Where("created_at >= ?", since).
		Group("user_id").
		Scan(&experience).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	byUser := map[uint]*LeaderRow{}
	row := func(id uint) *LeaderRow {
		if existing, ok := byUser[id]; ok {
			return existing
		}
		created := &LeaderRow{UserID: id}
		byUser[id] = created
		return created
	}
	for _, t := range goals {
		row(t.UserID).GoalsCompleted = t.Total
	}
	for _, t := range comments {
		row(t.UserID).Comments = t.Total
	}
	for _, t := range experience {
		row(t.UserID).ExperienceEarned = t.Total
	}

	out := make([]LeaderRow, 0, len(byUser))
	for _, r := range byUser {
		out = append(out, *r)
	}
	return out, nil
}
