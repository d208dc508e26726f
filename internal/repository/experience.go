package repository

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/models"

	"gorm.io/gorm"
)

// ExperienceRepository appends to the experience ledger.
type ExperienceRepository interface {
	Append(ctx context.Context, event *models.ExperienceEvent) error
}

type experienceRepository struct {
	db *gorm.DB
}

func (r *experienceRepository) Append(ctx context.Context, event *models.ExperienceEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
