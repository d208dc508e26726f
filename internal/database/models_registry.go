package database

import "github.com/Cerega32/Bucket-List/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Goal{},
		&models.GoalList{},
		&models.GoalListItem{},
		&models.GoalAddition{},
		&models.GoalCompletion{},
		&models.GoalListAddition{},
		&models.GoalListCompletion{},
		&models.Achievement{},
		&models.AchievementGrant{},
		&models.Comment{},
		&models.CommentPhoto{},
		&models.CommentReaction{},
		&models.ExperienceEvent{},
	}
}
