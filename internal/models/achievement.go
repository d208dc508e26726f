package models

import (
	"time"

	"gorm.io/datatypes"
)

// Achievement is a badge granted once its condition holds for a user.
// Condition is a JSON descriptor interpreted by progression.ConditionRegistry.
type Achievement struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Image       string         `json:"image"`
	Condition   datatypes.JSON `json:"condition,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// GrantedAchievement is an achievement together with when the user received it.
type GrantedAchievement struct {
	Achievement
	GrantedAt time.Time `json:"granted_at"`
}
