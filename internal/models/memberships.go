package models

import "time"

// GoalAddition records that a user added a goal.
type GoalAddition struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	GoalID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"goal_id"`
	Goal      *Goal     `gorm:"foreignKey:GoalID" json:"goal,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GoalCompletion records that a user completed a goal.
type GoalCompletion struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	GoalID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"goal_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// GoalListAddition records that a user added a list.
type GoalListAddition struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	GoalListID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"goal_list_id"`
	GoalList   *GoalList `gorm:"foreignKey:GoalListID" json:"goal_list,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GoalListCompletion records that every goal of a list is completed by the user.
type GoalListCompletion struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	GoalListID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"goal_list_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AchievementGrant records that a user holds an achievement. Grants are never
// removed by evaluation.
type AchievementGrant struct {
	UserID        uint         `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	AchievementID uint         `gorm:"primaryKey;autoIncrement:false;index" json:"achievement_id"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
