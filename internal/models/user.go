// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/Cerega32/Bucket-List/internal/progression"
	"gorm.io/gorm"
)

// User represents a registered account.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Bio       string `gorm:"type:text" json:"bio"`
	Avatar    string `json:"avatar"`
	Cover     string `json:"cover"`
	IsAdmin   bool   `gorm:"default:false" json:"is_admin"`

	// Experience is the only persisted progression value.
	Experience int `gorm:"not null;default:0" json:"experience"`
	// Level and NextLevelExperience are derived from Experience after every load.
	Level               int `gorm:"-" json:"level"`
	NextLevelExperience int `gorm:"-" json:"next_level_experience"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshProgression recomputes the derived level fields from Experience.
func (u *User) RefreshProgression() {
	u.Level = progression.LevelFor(u.Experience)
	u.NextLevelExperience = progression.ExperienceToNextLevel(u.Experience)
}

// AfterFind keeps derived fields in sync with whatever was loaded.
func (u *User) AfterFind(_ *gorm.DB) error {
	u.RefreshProgression()
	return nil
}

// AfterSave refreshes the derived fields after create and update.
func (u *User) AfterSave(_ *gorm.DB) error {
	u.RefreshProgression()
	return nil
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
	Level     int    `json:"level"`
}

// Summary projects u for embedding.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Level:     progression.LevelFor(u.Experience),
	}
}
