package models

import "time"

// ExperienceEvent is one append-only ledger entry. Amount is negative for
// revocations.
type ExperienceEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_experience_events_user_created" json:"user_id"`
	Action    string    `gorm:"size:32;not null" json:"action"`
	Amount    int       `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"index:idx_experience_events_user_created" json:"created_at"`
}
