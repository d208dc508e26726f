package models

import "time"

// ReactionKind is either a like or a dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Comment is a user's note on a goal.
type Comment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	GoalID     uint           `gorm:"not null;index" json:"goal_id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"-"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	Complexity *Complexity    `gorm:"size:10" json:"complexity,omitempty"`
	Photos     []CommentPhoto `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"photos"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CommentPhoto is an image attached to a comment. Photos are owned by the
// comment and deleted with it.
type CommentPhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;index" json:"comment_id"`
	URL       string    `gorm:"not null" json:"url"`
	Key       string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentReaction is one user's like or dislike. The composite key makes the
// two mutually exclusive.
type CommentReaction struct {
	CommentID uint         `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint         `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Kind      ReactionKind `gorm:"size:10;not null" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

// CommentView is a comment as rendered to a viewer.
type CommentView struct {
	ID                   uint           `json:"id"`
	GoalID               uint           `json:"goal_id"`
	Text                 string         `json:"text"`
	Complexity           *Complexity    `json:"complexity,omitempty"`
	Author               UserSummary    `json:"author"`
	AuthorCompletedGoals int64          `json:"user_total_completed_goals"`
	Photos               []CommentPhoto `json:"photos"`
	LikesCount           int64          `json:"likes_count"`
	DislikesCount        int64          `json:"dislikes_count"`
	HasLiked             bool           `json:"has_liked"`
	HasDisliked          bool           `json:"has_disliked"`
	CreatedAt            time.Time      `json:"created_at"`
}

// ReactionScore is the state of a comment after a reaction toggle.
type ReactionScore struct {
	LikesCount    int64 `json:"likes_count"`
	DislikesCount int64 `json:"dislikes_count"`
	HasLiked      bool  `json:"has_liked"`
	HasDisliked   bool  `json:"has_disliked"`
}
