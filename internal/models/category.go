package models

import "time"

// Category groups goals and lists. A category with a parent is a subcategory.
type Category struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	NameEn           string    `gorm:"size:255;uniqueIndex;not null" json:"name_en"`
	ParentCategoryID *uint     `gorm:"index" json:"parent_category_id,omitempty"`
	ParentCategory   *Category `gorm:"foreignKey:ParentCategoryID" json:"parent_category,omitempty"`
	Image            string    `json:"image"`
	Icon             string    `json:"icon"`
	// GoalCount is not persisted; computed at query time
	GoalCount int       `gorm:"->;-:migration" json:"goal_count"`
	CreatedAt time.Time `json:"created_at"`
}
