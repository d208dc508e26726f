package models

import (
	"time"

	"gorm.io/gorm"
)

// GoalList is a curated, ordered bundle of goals.
type GoalList struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Code             string     `gorm:"size:255;uniqueIndex;not null" json:"code"`
	CategoryID       uint       `gorm:"not null;index" json:"category_id"`
	Category         *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SubcategoryID    *uint      `gorm:"index" json:"subcategory_id,omitempty"`
	Subcategory      *Category  `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	Complexity       Complexity `gorm:"size:10;not null;default:'medium'" json:"complexity"`
	Image            string     `json:"image"`
	Description      string     `gorm:"type:text" json:"description"`
	ShortDescription string     `gorm:"size:200" json:"short_description"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (l *GoalList) BeforeCreate(_ *gorm.DB) error {
	if l.Code == "" {
		l.Code = pendingCode()
	}
	return nil
}

func (l *GoalList) BeforeSave(_ *gorm.DB) error {
	l.ShortDescription = ShortDescription(l.Description)
	return nil
}

func (l *GoalList) AfterCreate(tx *gorm.DB) error {
	if !isPendingCode(l.Code) {
		return nil
	}
	l.Code = EntityCode(l.ID, l.Title)
	return tx.Model(l).UpdateColumn("code", l.Code).Error
}

// GoalListItem places a goal at a position inside a list.
type GoalListItem struct {
	GoalListID uint  `gorm:"primaryKey;autoIncrement:false" json:"goal_list_id"`
	GoalID     uint  `gorm:"primaryKey;autoIncrement:false;index" json:"goal_id"`
	Goal       *Goal `gorm:"foreignKey:GoalID" json:"goal,omitempty"`
	Position   int   `gorm:"not null;default:0" json:"position"`
}
