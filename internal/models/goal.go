package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Complexity is the perceived difficulty of a goal or list.
type Complexity string

const (
	ComplexityEasy   Complexity = "easy"
	ComplexityMedium Complexity = "medium"
	ComplexityHard   Complexity = "hard"
)

// Valid reports whether c is one of the known complexities.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityEasy, ComplexityMedium, ComplexityHard:
		return true
	}
	return false
}

// ShortDescriptionLength caps the derived short description, in runes.
const ShortDescriptionLength = 200

// Goal is a single trackable objective.
type Goal struct {
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

// BeforeCreate reserves a unique placeholder code until the id is known.
func (g *Goal) BeforeCreate(_ *gorm.DB) error {
	if g.Code == "" {
		g.Code = pendingCode()
	}
	return nil
}

// BeforeSave recomputes the short description on every write.
func (g *Goal) BeforeSave(_ *gorm.DB) error {
	g.ShortDescription = ShortDescription(g.Description)
	return nil
}

// AfterCreate assigns the permanent "{id}-{slug}" code.
func (g *Goal) AfterCreate(tx *gorm.DB) error {
	if !isPendingCode(g.Code) {
		return nil
	}
	g.Code = EntityCode(g.ID, g.Title)
	return tx.Model(g).UpdateColumn("code", g.Code).Error
}

// EntityCode builds the immutable public code of a goal or list.
// Titles are transliterated, so Cyrillic input yields ASCII codes.
func EntityCode(id uint, title string) string {
	s := slug.Make(title)
	if s == "" {
		return fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%d-%s", id, s)
}

// ShortDescription returns at most the first ShortDescriptionLength runes of description.
func ShortDescription(description string) string {
	if utf8.RuneCountInString(description) <= ShortDescriptionLength {
		return description
	}
	runes := []rune(description)
	return string(runes[:ShortDescriptionLength])
}

const pendingCodePrefix = "pending-"

func pendingCode() string {
	return pendingCodePrefix + uuid.NewString()
}

func isPendingCode(code string) bool {
	return strings.HasPrefix(code, pendingCodePrefix)
}
