// Package seed loads the built-in catalog and optional demo activity into
// the database. It is meant for development and first deployments.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/progression"
	"github.com/Cerega32/Bucket-List/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the YAML document describing built-in content. Goals and lists
// reference categories by name_en and lists reference goals by title.
type Catalog struct {
	Categories   []CategorySpec    `yaml:"categories"`
	Goals        []EntrySpec       `yaml:"goals"`
	Lists        []EntrySpec       `yaml:"lists"`
	Achievements []AchievementSpec `yaml:"achievements"`
}

type CategorySpec struct {
	Name          string         `yaml:"name"`
	NameEn        string         `yaml:"name_en"`
	Icon          string         `yaml:"icon"`
	Subcategories []CategorySpec `yaml:"subcategories"`
}

// EntrySpec describes a goal or, with Goals set, a list.
type EntrySpec struct {
	Title       string   `yaml:"title"`
	Category    string   `yaml:"category"`
	Subcategory string   `yaml:"subcategory"`
	Complexity  string   `yaml:"complexity"`
	Description string   `yaml:"description"`
	Goals       []string `yaml:"goals"`
}

type AchievementSpec struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Condition   ConditionSpec `yaml:"condition"`
}

// ConditionSpec mirrors progression.Condition with the category given by
// name_en instead of id.
type ConditionSpec struct {
	Kind     string `yaml:"kind"`
	Value    int64  `yaml:"value"`
	Category string `yaml:"category"`
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// CatalogStats counts the rows a LoadCatalog call created.
type CatalogStats struct {
	Categories   int
	Goals        int
	Lists        int
	Achievements int
}

// LoadCatalog inserts everything in c that is not present yet, in one
// transaction. Existing rows are left untouched.
func LoadCatalog(ctx context.Context, db *gorm.DB, c *Catalog) (CatalogStats, error) {
	var stats CatalogStats
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l := &loader{
			tx:         tx,
			store:      repository.NewStore(tx),
			categories: make(map[string]uint),
			goals:      make(map[string]uint),
			stats:      &stats,
		}
		for _, spec := range c.Categories {
			if err := l.category(ctx, spec, nil); err != nil {
				return err
			}
		}
		for _, spec := range c.Goals {
			if err := l.goal(ctx, spec); err != nil {
				return err
			}
		}
		for _, spec := range c.Lists {
			if err := l.list(ctx, spec); err != nil {
				return err
			}
		}
		for _, spec := range c.Achievements {
			if err := l.achievement(ctx, spec); err != nil {
				return err
			}
		}
		return nil
	})
	return stats, err
}

type loader struct {
	tx         *gorm.DB
	store      *repository.Store
	categories map[string]uint
	goals      map[string]uint
	stats      *CatalogStats
}

func (l *loader) category(ctx context.Context, spec CategorySpec, parentID *uint) error {
	category := models.Category{
		Name:             spec.Name,
		NameEn:           spec.NameEn,
		Icon:             spec.Icon,
		ParentCategoryID: parentID,
	}
	res := l.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_en"}},
		DoNothing: true,
	}).Create(&category)
	if res.Error != nil {
		return fmt.Errorf("seed category %s: %w", spec.NameEn, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := l.tx.Where("name_en = ?", spec.NameEn).First(&category).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", spec.NameEn, err)
		}
	} else {
		l.stats.Categories++
	}
	l.categories[spec.NameEn] = category.ID

	for _, sub := range spec.Subcategories {
		if err := l.category(ctx, sub, &category.ID); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) placement(spec EntrySpec) (uint, *uint, error) {
	categoryID, ok := l.categories[spec.Category]
	if !ok {
		return 0, nil, fmt.Errorf("%q references unknown category %q", spec.Title, spec.Category)
	}
	if spec.Subcategory == "" {
		return categoryID, nil, nil
	}
	subID, ok := l.categories[spec.Subcategory]
	if !ok {
		return 0, nil, fmt.Errorf("%q references unknown subcategory %q", spec.Title, spec.Subcategory)
	}
	return categoryID, &subID, nil
}

func complexityOf(raw string) models.Complexity {
	c := models.Complexity(raw)
	if !c.Valid() {
		return models.ComplexityMedium
	}
	return c
}

// existing looks up a row of model by title and reports whether it exists.
func (l *loader) existing(model any, title string) (bool, error) {
	err := l.tx.Where("title = ?", title).First(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (l *loader) goal(ctx context.Context, spec EntrySpec) error {
	var goal models.Goal
	found, err := l.existing(&goal, spec.Title)
	if err != nil {
		return fmt.Errorf("seed goal %q: %w", spec.Title, err)
	}
	if !found {
		categoryID, subID, err := l.placement(spec)
		if err != nil {
			return err
		}
		goal = models.Goal{
			Title:         spec.Title,
			CategoryID:    categoryID,
			SubcategoryID: subID,
			Complexity:    complexityOf(spec.Complexity),
			Description:   spec.Description,
		}
		if err := l.store.Goals.Create(ctx, &goal); err != nil {
			return fmt.Errorf("seed goal %q: %w", spec.Title, err)
		}
		l.stats.Goals++
	}
	l.goals[spec.Title] = goal.ID
	return nil
}

func (l *loader) list(ctx context.Context, spec EntrySpec) error {
	var list models.GoalList
	found, err := l.existing(&list, spec.Title)
	if err != nil || found {
		return err
	}

	categoryID, subID, err := l.placement(spec)
	if err != nil {
		return err
	}
	goalIDs := make([]uint, 0, len(spec.Goals))
	for _, title := range spec.Goals {
		id, ok := l.goals[title]
		if !ok {
			return fmt.Errorf("list %q references unknown goal %q", spec.Title, title)
		}
		goalIDs = append(goalIDs, id)
	}

	list = models.GoalList{
		Title:         spec.Title,
		CategoryID:    categoryID,
		SubcategoryID: subID,
		Complexity:    complexityOf(spec.Complexity),
		Description:   spec.Description,
	}
	if err := l.store.Lists.Create(ctx, &list, goalIDs); err != nil {
		return fmt.Errorf("seed list %q: %w", spec.Title, err)
	}
	l.stats.Lists++
	return nil
}

func (l *loader) achievement(ctx context.Context, spec AchievementSpec) error {
	var achievement models.Achievement
	found, err := l.existing(&achievement, spec.Title)
	if err != nil || found {
		return err
	}

	condition := progression.Condition{Kind: spec.Condition.Kind, Value: spec.Condition.Value}
	if spec.Condition.Category != "" {
		id, ok := l.categories[spec.Condition.Category]
		if !ok {
			return fmt.Errorf("achievement %q references unknown category %q", spec.Title, spec.Condition.Category)
		}
		condition.CategoryID = id
	}
	raw, err := json.Marshal(condition)
	if err != nil {
		return err
	}

	achievement = models.Achievement{
		Title:       spec.Title,
		Description: spec.Description,
		Condition:   datatypes.JSON(raw),
	}
	if err := l.store.Achievements.Create(ctx, &achievement); err != nil {
		return fmt.Errorf("seed achievement %q: %w", spec.Title, err)
	}
	l.stats.Achievements++
	return nil
}
