package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/repository"
	"github.com/Cerega32/Bucket-List/internal/storage"
)

const (
	maxTitleLen       = 255
	popularListsLimit = 20
	goalPageLists     = 4
)

// GoalDetail is a goal page as seen by one viewer.
type GoalDetail struct {
	Goal      *models.Goal         `json:"goal"`
	Added     bool                 `json:"added_by_user"`
	Completed bool                 `json:"completed_by_user"`
	Stats     repository.GoalStats `json:"stats"`
	Lists     []models.GoalList    `json:"lists"`
}

// ListGoal is one goal of a list page.
type ListGoal struct {
	models.Goal
	CompletedByUser bool `json:"completed_by_user"`
}

// ListDetail is a list page as seen by one viewer.
type ListDetail struct {
	List           *models.GoalList     `json:"list"`
	Goals          []ListGoal           `json:"goals"`
	Added          bool                 `json:"added_by_user"`
	Completed      bool                 `json:"completed_by_user"`
	GoalsCompleted int64                `json:"user_completed_goals"`
	Stats          repository.ListStats `json:"stats"`
}

// CreateGoalInput is an admin request to add a goal to the catalog.
type CreateGoalInput struct {
	Title         string
	CategoryID    uint
	SubcategoryID *uint
	Complexity    models.Complexity
	Description   string
	Image         *Upload
}

// CreateListInput is an admin request to add a curated list.
type CreateListInput struct {
	Title         string
	CategoryID    uint
	SubcategoryID *uint
	Complexity    models.Complexity
	Description   string
	GoalCodes     []string
	Image         *Upload
}

// CatalogService serves categories, goals and lists.
type CatalogService struct {
	store  *repository.Store
	cache  *cache.Cache
	images uploader
}

func NewCatalogService(store *repository.Store, c *cache.Cache, st storage.Storage, maxUploadBytes int64) *CatalogService {
	return &CatalogService{store: store, cache: c, images: uploader{storage: st, maxBytes: maxUploadBytes}}
}

// Categories returns every category with goal counts, cached until the
// catalog changes.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	key := cache.CategoriesKey(s.cache.Version(ctx, cache.NamespaceCategories))
	err := s.cache.Aside(ctx, cache.NamespaceCategories, key, &categories, cache.CategoriesTTL, func() error {
		var err error
		categories, err = s.store.Categories.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GoalDetail loads a goal with the viewer's flags. viewerID is zero for
// anonymous requests.
func (s *CatalogService) GoalDetail(ctx context.Context, code string, viewerID uint) (*GoalDetail, error) {
	goal, err := s.store.Goals.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	detail := &GoalDetail{Goal: goal}
	if detail.Stats, err = s.store.Goals.Stats(ctx, goal.ID); err != nil {
		return nil, err
	}
	if detail.Lists, err = s.store.Lists.ListsForGoal(ctx, goal.ID, goalPageLists); err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if detail.Added, err = s.store.Memberships.IsGoalAdded(ctx, viewerID, goal.ID); err != nil {
			return nil, err
		}
		if detail.Completed, err = s.store.Memberships.IsGoalCompleted(ctx, viewerID, goal.ID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// ListDetail loads a list with its ordered goals and the viewer's progress.
func (s *CatalogService) ListDetail(ctx context.Context, code string, viewerID uint) (*ListDetail, error) {
	list, err := s.store.Lists.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	goals, err := s.store.Lists.Goals(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	detail := &ListDetail{List: list, Goals: make([]ListGoal, 0, len(goals))}
	if detail.Stats, err = s.store.Lists.Stats(ctx, list.ID); err != nil {
		return nil, err
	}

	done := map[uint]bool{}
	if viewerID != 0 {
		ids := make([]uint, 0, len(goals))
		for _, g := range goals {
			ids = append(ids, g.ID)
		}
		if done, err = s.store.Memberships.CompletedGoalIDs(ctx, viewerID, ids); err != nil {
			return nil, err
		}
		if detail.Added, err = s.store.Memberships.IsListAdded(ctx, viewerID, list.ID); err != nil {
			return nil, err
		}
		if detail.Completed, err = s.store.Memberships.IsListCompleted(ctx, viewerID, list.ID); err != nil {
			return nil, err
		}
	}
	for _, g := range goals {
		detail.Goals = append(detail.Goals, ListGoal{Goal: g, CompletedByUser: done[g.ID]})
		if done[g.ID] {
			detail.GoalsCompleted++
		}
	}
	return detail, nil
}

func (s *CatalogService) ListsByCategory(ctx context.Context, categoryID uint) ([]models.GoalList, error) {
	if _, err := s.store.Categories.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.Lists.ByCategory(ctx, categoryID)
}

func (s *CatalogService) PopularLists(ctx context.Context) ([]models.GoalList, error) {
	return s.store.Lists.Popular(ctx, popularListsLimit)
}

func (s *CatalogService) AddedGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	return s.store.Goals.ListAddedByUser(ctx, userID)
}

func (s *CatalogService) AddedLists(ctx context.Context, userID uint) ([]models.GoalList, error) {
	return s.store.Lists.AddedByUser(ctx, userID)
}

// CreateCategory adds a category or, with a parent, a subcategory.
func (s *CatalogService) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	category.NameEn = strings.TrimSpace(category.NameEn)
	if category.Name == "" || category.NameEn == "" {
		return models.NewValidationError("Name and English name are required")
	}
	if category.ParentCategoryID != nil {
		if _, err := s.store.Categories.GetByID(ctx, *category.ParentCategoryID); err != nil {
			return err
		}
	}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return err
	}
	s.cache.BumpVersion(ctx, cache.NamespaceCategories)
	return nil
}

// CreateGoal validates and stores a goal. Its code is derived from the id
// and title once the row exists.
func (s *CatalogService) CreateGoal(ctx context.Context, in CreateGoalInput) (*models.Goal, error) {
	complexity, err := s.validateEntry(ctx, in.Title, in.CategoryID, in.SubcategoryID, in.Complexity)
	if err != nil {
		return nil, err
	}
	goal := &models.Goal{
		Title:         strings.TrimSpace(in.Title),
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Complexity:    complexity,
		Description:   in.Description,
	}

	key, err := s.storeImage(ctx, FolderGoals, in.Image, &goal.Image)
	if err != nil {
		return nil, err
	}
	if err := s.store.Goals.Create(ctx, goal); err != nil {
		s.images.remove(ctx, key)
		return nil, err
	}
	s.cache.BumpVersion(ctx, cache.NamespaceCategories)
	return goal, nil
}

// CreateList validates and stores a list of existing goals in the given order.
func (s *CatalogService) CreateList(ctx context.Context, in CreateListInput) (*models.GoalList, error) {
	complexity, err := s.validateEntry(ctx, in.Title, in.CategoryID, in.SubcategoryID, in.Complexity)
	if err != nil {
		return nil, err
	}
	if len(in.GoalCodes) == 0 {
		return nil, models.NewValidationError("A list needs at least one goal")
	}
	goalIDs := make([]uint, 0, len(in.GoalCodes))
	seen := make(map[uint]bool, len(in.GoalCodes))
	for _, code := range in.GoalCodes {
		goal, err := s.store.Goals.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if seen[goal.ID] {
			return nil, models.NewValidationError("A goal appears twice in the list")
		}
		seen[goal.ID] = true
		goalIDs = append(goalIDs, goal.ID)
	}

	list := &models.GoalList{
		Title:         strings.TrimSpace(in.Title),
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Complexity:    complexity,
		Description:   in.Description,
	}
	key, err := s.storeImage(ctx, FolderLists, in.Image, &list.Image)
	if err != nil {
		return nil, err
	}
	if err := s.store.Lists.Create(ctx, list, goalIDs); err != nil {
		s.images.remove(ctx, key)
		return nil, err
	}
	return list, nil
}

func (s *CatalogService) validateEntry(ctx context.Context, title string, categoryID uint, subcategoryID *uint, complexity models.Complexity) (models.Complexity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", models.NewValidationError("Title too long (max 255 characters)")
	}
	if complexity == "" {
		complexity = models.ComplexityMedium
	}
	if !complexity.Valid() {
		return "", models.NewValidationError("Complexity must be easy, medium or hard")
	}
	if categoryID == 0 {
		return "", models.NewValidationError("Category is required")
	}
	if _, err := s.store.Categories.GetByID(ctx, categoryID); err != nil {
		return "", err
	}
	if subcategoryID != nil {
		sub, err := s.store.Categories.GetByID(ctx, *subcategoryID)
		if err != nil {
			return "", err
		}
		if sub.ParentCategoryID == nil || *sub.ParentCategoryID != categoryID {
			return "", models.NewValidationError("Subcategory does not belong to the category")
		}
	}
	return complexity, nil
}

func (s *CatalogService) storeImage(ctx context.Context, folder string, up *Upload, dest *string) (string, error) {
	if up == nil {
		return "", nil
	}
	key, url, err := s.images.put(ctx, folder, *up)
	if err != nil {
		return "", err
	}
	*dest = url
	return key, nil
}
