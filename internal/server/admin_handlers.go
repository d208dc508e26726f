package server

import (
	"strings"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/service"

	"github.com/gofiber/fiber/v2"
)

// catalogEntryRequest is the shared body of goal and list creation. Fields
// arrive either as JSON or as multipart form values next to an "image" file.
type catalogEntryRequest struct {
	Title         string   `json:"title" form:"title"`
	CategoryID    uint     `json:"category_id" form:"category_id"`
	SubcategoryID *uint    `json:"subcategory_id" form:"subcategory_id"`
	Complexity    string   `json:"complexity" form:"complexity"`
	Description   string   `json:"description" form:"description"`
	GoalCodes     []string `json:"goal_codes" form:"goal_codes"`
}

func (s *Server) parseCatalogEntry(c *fiber.Ctx) (catalogEntryRequest, error) {
	var req catalogEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return req, models.NewValidationError("Invalid request body")
	}
	// Multipart clients may send goal_codes as one comma-separated value.
	if len(req.GoalCodes) == 1 && strings.Contains(req.GoalCodes[0], ",") {
		var codes []string
		for _, code := range strings.Split(req.GoalCodes[0], ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
		req.GoalCodes = codes
	}
	return req, nil
}

// CreateCategory handles POST /api/admin/categories
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name             string `json:"name"`
		NameEn           string `json:"name_en"`
		ParentCategoryID *uint  `json:"parent_category_id"`
		Icon             string `json:"icon"`
		Image            string `json:"image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	category := &models.Category{
		Name:             req.Name,
		NameEn:           req.NameEn,
		ParentCategoryID: req.ParentCategoryID,
		Icon:             req.Icon,
		Image:            req.Image,
	}
	if err := s.catalog.CreateCategory(c.UserContext(), category); err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// CreateGoal handles POST /api/admin/goals
func (s *Server) CreateGoal(c *fiber.Ctx) error {
	req, err := s.parseCatalogEntry(c)
	if err != nil {
		return models.Respond(c, err)
	}
	image, closeFn, err := singleUpload(c, "image")
	defer closeFn()
	if err != nil {
		return models.Respond(c, err)
	}

	goal, err := s.catalog.CreateGoal(c.UserContext(), service.CreateGoalInput{
		Title:         req.Title,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Complexity:    models.Complexity(req.Complexity),
		Description:   req.Description,
		Image:         image,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// CreateGoalList handles POST /api/admin/goal-lists
func (s *Server) CreateGoalList(c *fiber.Ctx) error {
	req, err := s.parseCatalogEntry(c)
	if err != nil {
		return models.Respond(c, err)
	}
	image, closeFn, err := singleUpload(c, "image")
	defer closeFn()
	if err != nil {
		return models.Respond(c, err)
	}

	list, err := s.catalog.CreateList(c.UserContext(), service.CreateListInput{
		Title:         req.Title,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Complexity:    models.Complexity(req.Complexity),
		Description:   req.Description,
		GoalCodes:     req.GoalCodes,
		Image:         image,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}
