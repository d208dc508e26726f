package server

import (
	"github.com/Cerega32/Bucket-List/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetGoal handles GET /api/goals/:code
func (s *Server) GetGoal(c *fiber.Ctx) error {
	detail, err := s.catalog.GoalDetail(c.UserContext(), c.Params("code"), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(detail)
}

// AddGoal handles POST /api/goals/:code/add
func (s *Server) AddGoal(c *fiber.Ctx) error {
	state, err := s.completion.AddGoal(c.UserContext(), currentUserID(c), c.Params("code"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// RemoveGoal handles POST /api/goals/:code/remove
func (s *Server) RemoveGoal(c *fiber.Ctx) error {
	state, err := s.completion.RemoveGoal(c.UserContext(), currentUserID(c), c.Params("code"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// MarkGoal handles POST /api/goals/:code/mark with body {"done": bool}.
func (s *Server) MarkGoal(c *fiber.Ctx) error {
	var req struct {
		Done *bool `json:"done"`
	}
	if err := c.BodyParser(&req); err != nil || req.Done == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Field 'done' is required"))
	}

	state, err := s.completion.MarkGoal(c.UserContext(), currentUserID(c), c.Params("code"), *req.Done)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// GetCategories handles GET /api/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.catalog.Categories(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(categories)
}

// GetAddedGoals handles GET /api/self/added-goals
func (s *Server) GetAddedGoals(c *fiber.Ctx) error {
	goals, err := s.catalog.AddedGoals(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(goals)
}
