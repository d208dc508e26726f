package server

import (
	"github.com/Cerega32/Bucket-List/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetGoalList handles GET /api/goal-lists/:code
func (s *Server) GetGoalList(c *fiber.Ctx) error {
	detail, err := s.catalog.ListDetail(c.UserContext(), c.Params("code"), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(detail)
}

// AddGoalList handles POST /api/goal-lists/:code/add
func (s *Server) AddGoalList(c *fiber.Ctx) error {
	state, err := s.completion.AddList(c.UserContext(), currentUserID(c), c.Params("code"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// RemoveGoalList handles POST /api/goal-lists/:code/remove
func (s *Server) RemoveGoalList(c *fiber.Ctx) error {
	state, err := s.completion.RemoveList(c.UserContext(), currentUserID(c), c.Params("code"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// MarkAllInList handles POST /api/goal-lists/:code/mark-all
func (s *Server) MarkAllInList(c *fiber.Ctx) error {
	state, err := s.completion.MarkAllInList(c.UserContext(), currentUserID(c), c.Params("code"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// GetListsByCategory handles GET /api/goal-lists/category/:categoryId
func (s *Server) GetListsByCategory(c *fiber.Ctx) error {
	categoryID, err := s.parseID(c, "categoryId")
	if err != nil {
		return nil
	}
	lists, err := s.catalog.ListsByCategory(c.UserContext(), categoryID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(lists)
}

// GetPopularLists handles GET /api/goal-lists/popular
func (s *Server) GetPopularLists(c *fiber.Ctx) error {
	lists, err := s.catalog.PopularLists(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(lists)
}

// GetAddedLists handles GET /api/self/added-lists
func (s *Server) GetAddedLists(c *fiber.Ctx) error {
	lists, err := s.catalog.AddedLists(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(lists)
}
