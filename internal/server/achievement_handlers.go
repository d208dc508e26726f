package server

import (
	"github.com/Cerega32/Bucket-List/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAchievementCatalog handles GET /api/achievements/catalog
func (s *Server) GetAchievementCatalog(c *fiber.Ctx) error {
	achievements, err := s.achievements.Catalog(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(achievements)
}

// GetAchievements handles GET /api/achievements?user_id=. Without user_id the
// caller's own achievements are returned.
func (s *Server) GetAchievements(c *fiber.Ctx) error {
	userID := uint(c.QueryInt("user_id", 0))
	if userID == 0 {
		userID = currentUserID(c)
	}
	if userID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Query parameter 'user_id' is required"))
	}

	granted, err := s.achievements.Granted(c.UserContext(), userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(granted)
}

// GrantAchievement handles POST /api/admin/achievements/:id/grant/:userId
func (s *Server) GrantAchievement(c *fiber.Ctx) error {
	achievementID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	progress, err := s.achievements.Award(c.UserContext(), achievementID, userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(progress)
}
