package server

import (
	"time"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetLeaderboard handles GET /api/leaderboard?limit=&days=
func (s *Server) GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultLeaderboardLimit)
	days := c.QueryInt("days", s.config.LeaderboardWindowDays)
	if days <= 0 {
		days = service.DefaultLeaderboardDays
	}
	if days > service.MaxLeaderboardDays {
		days = service.MaxLeaderboardDays
	}

	entries, err := s.leaderboard.Top(c.UserContext(), limit, time.Duration(days)*24*time.Hour)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"days":    days,
		"entries": entries,
	})
}
