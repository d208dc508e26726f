package server

import (
	"time"

	"github.com/Cerega32/Bucket-List/internal/featureflags"
	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	if !s.flags.EnabledOr(featureflags.Registration, 0, true) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Registration is closed"))
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.users.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, user.ID, time.Now())
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login. The login field accepts an email or a
// username.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Login    string `json:"login"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Login == "" {
		req.Login = req.Email
	}

	user, err := s.users.Authenticate(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return models.Respond(c, err)
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, user.ID, time.Now())
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.JSON(authResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token until
// it would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(middleware.TokenClaims)
	if ok && claims.ID != "" && s.redis != nil {
		ttl := time.Until(claims.ExpiresAt)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), blacklistKey(claims.ID), "1", ttl).Err(); err != nil {
				return models.Respond(c, models.NewInternalError(err))
			}
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
