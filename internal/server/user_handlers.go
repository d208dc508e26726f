package server

import (
	"context"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.users.GetUser(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.users.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me. Omitted fields are left as they are.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username  *string `json:"username"`
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Bio       *string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.users.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    currentUserID(c),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles POST /api/users/me/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.users.ChangePassword(c.UserContext(), currentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// UploadAvatar handles POST /api/users/me/avatar (multipart field "image").
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	return s.uploadProfileImage(c, s.users.SetAvatar)
}

// UploadCover handles POST /api/users/me/cover (multipart field "image").
func (s *Server) UploadCover(c *fiber.Ctx) error {
	return s.uploadProfileImage(c, s.users.SetCover)
}

// DeleteAvatar handles DELETE /api/users/me/avatar
func (s *Server) DeleteAvatar(c *fiber.Ctx) error {
	user, err := s.users.DeleteAvatar(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

type imageSetter func(ctx context.Context, userID uint, up service.Upload) (*models.User, error)

func (s *Server) uploadProfileImage(c *fiber.Ctx, set imageSetter) error {
	up, closeFn, err := singleUpload(c, "image")
	defer closeFn()
	if err != nil {
		return models.Respond(c, err)
	}
	if up == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	user, err := set(c.UserContext(), currentUserID(c), *up)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}
