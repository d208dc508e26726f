package server

import (
	"strings"

	"github.com/Cerega32/Bucket-List/internal/featureflags"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetGoalComments handles GET /api/goals/:code/comments?sort=likes|date&limit=&offset=
func (s *Server) GetGoalComments(c *fiber.Ctx) error {
	page := parsePagination(c, 10)
	result, err := s.comments.ListComments(c.UserContext(), service.ListCommentsInput{
		GoalCode: c.Params("code"),
		ViewerID: currentUserID(c),
		Sort:     c.Query("sort"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(result)
}

// CreateGoalComment handles POST /api/goals/:code/comments. It accepts a
// multipart form with text, an optional complexity and up to ten photos, or
// a JSON body without photos.
func (s *Server) CreateGoalComment(c *fiber.Ctx) error {
	in := service.CreateCommentInput{
		UserID:   currentUserID(c),
		GoalCode: c.Params("code"),
	}
	var complexity string

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		in.Text = first(form.Value["text"])
		complexity = first(form.Value["complexity"])

		files := form.File["photos"]
		if len(files) > 0 && !s.flags.EnabledOr(featureflags.CommentPhotos, in.UserID, true) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Photo comments are not available"))
		}
		if len(files) > service.MaxCommentPhotos {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Too many photos (max 10)"))
		}
		for _, fh := range files {
			up, closeFn, err := formUpload(fh)
			defer closeFn()
			if err != nil {
				return models.Respond(c, err)
			}
			in.Photos = append(in.Photos, up)
		}
	} else {
		var req struct {
			Text       string `json:"text"`
			Complexity string `json:"complexity"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Text = req.Text
		complexity = req.Complexity
	}

	if complexity != "" {
		value := models.Complexity(complexity)
		in.Complexity = &value
	}

	created, err := s.comments.CreateComment(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	admin, err := s.isAdminByUserID(c.UserContext(), userID)
	if err != nil {
		return models.Respond(c, err)
	}

	if err := s.comments.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    userID,
		IsAdmin:   admin,
		CommentID: commentID,
	}); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}

// ReactToComment handles POST /api/comments/:id/reaction with body
// {"is_like": bool}.
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		IsLike *bool `json:"is_like"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsLike == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Field 'is_like' is required"))
	}

	score, err := s.comments.React(c.UserContext(), commentID, currentUserID(c), *req.IsLike)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(score)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
