package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB returns a postgres-dialect GORM handle backed by sqlmock.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func get(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHumanizeParam(t *testing.T) {
	for param, want := range map[string]string{
		"id":         "ID",
		"userId":     "user ID",
		"commentId":  "comment ID",
		"categoryId": "category ID",
		"code":       "code",
	} {
		assert.Equal(t, want, humanizeParam(param), param)
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		return c.JSON(parsePagination(c, 25))
	})

	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=0&offset=-5", 25, 0},
		{"?limit=5000", maxPaginationLimit, 0},
		{"?limit=abc", 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got Pagination
			require.Equal(t, http.StatusOK, get(t, app, "/items"+tt.query, &got))
			assert.Equal(t, tt.limit, got.Limit)
			assert.Equal(t, tt.offset, got.Offset)
		})
	}
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	for _, param := range []string{"id", "userId", "commentId"} {
		param := param
		app.Get("/"+param+"/:"+param, func(c *fiber.Ctx) error {
			id, err := s.parseID(c, param)
			if err != nil {
				return nil
			}
			return c.JSON(fiber.Map{"id": id})
		})
	}

	var ok map[string]uint
	require.Equal(t, http.StatusOK, get(t, app, "/id/42", &ok))
	assert.Equal(t, uint(42), ok["id"])

	tests := []struct {
		path string
		msg  string
	}{
		{"/id/abc", "Invalid ID"},
		{"/id/0", "Invalid ID"},
		{"/id/-3", "Invalid ID"},
		{"/userId/abc", "Invalid user ID"},
		{"/commentId/x", "Invalid comment ID"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body models.ErrorResponse
			require.Equal(t, http.StatusBadRequest, get(t, app, tt.path, &body))
			assert.Equal(t, tt.msg, body.Error)
			assert.Equal(t, models.CodeValidation, body.Code)
		})
	}
}

func TestAdminRequired(t *testing.T) {
	userQuery := regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)
	tests := []struct {
		name   string
		userID uint
		rows   *sqlmock.Rows
		status int
	}{
		{"admin", 1, sqlmock.NewRows([]string{"id", "is_admin"}).AddRow(1, true), http.StatusOK},
		{"regular user", 2, sqlmock.NewRows([]string{"id", "is_admin"}).AddRow(2, false), http.StatusForbidden},
		{"unknown user", 999, sqlmock.NewRows([]string{"id", "is_admin"}), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock := setupMockDB(t)
			s := &Server{db: gormDB, store: repository.NewStore(gormDB)}
			mock.ExpectQuery(userQuery).WithArgs(tt.userID, 1).WillReturnRows(tt.rows)

			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				c.Locals("userID", tt.userID)
				return c.Next()
			})
			app.Get("/admin", s.AdminRequired(), func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"ok": true})
			})

			assert.Equal(t, tt.status, get(t, app, "/admin", nil))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	for key, want := range map[string]string{
		"avatars/a.png":        "image/png",
		"covers/b.webp":        "image/webp",
		"comment-photos/c.gif": "image/gif",
		"goals/d.jpg":          "image/jpeg",
	} {
		assert.Equal(t, want, contentTypeFor(key), key)
	}
}
