package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Cerega32/Bucket-List/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontendOrigin = "http://localhost:5173"

// middlewareApp returns a bare app with the production middleware chain and
// a single /ping route answering 200 to GET and POST.
func middlewareApp(t *testing.T) *fiber.App {
	t.Helper()
	srv := &Server{config: &config.Config{AllowedOrigins: frontendOrigin}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/ping", ok)
	app.Post("/ping", ok)
	return app
}

func hit(t *testing.T, app *fiber.App, method string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/ping", nil)
	req.Header.Set("Origin", frontendOrigin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// exhaustLimiter spends the global per-IP budget.
func exhaustLimiter(t *testing.T, app *fiber.App, method string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		require.Equal(t, fiber.StatusOK, hit(t, app, method, nil).StatusCode, "request %d", i+1)
	}
}

func TestSetupMiddleware_RateLimitedResponseIncludesCORSHeaders(t *testing.T) {
	app := middlewareApp(t)
	exhaustLimiter(t, app, http.MethodGet)

	resp := hit(t, app, http.MethodGet, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupMiddleware_PreflightBypassesLimiter(t *testing.T) {
	app := middlewareApp(t)
	exhaustLimiter(t, app, http.MethodPost)
	require.Equal(t, fiber.StatusTooManyRequests, hit(t, app, http.MethodPost, nil).StatusCode)

	resp := hit(t, app, http.MethodOptions, map[string]string{
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "authorization,content-type",
	})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestSetupMiddleware_SetsRequestIDAndSecurityHeaders(t *testing.T) {
	app := middlewareApp(t)

	resp := hit(t, app, http.MethodGet, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.Equal(t, "nosniff", resp.Header.Get(fiber.HeaderXContentTypeOptions))
}
