package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(cfg AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware(cfg))
	app.Get("/protected", func(c *fiber.Ctx) error {
		user, _ := c.Locals("user").(string)
		return c.JSON(fiber.Map{"user": user})
	})
	return app
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"

	t.Run("missing token", func(t *testing.T) {
		app := newAuthApp(AuthConfig{Secret: secret})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("valid token passes", func(t *testing.T) {
		app := newAuthApp(AuthConfig{Secret: secret})
		token := signToken(t, secret, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		app := newAuthApp(AuthConfig{Secret: secret})
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		app := newAuthApp(AuthConfig{Secret: secret})
		token := signToken(t, secret, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("issuer mismatch rejected", func(t *testing.T) {
		app := newAuthApp(AuthConfig{Secret: secret, Issuer: "multisig-mcp"})
		token := signToken(t, secret, jwt.MapClaims{
			"sub": "user-1",
			"iss": "someone-else",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
