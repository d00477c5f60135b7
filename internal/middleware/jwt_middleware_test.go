package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storerating/internal/middleware"
	"storerating/internal/models"
	"storerating/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticValidator map[string]services.Principal

func (v staticValidator) ValidateToken(token string) (*services.Principal, error) {
	p, ok := v[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &p, nil
}

func newApp() *fiber.App {
	v := staticValidator{
		"admin-token": {UserID: "a1", Role: models.RoleAdmin},
		"user-token":  {UserID: "u1", Role: models.RoleUser},
	}
	app := fiber.New()
	protected := app.Group("", middleware.AuthRequired(v))
	protected.Get("/me", func(c *fiber.Ctx) error {
		p, _ := middleware.PrincipalFrom(c)
		return c.SendString(p.UserID)
	})
	protected.Get("/admin", middleware.RequireRoles(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	protected.Get("/owners", middleware.RequireRoles(models.RoleAdmin, models.RoleStoreOwner), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func do(t *testing.T, app *fiber.App, path, auth string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestAuthRequired(t *testing.T) {
	app := newApp()

	assert.Equal(t, http.StatusUnauthorized, do(t, app, "/me", ""))
	assert.Equal(t, http.StatusUnauthorized, do(t, app, "/me", "Token user-token"))
	assert.Equal(t, http.StatusUnauthorized, do(t, app, "/me", "Bearer "))
	assert.Equal(t, http.StatusUnauthorized, do(t, app, "/me", "Bearer forged"))
	assert.Equal(t, http.StatusOK, do(t, app, "/me", "Bearer user-token"))
}

func TestRequireRoles(t *testing.T) {
	app := newApp()

	assert.Equal(t, http.StatusForbidden, do(t, app, "/admin", "Bearer user-token"))
	assert.Equal(t, http.StatusNoContent, do(t, app, "/admin", "Bearer admin-token"))
	assert.Equal(t, http.StatusForbidden, do(t, app, "/owners", "Bearer user-token"))
	assert.Equal(t, http.StatusNoContent, do(t, app, "/owners", "Bearer admin-token"))
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.RequireRoles(models.RoleAdmin), func(c *fiber.Ctx) error { return nil })
	assert.Equal(t, http.StatusUnauthorized, do(t, app, "/", ""))
}

func TestRejectionBodies(t *testing.T) {
	app := newApp()

	cases := []struct {
		path, auth string
		status     int
		message    string
	}{
		{"/admin", "Bearer user-token", http.StatusForbidden, "Access denied. Insufficient permissions"},
		{"/me", "", http.StatusUnauthorized, "Authorization header is required"},
		{"/me", "Bearer forged", http.StatusUnauthorized, "Invalid or expired token"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.auth != "" {
			req.Header.Set("Authorization", tc.auth)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
		assert.Equal(t, tc.message, body["message"], tc.path)
	}
}
