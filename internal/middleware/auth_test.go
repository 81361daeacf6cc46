package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

type stubUsers map[uuid.UUID]*models.User

func (s stubUsers) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("user")
}

func newMiddlewareTestUser(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	user := &models.User{Name: "Test", Email: string(role) + "@test.com", Role: role, Status: models.UserStatusApproved}
	user.ID = uuid.New()
	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating token: %v", err)
	}
	return user, token
}

func setupMiddlewareApp(t *testing.T, users stubUsers) *fiber.App {
	t.Helper()
	logger.Init()
	utils.ConfigureJWT("middleware-test-secret", 24)

	auth := NewAuthMiddleware(users)
	app := fiber.New()
	app.Use(SecurityLogger())
	app.Get("/me", auth.RequireAuth, func(c *fiber.Ctx) error {
		return c.SendString(GetCurrentUser(c).Email)
	})
	app.Get("/admin", auth.RequireAuth, AdminOnly, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, target, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireAuth(t *testing.T) {
	utils.ConfigureJWT("middleware-test-secret", 24)
	admin, adminToken := newMiddlewareTestUser(t, models.RoleAdmin)
	requester, requesterToken := newMiddlewareTestUser(t, models.RoleRequester)
	_, orphanToken := newMiddlewareTestUser(t, models.RoleApprover)

	app := setupMiddlewareApp(t, stubUsers{admin.ID: admin, requester.ID: requester})

	tests := []struct {
		name   string
		target string
		token  string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "not-a-jwt", http.StatusUnauthorized},
		{"deleted user", "/me", orphanToken, http.StatusUnauthorized},
		{"valid token", "/me", requesterToken, http.StatusOK},
		{"query token", "/me?access_token=" + requesterToken, "", http.StatusOK},
		{"requester on admin route", "/admin", requesterToken, http.StatusForbidden},
		{"admin on admin route", "/admin", adminToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doRequest(t, app, tt.target, tt.token); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRequireAuth_RejectsMalformedHeader(t *testing.T) {
	app := setupMiddlewareApp(t, stubUsers{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGetCurrentUser_Empty(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if GetCurrentUser(c) != nil {
			t.Error("expected no current user")
		}
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
}
