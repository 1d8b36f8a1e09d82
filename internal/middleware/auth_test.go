package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"charity-admin/internal/common/models"
	"charity-admin/internal/config"
	"charity-admin/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockUserLoader struct {
	Users map[string]*models.User
}

func (m *MockUserLoader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.Users[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

type staticStatus bool

func (s staticStatus) Connected() bool { return bool(s) }

func newTestApp(users *MockUserLoader, connected bool) *fiber.App {
	guard := NewGuard(&config.Config{}, users, staticStatus(connected), NewPolicy())

	app := fiber.New()
	api := app.Group("/api", guard.RequireDB(), guard.Protect())
	api.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"username": CurrentUser(c).Username})
	})
	api.Delete("/members/:id", guard.Require("members.delete"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestProtect(t *testing.T) {
	utils.SetSecret("middleware-test")

	staff := &models.User{ID: primitive.NewObjectID(), Username: "staffer", Role: models.RoleStaff}
	admin := &models.User{ID: primitive.NewObjectID(), Username: "boss", Role: models.RoleAdmin}
	ghostID := primitive.NewObjectID()
	users := &MockUserLoader{Users: map[string]*models.User{
		staff.ID.Hex(): staff,
		admin.ID.Hex(): admin,
	}}
	app := newTestApp(users, true)

	staffToken, _ := utils.GenerateToken(staff.ID, string(staff.Role))
	adminToken, _ := utils.GenerateToken(admin.ID, string(admin.Role))
	ghostToken, _ := utils.GenerateToken(ghostID, "admin")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"missing token", "GET", "/api/me", "", 401},
		{"garbage token", "GET", "/api/me", "abc", 401},
		{"deleted user", "GET", "/api/me", ghostToken, 401},
		{"valid token", "GET", "/api/me", staffToken, 200},
		{"staff cannot delete", "DELETE", "/api/members/1", staffToken, 403},
		{"admin can delete", "DELETE", "/api/members/1", adminToken, 204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestSkipAuthIgnoredInProduction(t *testing.T) {
	tests := []struct {
		env  string
		want int
	}{
		{"development", fiber.StatusOK},
		{"production", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			guard := NewGuard(&config.Config{SkipAuth: true, Environment: tt.env}, &MockUserLoader{}, staticStatus(true), NewPolicy())
			app := fiber.New()
			app.Get("/me", guard.Protect(), func(c *fiber.Ctx) error {
				return c.SendString(CurrentUser(c).Username)
			})

			resp, _ := app.Test(httptest.NewRequest("GET", "/me", nil))
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequireDBAnswers503WhenDisconnected(t *testing.T) {
	app := newTestApp(&MockUserLoader{}, false)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/me", nil))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["success"] != false || body["message"] != "Database is not connected" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRequireUnknownKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown policy key")
		}
	}()
	guard := NewGuard(&config.Config{}, &MockUserLoader{}, staticStatus(true), NewPolicy())
	guard.Require("members.purge")
}
