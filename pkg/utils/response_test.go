package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func performResponseTestRequest(t *testing.T, handler fiber.Handler) (int, map[string]any) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed decoding response body: %v", err)
	}
	return resp.StatusCode, body
}

func TestSuccessEnvelope(t *testing.T) {
	status, body := performResponseTestRequest(t, func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, fiber.Map{"id": "123"})
	})

	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d, got %d", fiber.StatusCreated, status)
	}
	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["id"] != "123" {
		t.Fatalf("expected data.id=123, got %v", body["data"])
	}
}

func TestMessageEnvelope(t *testing.T) {
	status, body := performResponseTestRequest(t, func(c *fiber.Ctx) error {
		return Message(c, "user deleted")
	})

	if status != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	data, _ := body["data"].(map[string]any)
	if data["message"] != "user deleted" {
		t.Fatalf("expected message, got %v", body["data"])
	}
}

func TestErrorEnvelope(t *testing.T) {
	status, body := performResponseTestRequest(t, func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusConflict, "email already in use")
	})

	if status != fiber.StatusConflict {
		t.Fatalf("expected status %d, got %d", fiber.StatusConflict, status)
	}
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false")
	}
	if body["error"] != "email already in use" {
		t.Fatalf("unexpected error %v", body["error"])
	}
}

func TestPaginatedEnvelope(t *testing.T) {
	_, body := performResponseTestRequest(t, func(c *fiber.Ctx) error {
		return Paginated(c, []string{"a", "b"}, 2, 20, 45)
	})

	pagination, ok := body["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("expected pagination object, got %T", body["pagination"])
	}
	if pagination["totalPages"] != float64(3) {
		t.Fatalf("expected totalPages=3, got %v", pagination["totalPages"])
	}
	if pagination["page"] != float64(2) || pagination["total"] != float64(45) {
		t.Fatalf("unexpected pagination %v", pagination)
	}
}
