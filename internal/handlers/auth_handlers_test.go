package handlers

import (
	"net/http"
	"testing"

	"github.com/sangwon4052/sangwon-sign-off/internal/models"
)

func TestSignupApproveLoginFlow(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env, "Admin", "admin@x.com", "admin123", models.RoleAdmin)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Kim", "email": "kim@x.com", "password": "pass123", "role": "requester",
	}, nil)
	assertStatus(t, resp, http.StatusCreated)
	signup := dataMap(t, decodeJSONMap(t, resp))
	if signup["status"] != "pending" {
		t.Fatalf("expected pending status, got %v", signup["status"])
	}
	if _, leaked := signup["passwordHash"]; leaked {
		t.Fatal("signup response must not include the password hash")
	}

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "kim@x.com", "password": "pass123",
	}, nil)
	assertStatus(t, resp, http.StatusUnauthorized)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "account is awaiting administrator approval")

	resp = performRequest(t, env.app, http.MethodGet, "/api/pending-users", nil, authHeaders(adminToken))
	assertStatus(t, resp, http.StatusOK)
	pending := dataList(t, decodeJSONMap(t, resp))
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending user, got %d", len(pending))
	}
	pendingID := pending[0].(map[string]any)["id"].(string)

	resp = performRequest(t, env.app, http.MethodPost, "/api/pending-users/"+pendingID+"/approve", nil, authHeaders(adminToken))
	assertStatus(t, resp, http.StatusOK)
	approved := dataMap(t, decodeJSONMap(t, resp))
	if approved["status"] != "approved" {
		t.Fatalf("expected approved user, got %v", approved["status"])
	}

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "kim@x.com", "password": "pass123",
	}, nil)
	assertStatus(t, resp, http.StatusOK)
	login := dataMap(t, decodeJSONMap(t, resp))
	token, _ := login["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}
	user := login["user"].(map[string]any)
	if user["role"] != "requester" {
		t.Fatalf("expected requester role, got %v", user["role"])
	}

	resp = performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	me := dataMap(t, decodeJSONMap(t, resp))
	if me["email"] != "kim@x.com" {
		t.Fatalf("unexpected me payload: %+v", me)
	}

	resp = performRequest(t, env.app, http.MethodPost, "/api/auth/logout", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
}

func TestSignupErrors(t *testing.T) {
	env := setupTestEnv(t)

	payload := map[string]any{"name": "Kim", "email": "kim@x.com", "password": "pass123", "role": "requester"}
	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", payload, nil)
	assertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", payload, nil)
	assertStatus(t, resp, http.StatusConflict)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "email already registered")

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Lee", "email": "lee@x.com", "password": "123", "role": "requester",
	}, nil)
	assertStatus(t, resp, http.StatusBadRequest)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "password must be at least 6 characters")

	resp = performRequest(t, env.app, http.MethodPost, "/api/auth/signup", nil, map[string]string{"Content-Type": "application/json"})
	assertStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	createTestUser(t, env, "Kim", "kim@x.com", "pass123", models.RoleRequester)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "kim@x.com", "password": "wrong-pass",
	}, nil)
	assertStatus(t, resp, http.StatusUnauthorized)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "invalid email or password")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/api/auth/me", "/api/dashboard", "/api/approvals", "/api/notifications", "/api/users"} {
		resp := performRequest(t, env.app, http.MethodGet, path, nil, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	}

	resp := performRequest(t, env.app, http.MethodGet, "/health", nil, nil)
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
