package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q", line)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerWritesStructuredEntries(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(Init)

	InfoWithUser("user-1", "approval_submitted", map[string]interface{}{"title": "Leave"})
	Error("approval_process_failed", errors.New("boom"), nil)

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first["level"] != "info" || first["action"] != "approval_submitted" || first["user_id"] != "user-1" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	details, ok := first["details"].(map[string]interface{})
	if !ok || details["title"] != "Leave" {
		t.Fatalf("expected details to be nested, got %+v", first["details"])
	}
	if _, ok := first["time"]; !ok {
		t.Fatalf("expected timestamp field, got %+v", first)
	}

	second := entries[1]
	if second["level"] != "error" || second["error"] != "boom" {
		t.Fatalf("unexpected second entry: %+v", second)
	}
}

func TestLoggerNoopWithoutInit(t *testing.T) {
	previous := globalLogger
	globalLogger = nil
	t.Cleanup(func() { globalLogger = previous })

	Info("ignored", nil)
	Warn("ignored", nil)
}

func TestGetRequestBodySummaryRedactsPasswords(t *testing.T) {
	app := fiber.New()
	ctx := app.AcquireCtx(&fasthttp.RequestCtx{})
	defer app.ReleaseCtx(ctx)

	ctx.Request().SetBody([]byte(`{"email":"kim@x.com","password":"pass123"}`))
	summary := GetRequestBodySummary(ctx)

	if strings.Contains(summary, "pass123") {
		t.Fatalf("expected password to be redacted, got %s", summary)
	}
	if !strings.Contains(summary, "[REDACTED]") {
		t.Fatalf("expected redaction marker, got %s", summary)
	}
}

func TestGetRequestBodySummaryEmpty(t *testing.T) {
	app := fiber.New()
	ctx := app.AcquireCtx(&fasthttp.RequestCtx{})
	defer app.ReleaseCtx(ctx)

	if got := GetRequestBodySummary(ctx); got != "empty" {
		t.Fatalf("expected empty summary, got %q", got)
	}
}
