package serverless

import (
	"context"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Visa AI Interviewer API", "status": "healthy"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/files/:id", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":    c.Params("id"),
			"auth":  c.Get(fiber.HeaderAuthorization),
			"limit": c.Query("limit"),
		})
	})
	app.Post("/echo", func(c *fiber.Ctx) error {
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(body)
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestHandler_Handle(t *testing.T) {
	h := New(newTestApp(), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name  string
		input map[string]any
		check func(t *testing.T, got any)
	}{
		{
			name:  "non http job",
			input: map[string]any{"prompt": "hi"},
			check: func(t *testing.T, got any) {
				m := got.(map[string]any)
				assert.Equal(t, "success", m["status"])
				assert.Equal(t, "full", m["mode"])
			},
		},
		{
			name:  "root",
			input: map[string]any{"http_method": "GET", "path": ""},
			check: func(t *testing.T, got any) {
				assert.Equal(t, "Visa AI Interviewer API", got.(map[string]any)["message"])
			},
		},
		{
			name: "params headers and query",
			input: map[string]any{
				"http_method": "get",
				"path":        "files/abc",
				"headers":     map[string]any{"Authorization": "Bearer t"},
				"query":       map[string]any{"limit": 5},
			},
			check: func(t *testing.T, got any) {
				m := got.(map[string]any)
				assert.Equal(t, "abc", m["id"])
				assert.Equal(t, "Bearer t", m["auth"])
				assert.Equal(t, "5", m["limit"])
			},
		},
		{
			name:  "object body",
			input: map[string]any{"http_method": "POST", "path": "/echo", "body": map[string]any{"a": 1.0}},
			check: func(t *testing.T, got any) {
				assert.Equal(t, map[string]any{"a": 1.0}, got)
			},
		},
		{
			name:  "string body",
			input: map[string]any{"http_method": "POST", "path": "/echo", "body": `{"b":"x"}`},
			check: func(t *testing.T, got any) {
				assert.Equal(t, map[string]any{"b": "x"}, got)
			},
		},
		{
			name:  "non json response",
			input: map[string]any{"http_method": "GET", "path": "/plain"},
			check: func(t *testing.T, got any) {
				m := got.(map[string]any)
				assert.Equal(t, 200, m["status_code"])
				assert.Equal(t, "pong", m["body"])
			},
		},
		{
			name:  "unknown endpoint",
			input: map[string]any{"http_method": "GET", "path": "/nope"},
			check: func(t *testing.T, got any) {
				m := got.(map[string]any)
				assert.Equal(t, "not_found", m["status"])
				assert.Equal(t, "Endpoint /nope not found", m["message"])
				assert.Contains(t, m["available_endpoints"], "/health")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, h.Handle(ctx, Job{ID: "job-1", Input: tt.input}))
		})
	}
}

func TestHandler_HandleCancelled(t *testing.T) {
	h := New(newTestApp(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := h.Handle(ctx, Job{Input: map[string]any{"http_method": "GET", "path": "/health"}}).(map[string]any)
	assert.Equal(t, "error", got["status"])
	assert.Equal(t, context.Canceled.Error(), got["error"])
}

func TestMatchRoute(t *testing.T) {
	tests := []struct {
		pattern, path string
		want          bool
	}{
		{"/", "/", true},
		{"/health", "/health", true},
		{"/health", "/healthz", false},
		{"/api/v1/files/files/:id", "/api/v1/files/files/42", true},
		{"/api/v1/files/files/:id", "/api/v1/files/files", false},
		{"/api/v1/files/files/:id", "/api/v1/files/files/42/extra", false},
		{"/swagger/*", "/swagger/index.html", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchRoute(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}

func TestDecodeJob(t *testing.T) {
	job, err := DecodeJob(strings.NewReader(`{"id":"j1","input":{"http_method":"GET","path":"/health"}}`))
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "/health", job.Input["path"])

	job, err = DecodeJob(strings.NewReader(`{"id":"j2"}`))
	require.NoError(t, err)
	assert.Empty(t, job.Input)

	_, err = DecodeJob(strings.NewReader(`{"input":[1,2]}`))
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = DecodeJob(strings.NewReader(`not json`))
	assert.Error(t, err)
}
