// Package serverless runs RunPod-style jobs against the HTTP app without a listener.
package serverless

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"interviewapi/internal/http/handler"
)

// DefaultTimeout bounds one replayed request.
const DefaultTimeout = 5 * time.Minute

// Job is one serverless invocation.
type Job struct {
	ID    string         `json:"id"`
	Input map[string]any `json:"input"`
}

// Handler replays HTTP-shaped jobs against a Fiber app.
type Handler struct {
	app     *fiber.App
	log     zerolog.Logger
	timeout time.Duration
}

// New returns a handler for app. Routes must already be registered.
func New(app *fiber.App, log zerolog.Logger) *Handler {
	return &Handler{app: app, log: log, timeout: DefaultTimeout}
}

// Handle runs the job. Inputs carrying "http_method" are replayed as a request
// and the decoded response body is returned; other inputs get a liveness reply.
// Failures are reported in the result, never as a Go error.
func (h *Handler) Handle(ctx context.Context, job Job) any {
	id := job.ID
	if id == "" {
		id = "unknown"
	}
	log := h.log.With().Str("job_id", id).Logger()
	log.Info().Str("event", "job_received").Msg("processing job")

	if _, ok := job.Input["http_method"]; !ok {
		return map[string]any{
			"status":  "success",
			"message": "Visa AI Interviewer CPU Server is running",
			"mode":    "full",
		}
	}

	res, err := h.replay(ctx, job.Input)
	if err != nil {
		log.Error().Err(err).Str("event", "job_failed").Msg("job failed")
		return map[string]any{"status": "error", "error": err.Error()}
	}
	return res
}

func (h *Handler) replay(ctx context.Context, in map[string]any) (any, error) {
	method := strings.ToUpper(stringField(in, "http_method", fiber.MethodGet))
	p := stringField(in, "path", "/")
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	if !h.routeExists(method, p) {
		return map[string]any{
			"status":              "not_found",
			"message":             fmt.Sprintf("Endpoint %s not found", p),
			"available_endpoints": handler.Paths(h.app),
		}, nil
	}

	body, err := bodyReader(in["body"])
	if err != nil {
		return nil, err
	}

	target := p
	if q, ok := in["query"].(map[string]any); ok && len(q) > 0 {
		vals := url.Values{}
		for k, v := range q {
			vals.Set(k, fmt.Sprint(v))
		}
		target += "?" + vals.Encode()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := httptest.NewRequest(method, target, body)
	if hdrs, ok := in["headers"].(map[string]any); ok {
		for k, v := range hdrs {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}
	if req.Header.Get(fiber.HeaderContentType) == "" && in["body"] != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := h.app.Test(req, int(h.timeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, p, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	h.log.Info().
		Str("event", "job_http").
		Str("method", method).
		Str("path", p).
		Int("status", resp.StatusCode).
		Msg("replayed request")

	var out any
	if len(raw) > 0 && json.Unmarshal(raw, &out) == nil {
		return out, nil
	}
	return map[string]any{"status_code": resp.StatusCode, "body": string(raw)}, nil
}

func bodyReader(b any) (io.Reader, error) {
	switch v := b.(type) {
	case nil:
		return http.NoBody, nil
	case string:
		return strings.NewReader(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		return bytes.NewReader(raw), nil
	}
}

func stringField(in map[string]any, key, def string) string {
	if s, ok := in[key].(string); ok {
		return s
	}
	return def
}

func (h *Handler) routeExists(method, p string) bool {
	for _, r := range h.app.GetRoutes(true) {
		if r.Method == method && matchRoute(r.Path, p) {
			return true
		}
	}
	return false
}

// matchRoute matches Fiber patterns with ":param" segments and a trailing "*".
func matchRoute(pattern, p string) bool {
	if pattern == p {
		return true
	}
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(p, "/"), "/")
	for i, seg := range ps {
		if seg == "*" {
			return true
		}
		if i >= len(xs) {
			return false
		}
		if strings.HasPrefix(seg, ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if seg != xs[i] {
			return false
		}
	}
	return len(ps) == len(xs)
}

// ErrInvalidJob is returned by DecodeJob when input is not a JSON object.
var ErrInvalidJob = errors.New("job input is not an object")

// DecodeJob parses a job document.
func DecodeJob(r io.Reader) (Job, error) {
	var raw struct {
		ID    string          `json:"id"`
		Input json.RawMessage `json:"input"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	job := Job{ID: raw.ID, Input: map[string]any{}}
	if len(raw.Input) == 0 || string(raw.Input) == "null" {
		return job, nil
	}
	if err := json.Unmarshal(raw.Input, &job.Input); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return job, nil
}
