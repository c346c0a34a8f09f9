// Package runpod starts and stops the GPU pods that serve video generation and evaluation.
package runpod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"interviewapi/internal/config"
)

// Pod statuses reported by Manager.Status.
const (
	StatusStopped = "stopped"
	StatusRunning = "running"
)

// ErrPodNotFound is returned when the API does not know the pod.
var ErrPodNotFound = errors.New("pod not found")

// Pod is the subset of pod fields the manager needs.
type Pod struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status string `json:"desiredStatus"`
}

// CreatePodRequest describes a pod launched from a template.
type CreatePodRequest struct {
	Name       string   `json:"name"`
	TemplateID string   `json:"templateId"`
	GPUTypeIDs []string `json:"gpuTypeIds,omitempty"`
	GPUCount   int      `json:"gpuCount"`
}

// PodAPI is the pod lifecycle API.
type PodAPI interface {
	CreatePod(ctx context.Context, req CreatePodRequest) (*Pod, error)
	GetPod(ctx context.Context, id string) (*Pod, error)
	StopPod(ctx context.Context, id string) error
}

// NewAPI returns the REST client when an API key is configured, otherwise the simulated API.
func NewAPI(cfg config.RunPodConfig, ratePerSec float64) PodAPI {
	if cfg.APIKey == "" {
		return NewSimulatedAPI()
	}
	return NewClient(cfg.APIURL, cfg.APIKey, ratePerSec, nil)
}

// Client calls the RunPod REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a rate limited REST client. transport may be nil.
func NewClient(baseURL, apiKey string, ratePerSec float64, transport http.RoundTripper) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(transport),
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("runpod %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrPodNotFound
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("runpod %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) CreatePod(ctx context.Context, req CreatePodRequest) (*Pod, error) {
	var p Pod
	if err := c.do(ctx, http.MethodPost, "/pods", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPod(ctx context.Context, id string) (*Pod, error) {
	var p Pod
	if err := c.do(ctx, http.MethodGet, "/pods/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) StopPod(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/pods/"+id+"/stop", nil, nil)
}

// SimulatedAPI keeps pods in memory. Every created pod reports RUNNING until stopped.
type SimulatedAPI struct {
	mu   sync.Mutex
	pods map[string]*Pod
	now  func() time.Time
}

// NewSimulatedAPI returns an empty in-memory pod API.
func NewSimulatedAPI() *SimulatedAPI {
	return &SimulatedAPI{pods: make(map[string]*Pod), now: time.Now}
}

func (s *SimulatedAPI) CreatePod(_ context.Context, req CreatePodRequest) (*Pod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Pod{
		ID:     fmt.Sprintf("pod_%s_%d", req.Name, s.now().UnixNano()),
		Name:   req.Name,
		Status: "RUNNING",
	}
	s.pods[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *SimulatedAPI) GetPod(_ context.Context, id string) (*Pod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pods[id]
	if !ok {
		return nil, ErrPodNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *SimulatedAPI) StopPod(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pods[id]
	if !ok {
		return ErrPodNotFound
	}
	p.Status = "EXITED"
	return nil
}
