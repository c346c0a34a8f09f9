package runpod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"interviewapi/internal/config"
	"interviewapi/internal/model"
)

// ErrMaxInstances is returned when starting another pod would exceed the instance cap.
var ErrMaxInstances = errors.New("gpu instance limit reached")

// Manager tracks at most one pod per task type.
type Manager struct {
	api          PodAPI
	templates    map[string]string
	gpuType      string
	maxInstances int
	log          zerolog.Logger

	mu   sync.Mutex
	pods map[string]string
}

// NewManager creates a pod manager. maxInstances <= 0 means no cap.
func NewManager(api PodAPI, cfg config.RunPodConfig, maxInstances int, log zerolog.Logger) *Manager {
	return &Manager{
		api: api,
		templates: map[string]string{
			model.TaskVideoGeneration: cfg.VideoTemplateID,
			model.TaskEvaluation:      cfg.EvalTemplateID,
		},
		gpuType:      cfg.GPUTypeID,
		maxInstances: maxInstances,
		log:          log,
		pods:         make(map[string]string),
	}
}

// StartServer launches the pod for taskType and returns its ID.
// An already tracked pod is returned as is.
func (m *Manager) StartServer(ctx context.Context, taskType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.pods[taskType]; ok {
		return id, nil
	}
	tmpl, ok := m.templates[taskType]
	if !ok {
		return "", fmt.Errorf("no template for task type %q", taskType)
	}
	if m.maxInstances > 0 && len(m.pods) >= m.maxInstances {
		return "", ErrMaxInstances
	}

	req := CreatePodRequest{Name: taskType, TemplateID: tmpl, GPUCount: 1}
	if m.gpuType != "" {
		req.GPUTypeIDs = []string{m.gpuType}
	}
	pod, err := m.api.CreatePod(ctx, req)
	if err != nil {
		return "", fmt.Errorf("start %s server: %w", taskType, err)
	}
	m.pods[taskType] = pod.ID

	m.log.Info().
		Str("event", "gpu_server_started").
		Str("task_type", taskType).
		Str("pod_id", pod.ID).
		Msg("gpu server started")
	return pod.ID, nil
}

// StopServer stops the tracked pod. Stopping an untracked type succeeds.
func (m *Manager) StopServer(ctx context.Context, taskType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.pods[taskType]
	if !ok {
		return true, nil
	}
	if err := m.api.StopPod(ctx, id); err != nil && !errors.Is(err, ErrPodNotFound) {
		return false, fmt.Errorf("stop %s server: %w", taskType, err)
	}
	delete(m.pods, taskType)

	m.log.Info().
		Str("event", "gpu_server_stopped").
		Str("task_type", taskType).
		Str("pod_id", id).
		Msg("gpu server stopped")
	return true, nil
}

// Status returns "stopped" when no pod is tracked, otherwise the lowercased pod status.
func (m *Manager) Status(ctx context.Context, taskType string) (string, error) {
	m.mu.Lock()
	id, ok := m.pods[taskType]
	m.mu.Unlock()
	if !ok {
		return StatusStopped, nil
	}

	pod, err := m.api.GetPod(ctx, id)
	if errors.Is(err, ErrPodNotFound) {
		m.forget(taskType, id)
		return StatusStopped, nil
	}
	if err != nil {
		return "", err
	}
	switch s := strings.ToLower(pod.Status); s {
	case "exited", "terminated":
		// The pod died outside the manager; the next StartServer creates a new one.
		m.forget(taskType, id)
		return StatusStopped, nil
	default:
		return s, nil
	}
}

// forget drops the tracked pod unless it was replaced meanwhile.
func (m *Manager) forget(taskType, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pods[taskType] != id {
		return
	}
	delete(m.pods, taskType)
	m.log.Warn().
		Str("event", "gpu_server_lost").
		Str("task_type", taskType).
		Str("pod_id", id).
		Msg("gpu server no longer running")
}

// PodID returns the tracked pod for taskType, or "".
func (m *Manager) PodID(taskType string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pods[taskType]
}

// Running counts tracked pods.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pods)
}
