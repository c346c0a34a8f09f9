// Package healthcheck encodes the container probe policy and runs probes against /health.
package healthcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Policy mirrors the container HEALTHCHECK options.
type Policy struct {
	Interval    time.Duration
	Timeout     time.Duration
	StartPeriod time.Duration
	Retries     int
}

// DefaultPolicy is the policy declared in the Dockerfile.
var DefaultPolicy = Policy{
	Interval:    30 * time.Second,
	Timeout:     10 * time.Second,
	StartPeriod: 60 * time.Second,
	Retries:     3,
}

// Path is the probed endpoint.
const Path = "/health"

// URL returns the probe URL for a local port.
func URL(port string) string {
	return "http://localhost:" + port + Path
}

// Probe performs one GET within timeout. Any non-2xx status is a failure.
func Probe(ctx context.Context, client *http.Client, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health probe: status %d", resp.StatusCode)
	}
	return nil
}

// State is the container health as the orchestrator sees it.
type State string

const (
	Starting  State = "starting"
	Healthy   State = "healthy"
	Unhealthy State = "unhealthy"
)

// Monitor applies the policy to a sequence of probe results.
// Failures inside the start period do not count until the first success ends it;
// Retries consecutive counted failures mark the target unhealthy.
type Monitor struct {
	policy  Policy
	started time.Time

	mu        sync.Mutex
	failures  int
	succeeded bool
	state     State
}

// NewMonitor starts the start period at started.
func NewMonitor(p Policy, started time.Time) *Monitor {
	return &Monitor{policy: p, started: started, state: Starting}
}

// Record feeds one probe result observed at t and returns the resulting state.
func (m *Monitor) Record(t time.Time, err error) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		m.failures = 0
		m.succeeded = true
		m.state = Healthy
		return m.state
	}
	if !m.succeeded && t.Sub(m.started) < m.policy.StartPeriod {
		return m.state
	}
	m.failures++
	if m.failures >= m.policy.Retries {
		m.state = Unhealthy
	}
	return m.state
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run probes url every Interval until ctx is done, reporting each state change to onChange.
func (m *Monitor) Run(ctx context.Context, client *http.Client, url string, onChange func(State)) {
	t := time.NewTicker(m.policy.Interval)
	defer t.Stop()
	prev := m.State()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			st := m.Record(now, Probe(ctx, client, url, m.policy.Timeout))
			if st != prev && onChange != nil {
				onChange(st)
			}
			prev = st
		}
	}
}
