// Package scaler starts GPU servers when their queues fill up and stops them when idle.
package scaler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"interviewapi/internal/config"
	"interviewapi/internal/model"
	"interviewapi/internal/runpod"
)

// Servers is the GPU server lifecycle used by the scaler.
type Servers interface {
	StartServer(ctx context.Context, taskType string) (string, error)
	StopServer(ctx context.Context, taskType string) (bool, error)
	Status(ctx context.Context, taskType string) (string, error)
}

// QueueLength reports pending tasks per type.
type QueueLength interface {
	Len(ctx context.Context, taskType string) (int64, error)
}

// Metrics exposes server and cost gauges.
type Metrics struct {
	running *prometheus.GaugeVec
	cost    *prometheus.GaugeVec
}

// NewMetrics creates and registers the scaler metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		running: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gpu_servers_running",
				Help: "1 when the GPU server for the task type is running.",
			},
			[]string{"task_type"},
		),
		cost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gpu_cost_dollars",
				Help: "Estimated GPU spend in the current window.",
			},
			[]string{"window"},
		),
	}
	for _, c := range []prometheus.Collector{m.running, m.cost} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AutoScaler runs the scale up, scale down and cost checks.
type AutoScaler struct {
	queue   QueueLength
	servers Servers
	costs   *CostTracker
	cfg     config.ScalingConfig
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time

	thresholds map[string]int64
	enabled    atomic.Bool

	mu           sync.Mutex
	lastActivity map[string]time.Time
}

// New creates an autoscaler. metrics may be nil.
func New(q QueueLength, servers Servers, costs *CostTracker, cfg config.ScalingConfig, log zerolog.Logger, metrics *Metrics) *AutoScaler {
	a := &AutoScaler{
		queue:   q,
		servers: servers,
		costs:   costs,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		now:     time.Now,
		thresholds: map[string]int64{
			model.TaskVideoGeneration: int64(cfg.VideoScaleUpThreshold),
			model.TaskEvaluation:      int64(cfg.EvalScaleUpThreshold),
		},
		lastActivity: make(map[string]time.Time),
	}
	a.enabled.Store(cfg.Enabled)
	return a
}

// Enabled reports whether the scaler still acts. Emergency shutdown disables it.
func (a *AutoScaler) Enabled() bool { return a.enabled.Load() }

// Run checks every cfg.Interval until ctx is done or the scaler is disabled.
// A failed check waits cfg.ErrorBackoff before the next one.
func (a *AutoScaler) Run(ctx context.Context) error {
	for a.Enabled() {
		wait := a.cfg.Interval
		if err := a.Check(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.log.Error().Err(err).Str("event", "autoscaler_check_failed").Msg("autoscaler check failed")
			wait = a.cfg.ErrorBackoff
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
	a.log.Warn().Str("event", "autoscaler_stopped").Msg("autoscaler disabled")
	return nil
}

// Check runs one pass over both task types followed by cost accounting.
func (a *AutoScaler) Check(ctx context.Context) error {
	if !a.Enabled() {
		return nil
	}
	for _, tt := range model.TaskTypes {
		if err := a.ScaleUp(ctx, tt); err != nil {
			return err
		}
	}
	if err := a.scaleDown(ctx); err != nil {
		return err
	}
	return a.updateCosts(ctx)
}

// ScaleUp starts the server for taskType when its queue reached the threshold,
// the server is stopped and the budget allows another hour.
func (a *AutoScaler) ScaleUp(ctx context.Context, taskType string) error {
	if !a.Enabled() {
		return nil
	}
	n, err := a.queue.Len(ctx, taskType)
	if err != nil {
		return fmt.Errorf("queue length of %s: %w", taskType, err)
	}
	status, err := a.servers.Status(ctx, taskType)
	if err != nil {
		return fmt.Errorf("server status of %s: %w", taskType, err)
	}

	if n >= a.thresholds[taskType] && status == runpod.StatusStopped {
		if !a.costs.CanStart() {
			a.log.Warn().
				Str("event", "scale_up_blocked").
				Str("task_type", taskType).
				Int64("queue_length", n).
				Msg("cost limit blocks scale up")
		} else {
			_, err := a.servers.StartServer(ctx, taskType)
			switch {
			case errors.Is(err, runpod.ErrMaxInstances):
				a.log.Warn().Str("event", "scale_up_blocked").Str("task_type", taskType).Msg("instance limit reached")
			case err != nil:
				return err
			default:
				a.touch(taskType)
			}
		}
	}
	if n > 0 {
		a.touch(taskType)
	}
	return nil
}

func (a *AutoScaler) touch(taskType string) {
	a.mu.Lock()
	a.lastActivity[taskType] = a.now()
	a.mu.Unlock()
}

func (a *AutoScaler) scaleDown(ctx context.Context) error {
	now := a.now()
	for _, tt := range model.TaskTypes {
		a.mu.Lock()
		last, ok := a.lastActivity[tt]
		a.mu.Unlock()
		if !ok || now.Sub(last) <= a.cfg.IdleTimeout {
			continue
		}

		n, err := a.queue.Len(ctx, tt)
		if err != nil {
			return fmt.Errorf("queue length of %s: %w", tt, err)
		}
		if n != 0 {
			continue
		}
		if _, err := a.servers.StopServer(ctx, tt); err != nil {
			return err
		}
		a.mu.Lock()
		delete(a.lastActivity, tt)
		a.mu.Unlock()

		a.log.Info().
			Str("event", "scale_down").
			Str("task_type", tt).
			Float64("idle_seconds", now.Sub(last).Seconds()).
			Msg("gpu server idle, stopped")
	}
	return nil
}

func (a *AutoScaler) updateCosts(ctx context.Context) error {
	running := 0
	for _, tt := range model.TaskTypes {
		st, err := a.servers.Status(ctx, tt)
		if err != nil {
			return fmt.Errorf("server status of %s: %w", tt, err)
		}
		up := st == runpod.StatusRunning
		if up {
			running++
		}
		if a.metrics != nil {
			v := 0.0
			if up {
				v = 1
			}
			a.metrics.running.WithLabelValues(tt).Set(v)
		}
	}

	a.costs.Update(running)
	daily, monthly := a.costs.Spend()
	if a.metrics != nil {
		a.metrics.cost.WithLabelValues("daily").Set(daily)
		a.metrics.cost.WithLabelValues("monthly").Set(monthly)
	}

	if a.costs.ApproachingLimit() {
		a.log.Warn().
			Str("event", "cost_limit_approaching").
			Float64("daily_cost", daily).
			Float64("monthly_cost", monthly).
			Msg("approaching cost limit, scaling will be restricted")
	}
	if a.costs.LimitExceeded() {
		a.log.Error().
			Str("event", "cost_limit_exceeded").
			Float64("daily_cost", daily).
			Float64("monthly_cost", monthly).
			Msg("cost limit exceeded, stopping all instances")
		return a.EmergencyShutdown(ctx)
	}
	return nil
}

// EmergencyShutdown stops every server and disables the scaler.
func (a *AutoScaler) EmergencyShutdown(ctx context.Context) error {
	var errs []error
	for _, tt := range model.TaskTypes {
		if _, err := a.servers.StopServer(ctx, tt); err != nil {
			errs = append(errs, err)
		}
	}
	a.enabled.Store(false)
	return errors.Join(errs...)
}
