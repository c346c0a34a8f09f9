package scaler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"interviewapi/internal/config"
	"interviewapi/internal/model"
	"interviewapi/internal/runpod"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu  sync.Mutex
	n   map[string]int64
	err error
}

func (f *fakeQueue) Len(_ context.Context, tt string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n[tt], f.err
}

func (f *fakeQueue) set(tt string, n int64) {
	f.mu.Lock()
	f.n[tt] = n
	f.mu.Unlock()
}

var testScaling = config.ScalingConfig{
	Enabled:               true,
	MaxInstances:          2,
	VideoScaleUpThreshold: 1,
	EvalScaleUpThreshold:  2,
	IdleTimeout:           5 * time.Minute,
	Interval:              10 * time.Millisecond,
	ErrorBackoff:          10 * time.Millisecond,
	HourlyCost:            0.27,
	DailyCostLimit:        50,
	MonthlyCostLimit:      500,
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time      { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }

func newTestScaler(t *testing.T, q *fakeQueue) (*AutoScaler, *runpod.Manager, *clock, *Metrics) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	mgr := runpod.NewManager(runpod.NewSimulatedAPI(), config.RunPodConfig{VideoTemplateID: "v", EvalTemplateID: "e"}, 2, zerolog.Nop())
	costs := NewCostTracker(testScaling.HourlyCost, testScaling.DailyCostLimit, testScaling.MonthlyCostLimit)
	costs.now = clk.now
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	a := New(q, mgr, costs, testScaling, zerolog.Nop(), m)
	a.now = clk.now
	return a, mgr, clk, m
}

func TestAutoScaler_ScaleUpThresholds(t *testing.T) {
	q := &fakeQueue{n: map[string]int64{model.TaskVideoGeneration: 1, model.TaskEvaluation: 1}}
	a, mgr, _, m := newTestScaler(t, q)
	ctx := context.Background()

	require.NoError(t, a.Check(ctx))

	assert.NotEmpty(t, mgr.PodID(model.TaskVideoGeneration))
	assert.Empty(t, mgr.PodID(model.TaskEvaluation), "evaluation needs two queued tasks")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.running.WithLabelValues(model.TaskVideoGeneration)))

	q.set(model.TaskEvaluation, 2)
	require.NoError(t, a.Check(ctx))
	assert.NotEmpty(t, mgr.PodID(model.TaskEvaluation))
}

func TestAutoScaler_ScaleDownAfterIdle(t *testing.T) {
	q := &fakeQueue{n: map[string]int64{model.TaskVideoGeneration: 1}}
	a, mgr, clk, _ := newTestScaler(t, q)
	ctx := context.Background()

	require.NoError(t, a.Check(ctx))
	require.NotEmpty(t, mgr.PodID(model.TaskVideoGeneration))

	q.set(model.TaskVideoGeneration, 0)
	clk.add(4 * time.Minute)
	require.NoError(t, a.Check(ctx))
	assert.NotEmpty(t, mgr.PodID(model.TaskVideoGeneration), "not idle long enough")

	clk.add(2 * time.Minute)
	require.NoError(t, a.Check(ctx))
	assert.Empty(t, mgr.PodID(model.TaskVideoGeneration))
}

func TestAutoScaler_BusyQueueKeepsServer(t *testing.T) {
	q := &fakeQueue{n: map[string]int64{model.TaskVideoGeneration: 3}}
	a, mgr, clk, _ := newTestScaler(t, q)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, a.Check(ctx))
		clk.add(3 * time.Minute)
	}
	assert.NotEmpty(t, mgr.PodID(model.TaskVideoGeneration))
}

func TestAutoScaler_CostLimitBlocksStart(t *testing.T) {
	q := &fakeQueue{n: map[string]int64{model.TaskVideoGeneration: 1}}
	a, mgr, _, _ := newTestScaler(t, q)
	a.costs.daily = 0.1

	require.NoError(t, a.Check(context.Background()))

	assert.Empty(t, mgr.PodID(model.TaskVideoGeneration))
	assert.True(t, a.Enabled())
}

func TestAutoScaler_EmergencyShutdown(t *testing.T) {
	q := &fakeQueue{n: map[string]int64{model.TaskVideoGeneration: 1, model.TaskEvaluation: 2}}
	a, mgr, clk, _ := newTestScaler(t, q)
	a.costs.daily = 1.0
	ctx := context.Background()

	require.NoError(t, a.Check(ctx))
	require.Equal(t, 2, mgr.Running())

	// two pods for two hours at 0.27/h = 1.08 > 1.0
	clk.add(2 * time.Hour)
	require.NoError(t, a.Check(ctx))

	assert.Equal(t, 0, mgr.Running())
	assert.False(t, a.Enabled())

	require.NoError(t, a.Check(ctx))
	assert.Equal(t, 0, mgr.Running(), "disabled scaler does nothing")
}

func TestAutoScaler_RunStopsOnCancel(t *testing.T) {
	q := &fakeQueue{n: map[string]int64{}, err: errors.New("redis down")}
	a, _, _, _ := newTestScaler(t, q)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestAutoScaler_DisabledRunReturns(t *testing.T) {
	cfg := testScaling
	cfg.Enabled = false
	a := New(&fakeQueue{n: map[string]int64{}}, nil, NewCostTracker(0.27, 50, 500), cfg, zerolog.Nop(), nil)

	assert.NoError(t, a.Run(context.Background()))
	assert.NoError(t, a.Check(context.Background()))
}

func TestCostTracker(t *testing.T) {
	clk := &clock{t: time.Date(2024, 5, 31, 22, 0, 0, 0, time.UTC)}
	c := NewCostTracker(1, 10, 100)
	c.now = clk.now

	assert.True(t, c.CanStart())

	c.Update(2)
	clk.add(90 * time.Minute)
	c.Update(2)
	d, m := c.Spend()
	assert.InDelta(t, 3.0, d, 1e-9)
	assert.InDelta(t, 3.0, m, 1e-9)

	clk.add(4 * time.Hour)
	c.Update(1)
	d, _ = c.Spend()
	assert.InDelta(t, 4.0, d, 1e-9, "new month resets both windows before billing")
	_, m = c.Spend()
	assert.InDelta(t, 4.0, m, 1e-9)

	clk.add(5*time.Hour + 30*time.Minute)
	c.Update(1)
	assert.True(t, c.ApproachingLimit())
	assert.False(t, c.LimitExceeded())
	assert.False(t, c.CanStart())

	clk.add(3 * time.Hour)
	c.Update(1)
	assert.True(t, c.LimitExceeded())
}
