// Package queue holds pending GPU work in Redis lists, one list per task type.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"interviewapi/internal/model"
)

// ResultTTL is how long completion records are kept.
const ResultTTL = 24 * time.Hour

// ParamFaceKey is the Task.Parameters entry holding the storage key of the face image for video generation.
const ParamFaceKey = "face_key"

var listKeys = map[string]string{
	model.TaskVideoGeneration: "video_generation_queue",
	model.TaskEvaluation:      "evaluation_queue",
}

// ErrUnknownTaskType is returned for task types without a list.
var ErrUnknownTaskType = errors.New("unknown task type")

// Task is the payload pushed to a list. Input files are referenced by storage key.
type Task struct {
	TaskID     string         `json:"task_id"`
	TaskType   string         `json:"task_type"`
	UserID     int64          `json:"user_id"`
	SessionID  string         `json:"session_id,omitempty"`
	QuestionID *int64         `json:"question_id,omitempty"`
	InputKey   string         `json:"input_key"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Priority   int            `json:"priority"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Result is the completion record stored under completed_<task_id>.
type Result struct {
	TaskID      string         `json:"task_id"`
	TaskType    string         `json:"task_type"`
	Status      string         `json:"status"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Queue is the GPU work queue.
type Queue interface {
	Enqueue(ctx context.Context, t Task) error
	// Dequeue pops the oldest task of the type; nil when the list is empty.
	Dequeue(ctx context.Context, taskType string) (*Task, error)
	Len(ctx context.Context, taskType string) (int64, error)
	// Find scans pending lists for the task; nil when absent.
	Find(ctx context.Context, taskID string) (*Task, error)
	MarkCompleted(ctx context.Context, t *Task, result map[string]any) error
	MarkFailed(ctx context.Context, t *Task, reason string) error
	// Completed returns the completion record; nil when absent or expired.
	Completed(ctx context.Context, taskID string) (*Result, error)
	Ping(ctx context.Context) error
}

// Metrics are the queue gauges and counters.
type Metrics struct {
	length *prometheus.GaugeVec
	tasks  *prometheus.CounterVec
}

// NewMetrics creates and registers the queue metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		length: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gpu_queue_length",
				Help: "Pending GPU tasks per task type.",
			},
			[]string{"task_type"},
		),
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gpu_tasks_total",
				Help: "GPU tasks by type and terminal or queued status.",
			},
			[]string{"task_type", "status"},
		),
	}
	for _, c := range []prometheus.Collector{m.length, m.tasks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RedisQueue implements Queue on Redis lists: LPUSH to enqueue, RPOP to dequeue.
type RedisQueue struct {
	rdb     redis.Cmdable
	metrics *Metrics
	now     func() time.Time
}

var _ Queue = (*RedisQueue)(nil)

// NewRedis wraps a Redis client. metrics may be nil.
func NewRedis(rdb redis.Cmdable, metrics *Metrics) *RedisQueue {
	return &RedisQueue{rdb: rdb, metrics: metrics, now: time.Now}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func listKey(taskType string) (string, error) {
	k, ok := listKeys[taskType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTaskType, taskType)
	}
	return k, nil
}

func completedKey(taskID string) string { return "completed_" + taskID }

func (q *RedisQueue) Enqueue(ctx context.Context, t Task) error {
	key, err := listKey(t.TaskType)
	if err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = model.TaskQueued
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = q.now().UTC()
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	n, err := q.rdb.LPush(ctx, key, b).Result()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", t.TaskID, err)
	}
	if q.metrics != nil {
		q.metrics.tasks.WithLabelValues(t.TaskType, model.TaskQueued).Inc()
		q.metrics.length.WithLabelValues(t.TaskType).Set(float64(n))
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, taskType string) (*Task, error) {
	key, err := listKey(taskType)
	if err != nil {
		return nil, err
	}
	raw, err := q.rdb.RPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue %s: %w", taskType, err)
	}
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode task from %s: %w", key, err)
	}
	return &t, nil
}

func (q *RedisQueue) Len(ctx context.Context, taskType string) (int64, error) {
	key, err := listKey(taskType)
	if err != nil {
		return 0, err
	}
	n, err := q.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if q.metrics != nil {
		q.metrics.length.WithLabelValues(taskType).Set(float64(n))
	}
	return n, nil
}

func (q *RedisQueue) Find(ctx context.Context, taskID string) (*Task, error) {
	for _, tt := range model.TaskTypes {
		items, err := q.rdb.LRange(ctx, listKeys[tt], 0, -1).Result()
		if err != nil {
			return nil, err
		}
		for _, raw := range items {
			var t Task
			if err := json.Unmarshal([]byte(raw), &t); err != nil {
				continue
			}
			if t.TaskID == taskID {
				return &t, nil
			}
		}
	}
	return nil, nil
}

func (q *RedisQueue) MarkCompleted(ctx context.Context, t *Task, result map[string]any) error {
	return q.finish(ctx, Result{
		TaskID:   t.TaskID,
		TaskType: t.TaskType,
		Status:   model.TaskCompleted,
		Result:   result,
	})
}

func (q *RedisQueue) MarkFailed(ctx context.Context, t *Task, reason string) error {
	return q.finish(ctx, Result{
		TaskID:   t.TaskID,
		TaskType: t.TaskType,
		Status:   model.TaskFailed,
		Error:    reason,
	})
}

func (q *RedisQueue) finish(ctx context.Context, r Result) error {
	r.CompletedAt = q.now().UTC()
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := q.rdb.SetEx(ctx, completedKey(r.TaskID), b, ResultTTL).Err(); err != nil {
		return fmt.Errorf("store result of %s: %w", r.TaskID, err)
	}
	if q.metrics != nil {
		q.metrics.tasks.WithLabelValues(r.TaskType, r.Status).Inc()
	}
	return nil
}

func (q *RedisQueue) Completed(ctx context.Context, taskID string) (*Result, error) {
	raw, err := q.rdb.Get(ctx, completedKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode result of %s: %w", taskID, err)
	}
	return &r, nil
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}
