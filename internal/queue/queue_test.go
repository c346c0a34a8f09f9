package queue

import (
	"context"
	"testing"
	"time"

	"interviewapi/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis, *Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewRedis(rdb, m), mr, m
}

func TestRedisQueue_FIFO(t *testing.T) {
	q, _, m := newTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, Task{TaskID: id, TaskType: model.TaskVideoGeneration, UserID: 1}))
	}

	n, err := q.Len(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.length.WithLabelValues(model.TaskVideoGeneration)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tasks.WithLabelValues(model.TaskVideoGeneration, model.TaskQueued)))

	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Dequeue(ctx, model.TaskVideoGeneration)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got.TaskID)
		assert.Equal(t, model.TaskQueued, got.Status)
		assert.False(t, got.CreatedAt.IsZero())
	}

	empty, err := q.Dequeue(ctx, model.TaskVideoGeneration)
	assert.NoError(t, err)
	assert.Nil(t, empty)
}

func TestRedisQueue_SeparateLists(t *testing.T) {
	q, mr, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Task{TaskID: "v", TaskType: model.TaskVideoGeneration}))
	require.NoError(t, q.Enqueue(ctx, Task{TaskID: "e", TaskType: model.TaskEvaluation}))

	assert.True(t, mr.Exists("video_generation_queue"))
	assert.True(t, mr.Exists("evaluation_queue"))

	n, _ := q.Len(ctx, model.TaskEvaluation)
	assert.Equal(t, int64(1), n)

	err := q.Enqueue(ctx, Task{TaskID: "x", TaskType: "tts"})
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestRedisQueue_Find(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Task{TaskID: "v1", TaskType: model.TaskVideoGeneration}))
	require.NoError(t, q.Enqueue(ctx, Task{TaskID: "e1", TaskType: model.TaskEvaluation, InputKey: "1/x.mp4"}))

	got, err := q.Find(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1/x.mp4", got.InputKey)

	missing, err := q.Find(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisQueue_CompletionRecords(t *testing.T) {
	q, mr, m := newTestQueue(t)
	ctx := context.Background()

	ok := &Task{TaskID: "t1", TaskType: model.TaskEvaluation}
	bad := &Task{TaskID: "t2", TaskType: model.TaskEvaluation}

	require.NoError(t, q.MarkCompleted(ctx, ok, map[string]any{"score": 88.0}))
	require.NoError(t, q.MarkFailed(ctx, bad, "gpu down"))

	r1, err := q.Completed(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, r1.Status)
	assert.Equal(t, 88.0, r1.Result["score"])

	r2, err := q.Completed(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, model.TaskFailed, r2.Status)
	assert.Equal(t, "gpu down", r2.Error)

	assert.Equal(t, ResultTTL, mr.TTL("completed_t1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues(model.TaskEvaluation, model.TaskFailed)))

	mr.FastForward(ResultTTL + time.Second)
	gone, err := q.Completed(ctx, "t1")
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRedisQueue_DecodeError(t *testing.T) {
	q, mr, _ := newTestQueue(t)

	_, err := mr.Lpush("evaluation_queue", "{broken")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background(), model.TaskEvaluation)
	assert.ErrorContains(t, err, "decode task")
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, NewRedis(rdb, nil).Ping(context.Background()))

	_, err = Connect(context.Background(), "::not a url")
	assert.ErrorContains(t, err, "parse redis url")
}
