package mocks

import (
	"context"

	"interviewapi/internal/queue"

	"github.com/stretchr/testify/mock"
)

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, t queue.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockQueue) Dequeue(ctx context.Context, taskType string) (*queue.Task, error) {
	args := m.Called(ctx, taskType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Task), args.Error(1)
}

func (m *MockQueue) Len(ctx context.Context, taskType string) (int64, error) {
	args := m.Called(ctx, taskType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueue) Find(ctx context.Context, taskID string) (*queue.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Task), args.Error(1)
}

func (m *MockQueue) MarkCompleted(ctx context.Context, t *queue.Task, result map[string]any) error {
	args := m.Called(ctx, t, result)
	return args.Error(0)
}

func (m *MockQueue) MarkFailed(ctx context.Context, t *queue.Task, reason string) error {
	args := m.Called(ctx, t, reason)
	return args.Error(0)
}

func (m *MockQueue) Completed(ctx context.Context, taskID string) (*queue.Result, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Result), args.Error(1)
}

func (m *MockQueue) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
