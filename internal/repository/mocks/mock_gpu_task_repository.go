package mocks

import (
	"context"

	"interviewapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockGPUTaskRepository struct {
	mock.Mock
}

func (m *MockGPUTaskRepository) Create(ctx context.Context, t *model.GPUTask) (*model.GPUTask, error) {
	args := m.Called(ctx, t)
	if fn, ok := args.Get(0).(func(context.Context, *model.GPUTask) *model.GPUTask); ok {
		return fn(ctx, t), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GPUTask), args.Error(1)
}

func (m *MockGPUTaskRepository) FindByTaskID(ctx context.Context, taskID string) (*model.GPUTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GPUTask), args.Error(1)
}

func (m *MockGPUTaskRepository) Update(ctx context.Context, t *model.GPUTask) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockGPUTaskRepository) ListActive(ctx context.Context, userID int64) ([]model.GPUTask, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GPUTask), args.Error(1)
}

func (m *MockGPUTaskRepository) ListRecentCompleted(ctx context.Context, userID int64, limit int) ([]model.GPUTask, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GPUTask), args.Error(1)
}

func (m *MockGPUTaskRepository) ListByUser(ctx context.Context, userID int64) ([]model.GPUTask, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GPUTask), args.Error(1)
}
