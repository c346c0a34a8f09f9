package mocks

import (
	"context"

	"interviewapi/internal/gpu"
	"interviewapi/internal/model"
	"interviewapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockGPUService struct {
	mock.Mock
}

func (m *MockGPUService) QueueVideoGeneration(ctx context.Context, userID int64, in service.QueueInput) (*model.GPUTask, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GPUTask), args.Error(1)
}

func (m *MockGPUService) QueueEvaluation(ctx context.Context, userID int64, in service.QueueInput) (*model.GPUTask, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GPUTask), args.Error(1)
}

func (m *MockGPUService) TaskStatus(ctx context.Context, userID int64, taskID string) (*service.TaskStatus, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskStatus), args.Error(1)
}

func (m *MockGPUService) QueueStatus(ctx context.Context, userID int64) (*model.GPUQueueStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GPUQueueStatus), args.Error(1)
}

func (m *MockGPUService) Stats(ctx context.Context, userID int64) (*model.GPUStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GPUStats), args.Error(1)
}

func (m *MockGPUService) ServicesHealth(ctx context.Context) gpu.HealthReport {
	args := m.Called(ctx)
	return args.Get(0).(gpu.HealthReport)
}
