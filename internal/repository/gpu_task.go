package repository

import (
	"context"

	"interviewapi/internal/model"
)

// GPUTaskRepository persists the durable side of the GPU queue.
type GPUTaskRepository interface {
	Create(ctx context.Context, t *model.GPUTask) (*model.GPUTask, error)
	FindByTaskID(ctx context.Context, taskID string) (*model.GPUTask, error)

	// Update writes the mutable processing columns (status, output, server, timings, error, cost).
	Update(ctx context.Context, t *model.GPUTask) error

	// ListActive returns queued and processing tasks, highest priority then oldest first.
	ListActive(ctx context.Context, userID int64) ([]model.GPUTask, error)

	// ListRecentCompleted returns up to limit completed tasks, newest first.
	ListRecentCompleted(ctx context.Context, userID int64, limit int) ([]model.GPUTask, error)

	ListByUser(ctx context.Context, userID int64) ([]model.GPUTask, error)
}
