package model

import "time"

// GPU task types. Each type is served by its own GPU server.
const (
	TaskVideoGeneration = "video_generation"
	TaskEvaluation      = "evaluation"
)

// TaskTypes lists every GPU task type.
var TaskTypes = []string{TaskVideoGeneration, TaskEvaluation}

// GPU task statuses.
const (
	TaskQueued     = "queued"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// Task priorities.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// GPUTask is the durable record of a unit of GPU work.
type GPUTask struct {
	ID                    int64          `json:"-"`
	TaskID                string         `json:"task_id"`
	TaskType              string         `json:"task_type"`
	UserID                int64          `json:"-"`
	SessionID             *string        `json:"session_id,omitempty"`
	QuestionID            *int64         `json:"question_id,omitempty"`
	InputFilePath         string         `json:"-"`
	OutputFilePath        *string        `json:"output_file_path,omitempty"`
	Parameters            map[string]any `json:"parameters,omitempty"`
	Status                string         `json:"status"`
	Priority              int            `json:"priority"`
	GPUServerID           *string        `json:"gpu_server_id,omitempty"`
	ProcessingStartedAt   *time.Time     `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time     `json:"completed_at,omitempty"`
	ProcessingError       *string        `json:"processing_error,omitempty"`
	GPUCost               float64        `json:"gpu_cost"`
	ProcessingDuration    *int           `json:"processing_duration,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"-"`
}

// GPUQueueStatus is a user's view of pending and recent GPU work.
type GPUQueueStatus struct {
	QueuedTasks    []GPUTask `json:"queued_tasks"`
	CompletedTasks []GPUTask `json:"completed_tasks"`
	QueueLength    int       `json:"queue_length"`
	TotalCompleted int       `json:"total_completed"`
}

// GPUStats aggregates a user's GPU usage.
type GPUStats struct {
	TotalTasks          int     `json:"total_tasks"`
	CompletedTasks      int     `json:"completed_tasks"`
	FailedTasks         int     `json:"failed_tasks"`
	SuccessRate         float64 `json:"success_rate"`
	TotalGPUCost        float64 `json:"total_gpu_cost"`
	TotalProcessingTime int     `json:"total_processing_time"`
	AverageCostPerTask  float64 `json:"average_cost_per_task"`
}
