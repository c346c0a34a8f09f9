package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"interviewapi/internal/gpu"
	"interviewapi/internal/model"
	"interviewapi/internal/queue"
	"interviewapi/internal/repository"
)

const recentCompletedLimit = 10

// QueueInput requests GPU work on one of the user's files.
type QueueInput struct {
	InputFileID string
	// FaceFileID is the face image used by video generation.
	FaceFileID string
	Parameters map[string]any
	Priority   int
	SessionID  string
	QuestionID *int64
}

// TaskStatus is the merged view of a task from the completion record, the pending lists or the DB.
type TaskStatus struct {
	TaskID      string         `json:"task_id"`
	TaskType    string         `json:"task_type"`
	Status      string         `json:"status"`
	Priority    int            `json:"priority,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// ScaleTrigger asks the autoscaler to react to new work right away.
type ScaleTrigger interface {
	ScaleUp(ctx context.Context, taskType string) error
}

// HealthChecker probes the GPU services.
type HealthChecker interface {
	CheckHealth(ctx context.Context) gpu.HealthReport
}

// GPUService queues GPU work and reports on it.
type GPUService interface {
	QueueVideoGeneration(ctx context.Context, userID int64, in QueueInput) (*model.GPUTask, error)
	QueueEvaluation(ctx context.Context, userID int64, in QueueInput) (*model.GPUTask, error)

	// TaskStatus reports a task owned by userID; other users' tasks are ErrTaskNotFound.
	TaskStatus(ctx context.Context, userID int64, taskID string) (*TaskStatus, error)

	// QueueStatus lists the user's pending tasks and the last completed ones.
	QueueStatus(ctx context.Context, userID int64) (*model.GPUQueueStatus, error)

	Stats(ctx context.Context, userID int64) (*model.GPUStats, error)
	ServicesHealth(ctx context.Context) gpu.HealthReport
}

type gpuService struct {
	files  repository.FileRepository
	tasks  repository.GPUTaskRepository
	queue  queue.Queue
	scaler ScaleTrigger
	health HealthChecker
	log    zerolog.Logger
	now    func() time.Time
}

// NewGPUService constructs a new GPUService. q and scaler may be nil when Redis or scaling is disabled.
func NewGPUService(
	files repository.FileRepository,
	tasks repository.GPUTaskRepository,
	q queue.Queue,
	scaler ScaleTrigger,
	health HealthChecker,
	log zerolog.Logger,
) GPUService {
	return &gpuService{
		files:  files,
		tasks:  tasks,
		queue:  q,
		scaler: scaler,
		health: health,
		log:    log,
		now:    time.Now,
	}
}

func (s *gpuService) QueueVideoGeneration(ctx context.Context, userID int64, in QueueInput) (*model.GPUTask, error) {
	return s.enqueue(ctx, userID, model.TaskVideoGeneration, in)
}

func (s *gpuService) QueueEvaluation(ctx context.Context, userID int64, in QueueInput) (*model.GPUTask, error) {
	return s.enqueue(ctx, userID, model.TaskEvaluation, in)
}

func (s *gpuService) inputFile(ctx context.Context, userID int64, fileID string) (*model.FileMetadata, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	f, err := s.files.FindByFileID(ctx, userID, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInputFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func clampPriority(p int) int {
	switch {
	case p < model.PriorityLow:
		return model.PriorityLow
	case p > model.PriorityHigh:
		return model.PriorityHigh
	}
	return p
}

func (s *gpuService) enqueue(ctx context.Context, userID int64, taskType string, in QueueInput) (*model.GPUTask, error) {
	if s.queue == nil {
		return nil, ErrQueueUnavailable
	}
	input, err := s.inputFile(ctx, userID, in.InputFileID)
	if err != nil {
		return nil, err
	}

	params := make(map[string]any, len(in.Parameters)+1)
	for k, v := range in.Parameters {
		params[k] = v
	}
	if in.FaceFileID != "" {
		face, err := s.inputFile(ctx, userID, in.FaceFileID)
		if err != nil {
			return nil, err
		}
		params[queue.ParamFaceKey] = face.FilePath
	}

	t := &model.GPUTask{
		TaskID:        uuid.New().String(),
		TaskType:      taskType,
		UserID:        userID,
		QuestionID:    in.QuestionID,
		InputFilePath: input.FilePath,
		Parameters:    params,
		Status:        model.TaskQueued,
		Priority:      clampPriority(in.Priority),
		CreatedAt:     s.now().UTC(),
	}
	if in.SessionID != "" {
		sid := in.SessionID
		t.SessionID = &sid
	}

	stored, err := s.tasks.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	err = s.queue.Enqueue(ctx, queue.Task{
		TaskID:     stored.TaskID,
		TaskType:   taskType,
		UserID:     userID,
		SessionID:  in.SessionID,
		QuestionID: in.QuestionID,
		InputKey:   stored.InputFilePath,
		Parameters: params,
		Priority:   stored.Priority,
		Status:     model.TaskQueued,
		CreatedAt:  stored.CreatedAt,
	})
	if err != nil {
		reason := err.Error()
		stored.Status = model.TaskFailed
		stored.ProcessingError = &reason
		if uerr := s.tasks.Update(ctx, stored); uerr != nil {
			s.log.Error().Err(uerr).Str("event", "task_mark_failed").Str("task_id", stored.TaskID).Msg("mark task failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	if s.scaler != nil {
		if err := s.scaler.ScaleUp(ctx, taskType); err != nil {
			s.log.Warn().Err(err).Str("event", "scale_up").Str("task_type", taskType).Msg("scale up request failed")
		}
	}
	s.log.Info().
		Str("event", "task_queued").
		Str("task_id", stored.TaskID).
		Str("task_type", taskType).
		Int64("user_id", userID).
		Int("priority", stored.Priority).
		Msg("gpu task queued")
	return stored, nil
}

// TaskStatus checks ownership against the DB row, then prefers the fresher
// Redis completion record and pending lists over the row itself.
func (s *gpuService) TaskStatus(ctx context.Context, userID int64, taskID string) (*TaskStatus, error) {
	if taskID == "" {
		return nil, ErrIDRequired
	}

	t, err := s.tasks.FindByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrTaskNotFound
	}

	if s.queue != nil {
		res, err := s.queue.Completed(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if res != nil {
			completed := res.CompletedAt
			return &TaskStatus{
				TaskID:      res.TaskID,
				TaskType:    res.TaskType,
				Status:      res.Status,
				Result:      res.Result,
				Error:       res.Error,
				CompletedAt: &completed,
			}, nil
		}

		pending, err := s.queue.Find(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if pending != nil {
			created := pending.CreatedAt
			return &TaskStatus{
				TaskID:    pending.TaskID,
				TaskType:  pending.TaskType,
				Status:    pending.Status,
				Priority:  pending.Priority,
				CreatedAt: &created,
			}, nil
		}
	}

	created := t.CreatedAt
	st := &TaskStatus{
		TaskID:      t.TaskID,
		TaskType:    t.TaskType,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   &created,
		CompletedAt: t.ProcessingCompletedAt,
	}
	if t.ProcessingError != nil {
		st.Error = *t.ProcessingError
	}
	return st, nil
}

func (s *gpuService) QueueStatus(ctx context.Context, userID int64) (*model.GPUQueueStatus, error) {
	active, err := s.tasks.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	done, err := s.tasks.ListRecentCompleted(ctx, userID, recentCompletedLimit)
	if err != nil {
		return nil, err
	}
	if active == nil {
		active = []model.GPUTask{}
	}
	if done == nil {
		done = []model.GPUTask{}
	}
	return &model.GPUQueueStatus{
		QueuedTasks:    active,
		CompletedTasks: done,
		QueueLength:    len(active),
		TotalCompleted: len(done),
	}, nil
}

func (s *gpuService) Stats(ctx context.Context, userID int64) (*model.GPUStats, error) {
	all, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var st model.GPUStats
	var cost float64
	for _, t := range all {
		switch t.Status {
		case model.TaskCompleted:
			st.CompletedTasks++
		case model.TaskFailed:
			st.FailedTasks++
		}
		cost += t.GPUCost
		if t.ProcessingDuration != nil {
			st.TotalProcessingTime += *t.ProcessingDuration
		}
	}
	st.TotalTasks = len(all)
	st.SuccessRate = percent(st.CompletedTasks, st.TotalTasks)
	st.TotalGPUCost = round(cost, 4)
	if st.TotalTasks > 0 {
		st.AverageCostPerTask = round(cost/float64(st.TotalTasks), 4)
	}
	return &st, nil
}

func (s *gpuService) ServicesHealth(ctx context.Context) gpu.HealthReport {
	return s.health.CheckHealth(ctx)
}
