package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// GPUTaskPostgres is a PostgreSQL implementation of repository.GPUTaskRepository.
type GPUTaskPostgres struct {
	db *sql.DB
}

// NewGPUTaskPostgres creates a new GPUTaskPostgres repository.
func NewGPUTaskPostgres(db *sql.DB) *GPUTaskPostgres {
	return &GPUTaskPostgres{db: db}
}

var _ repository.GPUTaskRepository = (*GPUTaskPostgres)(nil)

const gpuTaskColumns = `id, task_id, task_type, user_id, session_id, question_id, input_file_path,
	output_file_path, parameters, status, priority, gpu_server_id, processing_started_at,
	processing_completed_at, processing_error, gpu_cost, processing_duration, created_at, updated_at`

func scanGPUTask(row interface{ Scan(...any) error }) (*model.GPUTask, error) {
	var t model.GPUTask
	var input sql.NullString
	var params []byte
	if err := row.Scan(
		&t.ID,
		&t.TaskID,
		&t.TaskType,
		&t.UserID,
		&t.SessionID,
		&t.QuestionID,
		&input,
		&t.OutputFilePath,
		&params,
		&t.Status,
		&t.Priority,
		&t.GPUServerID,
		&t.ProcessingStartedAt,
		&t.ProcessingCompletedAt,
		&t.ProcessingError,
		&t.GPUCost,
		&t.ProcessingDuration,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.InputFilePath = input.String
	if len(params) > 0 {
		if err := json.Unmarshal(params, &t.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters of task %s: %w", t.TaskID, err)
		}
	}
	return &t, nil
}

func scanGPUTasks(rows *sql.Rows) ([]model.GPUTask, error) {
	defer rows.Close()
	items := make([]model.GPUTask, 0)
	for rows.Next() {
		t, err := scanGPUTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// Create inserts a queued task.
func (r *GPUTaskPostgres) Create(ctx context.Context, t *model.GPUTask) (*model.GPUTask, error) {
	var params []byte
	if t.Parameters != nil {
		b, err := json.Marshal(t.Parameters)
		if err != nil {
			return nil, fmt.Errorf("encode parameters: %w", err)
		}
		params = b
	}

	const q = `
		INSERT INTO gpu_processing_queue (task_id, task_type, user_id, session_id, question_id,
			input_file_path, parameters, status, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + gpuTaskColumns
	return scanGPUTask(r.db.QueryRowContext(ctx, q,
		t.TaskID,
		t.TaskType,
		t.UserID,
		t.SessionID,
		t.QuestionID,
		t.InputFilePath,
		params,
		t.Status,
		t.Priority,
		t.CreatedAt,
	))
}

// FindByTaskID fetches a task by its public ID.
func (r *GPUTaskPostgres) FindByTaskID(ctx context.Context, taskID string) (*model.GPUTask, error) {
	const q = `SELECT ` + gpuTaskColumns + ` FROM gpu_processing_queue WHERE task_id = $1`
	return scanGPUTask(r.db.QueryRowContext(ctx, q, taskID))
}

// Update writes the processing columns of a task.
func (r *GPUTaskPostgres) Update(ctx context.Context, t *model.GPUTask) error {
	const q = `
		UPDATE gpu_processing_queue
		SET status = $2, output_file_path = $3, gpu_server_id = $4, processing_started_at = $5,
			processing_completed_at = $6, processing_error = $7, gpu_cost = $8,
			processing_duration = $9, updated_at = now()
		WHERE task_id = $1
	`
	_, err := r.db.ExecContext(ctx, q,
		t.TaskID,
		t.Status,
		t.OutputFilePath,
		t.GPUServerID,
		t.ProcessingStartedAt,
		t.ProcessingCompletedAt,
		t.ProcessingError,
		t.GPUCost,
		t.ProcessingDuration,
	)
	return err
}

// ListActive returns the user's queued and processing tasks.
func (r *GPUTaskPostgres) ListActive(ctx context.Context, userID int64) ([]model.GPUTask, error) {
	const q = `
		SELECT ` + gpuTaskColumns + `
		FROM gpu_processing_queue
		WHERE user_id = $1 AND status IN ('queued', 'processing')
		ORDER BY priority DESC, created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanGPUTasks(rows)
}

// ListRecentCompleted returns the user's latest completed tasks.
func (r *GPUTaskPostgres) ListRecentCompleted(ctx context.Context, userID int64, limit int) ([]model.GPUTask, error) {
	const q = `
		SELECT ` + gpuTaskColumns + `
		FROM gpu_processing_queue
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanGPUTasks(rows)
}

// ListByUser returns every task of the user.
func (r *GPUTaskPostgres) ListByUser(ctx context.Context, userID int64) ([]model.GPUTask, error) {
	const q = `SELECT ` + gpuTaskColumns + ` FROM gpu_processing_queue WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanGPUTasks(rows)
}
