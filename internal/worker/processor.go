package worker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"

	"interviewapi/internal/gpu"
	"interviewapi/internal/model"
	"interviewapi/internal/queue"
	"interviewapi/internal/runpod"
)

// resultVideoFile is the key of the generated file name in a video generation result.
const resultVideoFile = "video_filename"

var errMissingFace = errors.New("video generation needs a face image")

// ProcessQueue drains the queue of every task type whose GPU server is running.
// It returns the number of tasks handled, successful or not.
func (r *Runner) ProcessQueue(ctx context.Context) (int, error) {
	handled := 0
	for _, tt := range model.TaskTypes {
		status, err := r.Servers.Status(ctx, tt)
		if err != nil {
			return handled, fmt.Errorf("%s server status: %w", tt, err)
		}
		if status != runpod.StatusRunning {
			continue
		}
		for ctx.Err() == nil {
			task, err := r.Queue.Dequeue(ctx, tt)
			if err != nil {
				return handled, err
			}
			if task == nil {
				break
			}
			if err := r.process(ctx, task); err != nil {
				return handled, err
			}
			handled++
		}
	}
	return handled, nil
}

// process runs one task and records the outcome in Redis and the database.
// Task failures are recorded, not returned; only bookkeeping errors are.
func (r *Runner) process(ctx context.Context, task *queue.Task) error {
	row, err := r.Tasks.FindByTaskID(ctx, task.TaskID)
	if err != nil {
		r.log.Error().Err(err).Str("event", "gpu_task_orphaned").Str("task_id", task.TaskID).Msg("task row missing")
		return r.Queue.MarkFailed(ctx, task, fmt.Sprintf("load task: %v", err))
	}

	start := r.now()
	row.Status = model.TaskProcessing
	row.ProcessingStartedAt = &start
	if pod := r.Servers.PodID(task.TaskType); pod != "" {
		row.GPUServerID = &pod
	}
	if err := r.Tasks.Update(ctx, row); err != nil {
		return fmt.Errorf("mark task %s processing: %w", task.TaskID, err)
	}

	result, output, runErr := r.run(ctx, task)

	end := r.now()
	elapsed := end.Sub(start)
	secs := int(elapsed.Seconds())
	row.ProcessingCompletedAt = &end
	row.ProcessingDuration = &secs
	row.GPUCost = r.opts.HourlyCost * elapsed.Hours()

	log := r.log.With().
		Str("task_id", task.TaskID).
		Str("task_type", task.TaskType).
		Int("duration_s", secs).
		Logger()

	// The task is already off the queue: the row is persisted even when Redis fails.
	var markErr error
	if runErr != nil {
		reason := runErr.Error()
		row.Status = model.TaskFailed
		row.ProcessingError = &reason
		markErr = r.Queue.MarkFailed(ctx, task, reason)
		log.Error().Err(runErr).Str("event", "gpu_task_failed").Msg("gpu task failed")
	} else {
		row.Status = model.TaskCompleted
		row.OutputFilePath = output
		markErr = r.Queue.MarkCompleted(ctx, task, result)
		log.Info().Str("event", "gpu_task_completed").Float64("gpu_cost", row.GPUCost).Msg("gpu task completed")
	}
	if markErr != nil {
		markErr = fmt.Errorf("record task %s result: %w", task.TaskID, markErr)
	}
	if err := r.Tasks.Update(ctx, row); err != nil {
		return errors.Join(markErr, fmt.Errorf("persist task %s: %w", task.TaskID, err))
	}
	return markErr
}

func (r *Runner) run(ctx context.Context, task *queue.Task) (map[string]any, *string, error) {
	switch task.TaskType {
	case model.TaskVideoGeneration:
		return r.runVideo(ctx, task)
	case model.TaskEvaluation:
		res, err := r.runEvaluation(ctx, task)
		return res, nil, err
	default:
		return nil, nil, fmt.Errorf("%w: %s", queue.ErrUnknownTaskType, task.TaskType)
	}
}

func (r *Runner) runVideo(ctx context.Context, task *queue.Task) (map[string]any, *string, error) {
	faceKey, _ := task.Parameters[queue.ParamFaceKey].(string)
	if faceKey == "" {
		return nil, nil, errMissingFace
	}

	audio, _, err := r.Store.Get(ctx, task.InputKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open audio: %w", err)
	}
	defer closeQuietly(audio)
	face, _, err := r.Store.Get(ctx, faceKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open face: %w", err)
	}
	defer closeQuietly(face)

	questionID := ""
	if task.QuestionID != nil {
		questionID = strconv.FormatInt(*task.QuestionID, 10)
	}
	res, err := r.GPU.GenerateVideo(ctx,
		gpu.Upload{Name: path.Base(task.InputKey), Body: audio},
		gpu.Upload{Name: path.Base(faceKey), Body: face},
		task.SessionID, questionID)
	if err != nil {
		return nil, nil, err
	}

	name, _ := res[resultVideoFile].(string)
	if name == "" {
		return res, nil, nil
	}
	key := fmt.Sprintf("%d/generated/%s_%s", task.UserID, task.TaskID, path.Base(name))
	if _, err := r.GPU.DownloadVideo(ctx, name, r.Store, key); err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", name, err)
	}
	res["output_key"] = key
	return res, &key, nil
}

func (r *Runner) runEvaluation(ctx context.Context, task *queue.Task) (map[string]any, error) {
	video, _, err := r.Store.Get(ctx, task.InputKey)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer closeQuietly(video)

	data := make(map[string]any, len(task.Parameters)+2)
	for k, v := range task.Parameters {
		data[k] = v
	}
	if task.SessionID != "" {
		data["session_id"] = task.SessionID
	}
	if task.QuestionID != nil {
		data["question_id"] = *task.QuestionID
	}
	return r.GPU.Evaluate(ctx, gpu.Upload{Name: path.Base(task.InputKey), Body: video}, data)
}
