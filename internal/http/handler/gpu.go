package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"interviewapi/internal/auth"
	"interviewapi/internal/model"
	"interviewapi/internal/service"
)

// QueueVideoGeneration queues a talking-head video for an uploaded audio file.
// @Summary Queue video generation
// @Tags gpu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body QueueTaskRequest true "Task"
// @Success 202 {object} QueuedTaskResponse
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/v1/gpu/queue/video-generation [post]
func QueueVideoGeneration(svc service.GPUService) fiber.Handler {
	return queueTask(model.TaskVideoGeneration, "Video generation task queued successfully", svc.QueueVideoGeneration)
}

// QueueEvaluation queues the evaluation of an uploaded answer video.
// @Summary Queue evaluation
// @Tags gpu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body QueueTaskRequest true "Task"
// @Success 202 {object} QueuedTaskResponse
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/v1/gpu/queue/evaluation [post]
func QueueEvaluation(svc service.GPUService) fiber.Handler {
	return queueTask(model.TaskEvaluation, "Evaluation task queued successfully", svc.QueueEvaluation)
}

type queueFunc func(ctx context.Context, userID int64, in service.QueueInput) (*model.GPUTask, error)

func queueTask(taskType, message string, enqueue queueFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req QueueTaskRequest
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
		task, err := enqueue(c.UserContext(), auth.UserFrom(c).ID, req.toInput())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(QueuedTaskResponse{
			TaskID:   task.TaskID,
			TaskType: taskType,
			Status:   model.TaskQueued,
			Message:  message,
		})
	}
}

// GetTaskStatus reports where a task is in its lifecycle.
// @Summary GPU task status
// @Tags gpu
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} service.TaskStatus
// @Failure 404 {object} errorPayload
// @Router /api/v1/gpu/tasks/{id} [get]
func GetTaskStatus(svc service.GPUService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.TaskStatus(c.UserContext(), auth.UserFrom(c).ID, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}

// GetQueueStatus lists the caller's pending and recently completed tasks.
// @Summary GPU queue status
// @Tags gpu
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.GPUQueueStatus
// @Router /api/v1/gpu/queue/status [get]
func GetQueueStatus(svc service.GPUService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.QueueStatus(c.UserContext(), auth.UserFrom(c).ID)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}

// GetGPUStats aggregates the caller's GPU usage.
// @Summary GPU statistics
// @Tags gpu
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.GPUStats
// @Router /api/v1/gpu/stats [get]
func GetGPUStats(svc service.GPUService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Stats(c.UserContext(), auth.UserFrom(c).ID)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}

// GetGPUHealth probes the GPU services.
// @Summary GPU services health
// @Tags gpu
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gpu.HealthReport
// @Router /api/v1/gpu/health [get]
func GetGPUHealth(svc service.GPUService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.ServicesHealth(c.UserContext()))
	}
}
