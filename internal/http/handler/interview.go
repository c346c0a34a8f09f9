package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"interviewapi/internal/auth"
	"interviewapi/internal/service"
)

// StartInterview opens a session from the caller's question set for this month.
// @Summary Start interview
// @Tags interviews
// @Produce json
// @Security BearerAuth
// @Success 201 {object} StartInterviewResponse
// @Failure 400 {object} errorPayload
// @Router /api/v1/interviews/start [post]
func StartInterview(svc service.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := svc.Start(c.UserContext(), auth.UserFrom(c).ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(StartInterviewResponse{
			SessionID:      sess.SessionID,
			Status:         "started",
			QuestionsTotal: sess.QuestionsTotal,
			Message:        "Interview session started successfully",
		})
	}
}

// ListSessions returns the caller's sessions, newest first.
// @Summary List interview sessions
// @Tags interviews
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.InterviewSession
// @Router /api/v1/interviews/sessions [get]
func ListSessions(svc service.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.ListSessions(c.UserContext(), auth.UserFrom(c).ID)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GetSession returns one session with its questions.
// @Summary Interview session
// @Tags interviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} model.SessionDetail
// @Failure 404 {object} errorPayload
// @Router /api/v1/interviews/sessions/{id} [get]
func GetSession(svc service.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		d, err := svc.GetSession(c.UserContext(), auth.UserFrom(c).ID, id)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// EndSession completes a session.
// @Summary End interview session
// @Tags interviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} EndInterviewResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/v1/interviews/sessions/{id}/end [post]
func EndSession(svc service.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		sess, err := svc.EndSession(c.UserContext(), auth.UserFrom(c).ID, id)
		if err != nil {
			return err
		}
		res := EndInterviewResponse{
			SessionID: sess.SessionID,
			Status:    sess.Status,
			Message:   "Interview session ended successfully",
		}
		if sess.Duration != nil {
			res.Duration = *sess.Duration
		}
		return c.JSON(res)
	}
}

// AnswerQuestion records the answer to a question of an active session.
// @Summary Answer question
// @Tags interviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID (UUID)"
// @Param index path int true "Question index"
// @Param body body AnswerRequest true "Answer"
// @Success 200 {object} model.Question
// @Failure 404 {object} errorPayload
// @Router /api/v1/interviews/sessions/{id}/questions/{index}/answer [post]
func AnswerQuestion(svc service.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := sessionParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		index, err := c.ParamsInt("index")
		if err != nil || index < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INDEX", "invalid question index")
		}
		var req AnswerRequest
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
		q, err := svc.AnswerQuestion(c.UserContext(), auth.UserFrom(c).ID, id, index, service.AnswerInput{
			Response: req.Response,
			Duration: req.Duration,
		})
		if err != nil {
			return err
		}
		return c.JSON(q)
	}
}

func sessionParam(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
