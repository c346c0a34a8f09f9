package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"interviewapi/internal/http/middleware"
	"interviewapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// serviceError maps a domain error to the response it produces.
type serviceError struct {
	err    error
	status int
	code   string
}

// Ordered: the specific not-found errors come before the generic one.
var serviceErrors = []serviceError{
	{service.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrOnboardingNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrSessionNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrQuestionNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrFileNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrInputFileNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrTaskNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{service.ErrInactiveUser, fiber.StatusBadRequest, "INACTIVE_USER"},
	{service.ErrEmailTaken, fiber.StatusBadRequest, "EMAIL_TAKEN"},
	{service.ErrOnboardingRequired, fiber.StatusBadRequest, "ONBOARDING_REQUIRED"},
	{service.ErrQuestionsNotReady, fiber.StatusBadRequest, "QUESTIONS_NOT_READY"},
	{service.ErrSessionCompleted, fiber.StatusBadRequest, "SESSION_COMPLETED"},
	{service.ErrInvalidFileType, fiber.StatusBadRequest, "INVALID_FILE_TYPE"},
	{service.ErrIDRequired, fiber.StatusBadRequest, "BAD_REQUEST"},
	{service.ErrReaderNil, fiber.StatusBadRequest, "BAD_REQUEST"},
	{service.ErrQueueUnavailable, fiber.StatusServiceUnavailable, "QUEUE_UNAVAILABLE"},
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorDetail(c, status, code, message, "")
}

func writeErrorDetail(c *fiber.Ctx, status int, code, message, detail string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Detail:  detail,
		},
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Domain errors map to their status; anything else is a 500. With debug set the
// envelope carries the internal error text.
func ErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return writeFiberError(c, fe)
		}

		for _, se := range serviceErrors {
			if errors.Is(err, se.err) {
				return writeError(c, se.status, se.code, se.err.Error())
			}
		}

		detail := ""
		if debug {
			detail = err.Error()
		}
		return writeErrorDetail(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", detail)
	}
}

func writeFiberError(c *fiber.Ctx, fe *fiber.Error) error {
	switch fe.Code {
	case fiber.StatusBadRequest:
		return writeError(c, fe.Code, "BAD_REQUEST", fe.Message)
	case fiber.StatusUnauthorized:
		return writeError(c, fe.Code, "UNAUTHORIZED", fe.Message)
	case fiber.StatusForbidden:
		return writeError(c, fe.Code, "FORBIDDEN", fe.Message)
	case fiber.StatusNotFound:
		return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
	case fiber.StatusMethodNotAllowed:
		return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
	case fiber.StatusRequestEntityTooLarge:
		return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "request body too large")
	case fiber.StatusTooManyRequests:
		return writeError(c, fe.Code, "RATE_LIMITED", "too many requests")
	case fiber.StatusServiceUnavailable:
		return writeError(c, fe.Code, "SERVICE_UNAVAILABLE", "service unavailable")
	default:
		return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
	}
}
