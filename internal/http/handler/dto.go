package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"interviewapi/internal/model"
	"interviewapi/internal/service"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RegisterRequest is the sign-up body.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
}

// LoginRequest is the login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes the fields that are present.
type UpdateProfileRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
}

// OnboardingRequest is the questionnaire body.
type OnboardingRequest struct {
	VisaType                    string  `json:"visa_type" validate:"required,max=100"`
	DestinationCountry          string  `json:"destination_country" validate:"required,max=100"`
	TravelPurpose               string  `json:"travel_purpose" validate:"required"`
	PreviousTravels             *string `json:"previous_travels"`
	EducationLevel              *string `json:"education_level" validate:"omitempty,max=100"`
	EmploymentStatus            *string `json:"employment_status" validate:"omitempty,max=100"`
	PreferredInterviewDuration  int     `json:"preferred_interview_duration" validate:"omitempty,min=1,max=120"`
	PreferredQuestionDifficulty string  `json:"preferred_question_difficulty" validate:"omitempty,oneof=easy medium hard"`
	PreferredInterviewStyle     string  `json:"preferred_interview_style" validate:"omitempty,max=50"`
	SpecialRequirements         *string `json:"special_requirements"`
	LanguagePreference          string  `json:"language_preference" validate:"omitempty,max=50"`
}

func (r OnboardingRequest) toModel() model.OnboardingResponse {
	return model.OnboardingResponse{
		VisaType:                    r.VisaType,
		DestinationCountry:          r.DestinationCountry,
		TravelPurpose:               r.TravelPurpose,
		PreviousTravels:             r.PreviousTravels,
		EducationLevel:              r.EducationLevel,
		EmploymentStatus:            r.EmploymentStatus,
		PreferredInterviewDuration:  r.PreferredInterviewDuration,
		PreferredQuestionDifficulty: r.PreferredQuestionDifficulty,
		PreferredInterviewStyle:     r.PreferredInterviewStyle,
		SpecialRequirements:         r.SpecialRequirements,
		LanguagePreference:          r.LanguagePreference,
	}
}

// AnswerRequest records the answer to one question.
type AnswerRequest struct {
	Response string `json:"response" validate:"required"`
	Duration *int   `json:"duration" validate:"omitempty,min=0"`
}

// QueueTaskRequest asks for GPU work on an uploaded file.
type QueueTaskRequest struct {
	InputFileID string         `json:"input_file_id" validate:"required,uuid"`
	FaceFileID  string         `json:"face_file_id" validate:"omitempty,uuid"`
	Parameters  map[string]any `json:"parameters"`
	Priority    int            `json:"priority"`
	SessionID   string         `json:"session_id" validate:"omitempty,uuid"`
	QuestionID  *int64         `json:"question_id"`
}

func (r QueueTaskRequest) toInput() service.QueueInput {
	return service.QueueInput{
		InputFileID: r.InputFileID,
		FaceFileID:  r.FaceFileID,
		Parameters:  r.Parameters,
		Priority:    r.Priority,
		SessionID:   r.SessionID,
		QuestionID:  r.QuestionID,
	}
}

// QueuedTaskResponse acknowledges a queued GPU task.
type QueuedTaskResponse struct {
	TaskID   string `json:"task_id"`
	TaskType string `json:"task_type"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// DownloadResponse carries a presigned link; ExpiresIn is in seconds.
type DownloadResponse struct {
	FileID      string `json:"file_id"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// StartInterviewResponse acknowledges a new session.
type StartInterviewResponse struct {
	SessionID      string `json:"session_id"`
	Status         string `json:"status"`
	QuestionsTotal int    `json:"questions_total"`
	Message        string `json:"message"`
}

// EndInterviewResponse reports the measured session length.
type EndInterviewResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Duration  int    `json:"duration"`
	Message   string `json:"message"`
}

// UploadResponse acknowledges a stored file.
type UploadResponse struct {
	FileID    string `json:"file_id"`
	Filename  string `json:"filename"`
	FileType  string `json:"file_type"`
	FileSize  int64  `json:"file_size"`
	MimeType  string `json:"mime_type"`
	Storage   string `json:"storage_type"`
	Status    string `json:"status"`
}

// bindJSON parses and validates the body into dst. When ok is false the error
// response has already been written and err is the result of writing it.
func bindJSON(c *fiber.Ctx, dst any) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
	}
	if err := validate.Struct(dst); err != nil {
		return false, writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", validationMessage(err))
	}
	return true, nil
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "uuid":
			msgs = append(msgs, field+" must be a UUID")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}
