package service

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"interviewapi/internal/model"
)

// ErrNotFound is wrapped by every lookup miss so callers can test with errors.Is.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrOnboardingNotFound = fmt.Errorf("onboarding data %w", ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("interview session %w", ErrNotFound)
	ErrQuestionNotFound   = fmt.Errorf("question %w", ErrNotFound)
	ErrFileNotFound       = fmt.Errorf("file %w", ErrNotFound)
	ErrInputFileNotFound  = fmt.Errorf("input file %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
)

var (
	ErrIDRequired         = errors.New("id is required")
	ErrReaderNil          = errors.New("reader is nil")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrOnboardingRequired = errors.New("please complete onboarding before starting an interview")
	ErrQuestionsNotReady  = errors.New("monthly questions not ready, please wait for generation to complete")
	ErrSessionCompleted   = errors.New("interview session already completed")
	ErrInvalidFileType    = fmt.Errorf("invalid file type, allowed: %s", strings.Join(model.AllowedFileTypes, ", "))
	ErrQueueUnavailable   = errors.New("gpu queue unavailable")
)

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(part)/float64(total)*100, 2)
}
