package repository

import (
	"context"

	"interviewapi/internal/model"
)

// SessionStats is the raw aggregate used to build model.UserStats.
type SessionStats struct {
	Total        int
	Completed    int
	AverageScore float64
}

// InterviewRepository persists interview sessions and their questions.
type InterviewRepository interface {
	// CreateSession inserts the session and its questions atomically: either
	// both are stored or neither is.
	CreateSession(ctx context.Context, s *model.InterviewSession, qs []model.Question) (*model.InterviewSession, error)

	// FindSession looks a session up by its public ID, scoped to the owner.
	FindSession(ctx context.Context, userID int64, sessionID string) (*model.InterviewSession, error)

	// ListSessions returns the user's sessions, newest first.
	ListSessions(ctx context.Context, userID int64) ([]model.InterviewSession, error)

	UpdateSession(ctx context.Context, s *model.InterviewSession) error

	// ListQuestions returns a session's questions ordered by index.
	ListQuestions(ctx context.Context, sessionPK int64) ([]model.Question, error)

	UpdateQuestion(ctx context.Context, q *model.Question) error

	// Stats counts sessions and averages the overall score of completed ones.
	Stats(ctx context.Context, userID int64) (*SessionStats, error)
}
