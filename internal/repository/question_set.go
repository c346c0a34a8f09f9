package repository

import (
	"context"

	"interviewapi/internal/model"
)

// QuestionSetRepository persists monthly pre-generated question sets.
type QuestionSetRepository interface {
	Create(ctx context.Context, s *model.MonthlyQuestionSet) (*model.MonthlyQuestionSet, error)
	Update(ctx context.Context, s *model.MonthlyQuestionSet) error

	// FindCompleted returns the user's completed set for monthYear.
	FindCompleted(ctx context.Context, userID int64, monthYear string) (*model.MonthlyQuestionSet, error)
}
