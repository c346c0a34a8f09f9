package repository

import (
	"context"

	"interviewapi/internal/model"
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts a user and returns the stored row with its generated ID.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	FindByID(ctx context.Context, id int64) (*model.User, error)

	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Update writes email, full name and flags; updated_at is refreshed by the query.
	Update(ctx context.Context, u *model.User) (*model.User, error)

	// ListWithoutQuestionSet returns active users lacking a question set for monthYear.
	ListWithoutQuestionSet(ctx context.Context, monthYear string) ([]model.User, error)
}
