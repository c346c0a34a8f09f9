package repository

import (
	"context"

	"interviewapi/internal/model"
)

// OnboardingRepository persists onboarding questionnaires, one per user.
type OnboardingRepository interface {
	FindByUser(ctx context.Context, userID int64) (*model.OnboardingResponse, error)
	Create(ctx context.Context, o *model.OnboardingResponse) (*model.OnboardingResponse, error)
	Update(ctx context.Context, o *model.OnboardingResponse) (*model.OnboardingResponse, error)
}
