package mocks

import (
	"context"

	"interviewapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockOnboardingRepository struct {
	mock.Mock
}

func (m *MockOnboardingRepository) FindByUser(ctx context.Context, userID int64) (*model.OnboardingResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingResponse), args.Error(1)
}

func (m *MockOnboardingRepository) Create(ctx context.Context, o *model.OnboardingResponse) (*model.OnboardingResponse, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingResponse), args.Error(1)
}

func (m *MockOnboardingRepository) Update(ctx context.Context, o *model.OnboardingResponse) (*model.OnboardingResponse, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingResponse), args.Error(1)
}
