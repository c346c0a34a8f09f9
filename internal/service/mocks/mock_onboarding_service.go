package mocks

import (
	"context"

	"interviewapi/internal/model"
	"interviewapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockOnboardingService struct {
	mock.Mock
}

func (m *MockOnboardingService) Submit(ctx context.Context, userID int64, in model.OnboardingResponse) (*service.OnboardingResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OnboardingResult), args.Error(1)
}

func (m *MockOnboardingService) Get(ctx context.Context, userID int64) (*model.OnboardingResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingResponse), args.Error(1)
}

func (m *MockOnboardingService) Status(ctx context.Context, userID int64) (*model.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OnboardingStatus), args.Error(1)
}
