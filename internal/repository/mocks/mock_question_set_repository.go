package mocks

import (
	"context"

	"interviewapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockQuestionSetRepository struct {
	mock.Mock
}

func (m *MockQuestionSetRepository) Create(ctx context.Context, s *model.MonthlyQuestionSet) (*model.MonthlyQuestionSet, error) {
	args := m.Called(ctx, s)
	if fn, ok := args.Get(0).(func(context.Context, *model.MonthlyQuestionSet) *model.MonthlyQuestionSet); ok {
		return fn(ctx, s), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MonthlyQuestionSet), args.Error(1)
}

func (m *MockQuestionSetRepository) Update(ctx context.Context, s *model.MonthlyQuestionSet) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockQuestionSetRepository) FindCompleted(ctx context.Context, userID int64, monthYear string) (*model.MonthlyQuestionSet, error) {
	args := m.Called(ctx, userID, monthYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MonthlyQuestionSet), args.Error(1)
}
