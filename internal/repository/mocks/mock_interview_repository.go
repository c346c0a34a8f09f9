package mocks

import (
	"context"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockInterviewRepository struct {
	mock.Mock
}

func (m *MockInterviewRepository) CreateSession(ctx context.Context, s *model.InterviewSession, qs []model.Question) (*model.InterviewSession, error) {
	args := m.Called(ctx, s, qs)
	if fn, ok := args.Get(0).(func(context.Context, *model.InterviewSession, []model.Question) *model.InterviewSession); ok {
		return fn(ctx, s, qs), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InterviewSession), args.Error(1)
}

func (m *MockInterviewRepository) FindSession(ctx context.Context, userID int64, sessionID string) (*model.InterviewSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InterviewSession), args.Error(1)
}

func (m *MockInterviewRepository) ListSessions(ctx context.Context, userID int64) ([]model.InterviewSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InterviewSession), args.Error(1)
}

func (m *MockInterviewRepository) UpdateSession(ctx context.Context, s *model.InterviewSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockInterviewRepository) ListQuestions(ctx context.Context, sessionPK int64) ([]model.Question, error) {
	args := m.Called(ctx, sessionPK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

func (m *MockInterviewRepository) UpdateQuestion(ctx context.Context, q *model.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockInterviewRepository) Stats(ctx context.Context, userID int64) (*repository.SessionStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SessionStats), args.Error(1)
}
