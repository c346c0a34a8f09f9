package mocks

import (
	"context"

	"interviewapi/internal/model"
	"interviewapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockInterviewService struct {
	mock.Mock
}

func (m *MockInterviewService) Start(ctx context.Context, userID int64) (*model.InterviewSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InterviewSession), args.Error(1)
}

func (m *MockInterviewService) ListSessions(ctx context.Context, userID int64) ([]model.InterviewSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InterviewSession), args.Error(1)
}

func (m *MockInterviewService) GetSession(ctx context.Context, userID int64, sessionID string) (*model.SessionDetail, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionDetail), args.Error(1)
}

func (m *MockInterviewService) EndSession(ctx context.Context, userID int64, sessionID string) (*model.InterviewSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InterviewSession), args.Error(1)
}

func (m *MockInterviewService) AnswerQuestion(ctx context.Context, userID int64, sessionID string, index int, in service.AnswerInput) (*model.Question, error) {
	args := m.Called(ctx, userID, sessionID, index, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Question), args.Error(1)
}
