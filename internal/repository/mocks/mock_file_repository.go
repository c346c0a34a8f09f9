package mocks

import (
	"context"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.FileMetadata) (*model.FileMetadata, error) {
	args := m.Called(ctx, f)
	if fn, ok := args.Get(0).(func(context.Context, *model.FileMetadata) *model.FileMetadata); ok {
		return fn(ctx, f), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMetadata), args.Error(1)
}

func (m *MockFileRepository) FindByFileID(ctx context.Context, userID int64, fileID string) (*model.FileMetadata, error) {
	args := m.Called(ctx, userID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMetadata), args.Error(1)
}

func (m *MockFileRepository) ListByUser(ctx context.Context, userID int64, pq repository.PageQuery) (*repository.PageResult[model.FileMetadata], error) {
	args := m.Called(ctx, userID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.FileMetadata]), args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, userID int64, fileID string) error {
	args := m.Called(ctx, userID, fileID)
	return args.Error(0)
}
