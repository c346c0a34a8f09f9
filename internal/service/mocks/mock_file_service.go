package mocks

import (
	"context"

	"interviewapi/internal/model"
	"interviewapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, userID int64, in service.UploadInput) (*model.FileMetadata, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMetadata), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, userID int64, limit, offset int) (*service.FileListResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, userID int64, fileID string) (*model.FileMetadata, error) {
	args := m.Called(ctx, userID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMetadata), args.Error(1)
}

func (m *MockFileService) DownloadURL(ctx context.Context, userID int64, fileID string) (string, error) {
	args := m.Called(ctx, userID, fileID)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, userID int64, fileID string) error {
	args := m.Called(ctx, userID, fileID)
	return args.Error(0)
}
