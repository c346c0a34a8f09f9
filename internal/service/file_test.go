package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
	repoMocks "interviewapi/internal/repository/mocks"
	"interviewapi/internal/storage"
	storeMocks "interviewapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestFileService_Upload(t *testing.T) {
	ctx := context.Background()
	const userID int64 = 7

	echoKey := func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
		n, _ := io.Copy(io.Discard, r)
		return storage.ObjectInfo{Key: key, Size: n}
	}

	tests := []struct {
		name       string
		in         UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository)
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, f *model.FileMetadata)
	}{
		{
			name: "happy path",
			in:   UploadInput{Reader: strings.NewReader("hello world"), Filename: "notes.txt", Size: 11, FileType: "document"},
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "7/") && strings.HasSuffix(key, "_notes.txt")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.Size == 11 &&
						strings.HasPrefix(opt.ContentType, "text/plain") &&
						opt.Metadata["original-filename"] == "notes.txt"
				})).Return(echoKey, nil)
				mStore.On("Backend").Return(storage.BackendLocal)
				mFiles.On("Create", ctx, mock.MatchedBy(func(f *model.FileMetadata) bool {
					return f.UserID == userID &&
						f.FileID != "" &&
						f.FileSize == 11 &&
						f.StorageType == storage.BackendLocal &&
						f.ProcessingStatus == model.ProcessingPending &&
						f.SessionID == nil
				})).Return(func(ctx context.Context, f *model.FileMetadata) *model.FileMetadata { return f }, nil)
			},
			check: func(t *testing.T, f *model.FileMetadata) {
				assert.Equal(t, "notes.txt", f.OriginalFilename)
				assert.Contains(t, f.FilePath, f.FileID+"_notes.txt")
			},
		},
		{
			name: "linked to session and path stripped from name",
			in:   UploadInput{Reader: strings.NewReader("RIFF"), Filename: "../../etc/answer.wav", FileType: "audio", SessionID: "sess-1"},
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository) {
				mInterviews.On("FindSession", ctx, userID, "sess-1").Return(&model.InterviewSession{ID: 42}, nil)
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "7/") && strings.HasSuffix(key, "_answer.wav") && !strings.Contains(key, "..")
				}), mock.Anything, mock.Anything).Return(echoKey, nil)
				mStore.On("Backend").Return(storage.BackendMinIO)
				mFiles.On("Create", ctx, mock.MatchedBy(func(f *model.FileMetadata) bool {
					return f.SessionID != nil && *f.SessionID == 42 && f.FileType == model.FileTypeAudio
				})).Return(func(ctx context.Context, f *model.FileMetadata) *model.FileMetadata { return f }, nil)
			},
		},
		{
			name: "declared content type used when sniffing is inconclusive",
			in:   UploadInput{Reader: strings.NewReader("\x00\x01\x02\x03"), Filename: "clip.bin", ContentType: "video/webm", FileType: "video"},
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "video/webm"
				})).Return(echoKey, nil)
				mStore.On("Backend").Return(storage.BackendLocal)
				mFiles.On("Create", ctx, mock.Anything).
					Return(func(ctx context.Context, f *model.FileMetadata) *model.FileMetadata { return f }, nil)
			},
			check: func(t *testing.T, f *model.FileMetadata) {
				assert.Equal(t, "video/webm", f.MimeType)
			},
		},
		{
			name:       "validation error - nil reader",
			in:         UploadInput{Filename: "x.txt"},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockFileRepository, *repoMocks.MockInterviewRepository) {},
			wantErr:    ErrReaderNil,
		},
		{
			name:       "validation error - file type",
			in:         UploadInput{Reader: strings.NewReader("x"), Filename: "x.txt", FileType: "archive"},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockFileRepository, *repoMocks.MockInterviewRepository) {},
			wantErr:    ErrInvalidFileType,
		},
		{
			name: "unknown session",
			in:   UploadInput{Reader: strings.NewReader("x"), Filename: "x.txt", SessionID: "nope"},
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository) {
				mInterviews.On("FindSession", ctx, userID, "nope").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrSessionNotFound,
		},
		{
			name: "storage error",
			in:   UploadInput{Reader: strings.NewReader("hello"), Filename: "x.txt", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "repository error with successful rollback",
			in:   UploadInput{Reader: strings.NewReader("hello"), Filename: "x.txt", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(echoKey, nil)
				mStore.On("Backend").Return(storage.BackendLocal)
				mFiles.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasSuffix(key, "_x.txt")
				})).Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "repository error with failed rollback",
			in:   UploadInput{Reader: strings.NewReader("hello"), Filename: "x.txt", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository, mInterviews *repoMocks.MockInterviewRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(echoKey, nil)
				mStore.On("Backend").Return(storage.BackendLocal)
				mFiles.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mFiles := new(repoMocks.MockFileRepository)
			mInterviews := new(repoMocks.MockInterviewRepository)
			svc := NewFileService(mStore, mFiles, mInterviews)

			tt.setupMocks(mStore, mFiles, mInterviews)

			f, err := svc.Upload(ctx, userID, tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				if assert.NotNil(t, f) && tt.check != nil {
					tt.check(t, f)
				}
			}

			mStore.AssertExpectations(t)
			mFiles.AssertExpectations(t)
			mInterviews.AssertExpectations(t)
		})
	}
}

func TestFileService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mFiles *repoMocks.MockFileRepository)
		wantErr    bool
		checkRes   func(t *testing.T, res *FileListResult)
	}{
		{
			name:   "happy path",
			limit:  10,
			offset: 0,
			setupMocks: func(mFiles *repoMocks.MockFileRepository) {
				mFiles.On("ListByUser", ctx, int64(1), repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.FileMetadata]{
						Items: []model.FileMetadata{{FileID: "a"}, {FileID: "b"}},
						Total: 2,
					}, nil)
			},
			checkRes: func(t *testing.T, res *FileListResult) {
				assert.Len(t, res.Items, 2)
				assert.Equal(t, 2, res.Total)
			},
		},
		{
			name:   "pagination boundary - zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mFiles *repoMocks.MockFileRepository) {
				mFiles.On("ListByUser", ctx, int64(1), repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.FileMetadata]{Total: 0}, nil)
			},
			checkRes: func(t *testing.T, res *FileListResult) {
				assert.NotNil(t, res.Items)
				assert.Empty(t, res.Items)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mFiles *repoMocks.MockFileRepository) {
				mFiles.On("ListByUser", ctx, int64(1), mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mFiles := new(repoMocks.MockFileRepository)
			svc := NewFileService(nil, mFiles, nil)

			tt.setupMocks(mFiles)

			res, err := svc.List(ctx, 1, tt.limit, tt.offset)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			mFiles.AssertExpectations(t)
		})
	}
}

func TestFileService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mFiles *repoMocks.MockFileRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "valid-id").Return(&model.FileMetadata{FileID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			setupMocks: func(mFiles *repoMocks.MockFileRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing-id",
			setupMocks: func(mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mFiles := new(repoMocks.MockFileRepository)
			svc := NewFileService(nil, mFiles, nil)

			tt.setupMocks(mFiles)

			f, err := svc.Get(ctx, 1, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, f.FileID)
			}
			mFiles.AssertExpectations(t)
		})
	}
}

func TestFileService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "valid-id").Return(&model.FileMetadata{FileID: "valid-id", FilePath: "1/valid-id_a.txt"}, nil)
				mStore.On("Delete", ctx, "1/valid-id_a.txt").Return(nil)
				mFiles.On("Delete", ctx, int64(1), "valid-id").Return(nil)
			},
		},
		{
			name: "object already gone",
			id:   "gone-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "gone-id").Return(&model.FileMetadata{FileID: "gone-id", FilePath: "p"}, nil)
				mStore.On("Delete", ctx, "p").Return(storage.ErrNotFound)
				mFiles.On("Delete", ctx, int64(1), "gone-id").Return(nil)
			},
		},
		{
			name: "not found",
			id:   "missing-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrFileNotFound,
		},
		{
			name: "storage delete error",
			id:   "storage-fail-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "storage-fail-id").Return(&model.FileMetadata{FilePath: "path"}, nil)
				mStore.On("Delete", ctx, "path").Return(errors.New("storage fail"))
			},
			wantErr: errors.New("delete storage: storage fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mFiles := new(repoMocks.MockFileRepository)
			svc := NewFileService(mStore, mFiles, nil)

			tt.setupMocks(mStore, mFiles)

			err := svc.Delete(ctx, 1, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mFiles.AssertExpectations(t)
		})
	}
}

func TestFileService_DownloadURL(t *testing.T) {
	ctx := context.Background()
	meta := &model.FileMetadata{FileID: "f-1", FilePath: "1/f-1_clip.mp4"}

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository)
		wantURL    string
		wantErr    error
	}{
		{
			name: "presigns the stored key",
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "f-1").Return(meta, nil)
				mStore.On("PresignGet", ctx, "1/f-1_clip.mp4", DownloadURLExpiry).Return("https://minio/bucket/1/f-1_clip.mp4?X-Amz-Signature=abc", nil)
			},
			wantURL: "https://minio/bucket/1/f-1_clip.mp4?X-Amz-Signature=abc",
		},
		{
			name: "other user's file is not found",
			setupMocks: func(_ *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "f-1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrFileNotFound,
		},
		{
			name: "object missing from storage",
			setupMocks: func(mStore *storeMocks.MockStorage, mFiles *repoMocks.MockFileRepository) {
				mFiles.On("FindByFileID", ctx, int64(1), "f-1").Return(meta, nil)
				mStore.On("PresignGet", ctx, "1/f-1_clip.mp4", DownloadURLExpiry).Return("", storage.ErrNotFound)
			},
			wantErr: ErrFileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mFiles := new(repoMocks.MockFileRepository)
			svc := NewFileService(mStore, mFiles, nil)

			tt.setupMocks(mStore, mFiles)

			u, err := svc.DownloadURL(ctx, 1, "f-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, u)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantURL, u)
			}
			mStore.AssertExpectations(t)
			mFiles.AssertExpectations(t)
		})
	}
}
