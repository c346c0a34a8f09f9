package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
	"interviewapi/internal/storage"
)

// sniffLen is how much of an upload is buffered to detect its MIME type.
const sniffLen = 3072

// DownloadURLExpiry bounds how long a presigned download link stays valid.
const DownloadURLExpiry = 15 * time.Minute

// UploadInput describes one uploaded file.
type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	FileType    string
	// SessionID optionally links the file to one of the user's interview sessions.
	SessionID string
}

// FileListResult is the service-level DTO for paginated files.
type FileListResult struct {
	Items []model.FileMetadata `json:"data"`
	Total int                  `json:"total"`
}

// FileService defines the use cases for user uploads.
type FileService interface {
	// Upload stores the content, saves metadata to DB, and rolls back storage if DB save fails.
	Upload(ctx context.Context, userID int64, in UploadInput) (*model.FileMetadata, error)

	// List returns the user's files, newest first, using limit/offset and a total count.
	List(ctx context.Context, userID int64, limit, offset int) (*FileListResult, error)

	Get(ctx context.Context, userID int64, fileID string) (*model.FileMetadata, error)

	// DownloadURL returns a link to the stored object valid for DownloadURLExpiry.
	DownloadURL(ctx context.Context, userID int64, fileID string) (string, error)

	// Delete removes a file from both storage and repository.
	Delete(ctx context.Context, userID int64, fileID string) error
}

type fileService struct {
	store      storage.Storage
	files      repository.FileRepository
	interviews repository.InterviewRepository
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, files repository.FileRepository, interviews repository.InterviewRepository) FileService {
	return &fileService{store: store, files: files, interviews: interviews}
}

func (s *fileService) Upload(ctx context.Context, userID int64, in UploadInput) (*model.FileMetadata, error) {
	if in.Reader == nil {
		return nil, ErrReaderNil
	}
	if in.FileType == "" {
		in.FileType = model.FileTypeDocument
	}
	if !slices.Contains(model.AllowedFileTypes, in.FileType) {
		return nil, ErrInvalidFileType
	}

	var sessionPK *int64
	if in.SessionID != "" {
		sess, err := s.interviews.FindSession(ctx, userID, in.SessionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		sessionPK = &sess.ID
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	mime := detected.String()
	if in.ContentType != "" && detected.Is("application/octet-stream") {
		mime = in.ContentType
	}

	name := filepath.Base(filepath.Clean("/" + in.Filename))
	fileID := uuid.New().String()
	key := fmt.Sprintf("%d/%s_%s", userID, fileID, name)

	objInfo, err := s.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), in.Reader), storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: mime,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	stored, err := s.files.Create(ctx, &model.FileMetadata{
		FileID:           fileID,
		OriginalFilename: in.Filename,
		FilePath:         objInfo.Key,
		FileSize:         objInfo.Size,
		FileType:         in.FileType,
		MimeType:         mime,
		UserID:           userID,
		SessionID:        sessionPK,
		ProcessingStatus: model.ProcessingPending,
		StorageType:      s.store.Backend(),
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *fileService) List(ctx context.Context, userID int64, limit, offset int) (*FileListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.files.ListByUser(ctx, userID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := res.Items
	if items == nil {
		items = []model.FileMetadata{}
	}
	return &FileListResult{Items: items, Total: res.Total}, nil
}

func (s *fileService) Get(ctx context.Context, userID int64, fileID string) (*model.FileMetadata, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	f, err := s.files.FindByFileID(ctx, userID, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *fileService) DownloadURL(ctx context.Context, userID int64, fileID string) (string, error) {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return "", err
	}
	u, err := s.store.PresignGet(ctx, f.FilePath, DownloadURLExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("presign download: %w", err)
	}
	return u, nil
}

// Delete removes the object first; a missing object does not block removing the row.
func (s *fileService) Delete(ctx context.Context, userID int64, fileID string) error {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, f.FilePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.files.Delete(ctx, userID, fileID)
}
