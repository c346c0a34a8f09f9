package repository

import (
	"context"

	"interviewapi/internal/model"
)

// FileRepository persists uploaded file metadata. Every lookup is scoped to the owner.
type FileRepository interface {
	Create(ctx context.Context, f *model.FileMetadata) (*model.FileMetadata, error)
	FindByFileID(ctx context.Context, userID int64, fileID string) (*model.FileMetadata, error)

	// ListByUser returns a page of the user's files, newest first, and their total count.
	ListByUser(ctx context.Context, userID int64, pq PageQuery) (*PageResult[model.FileMetadata], error)

	// Delete removes the row. Deleting a missing row is not an error.
	Delete(ctx context.Context, userID int64, fileID string) error
}
