package postgres

import (
	"context"
	"database/sql"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, file_id, original_filename, file_path, file_size, file_type, mime_type, user_id,
	session_id, processing_status, processing_error, storage_type, storage_url, created_at, updated_at`

func scanFile(row interface{ Scan(...any) error }) (*model.FileMetadata, error) {
	var f model.FileMetadata
	var mime sql.NullString
	if err := row.Scan(
		&f.ID,
		&f.FileID,
		&f.OriginalFilename,
		&f.FilePath,
		&f.FileSize,
		&f.FileType,
		&mime,
		&f.UserID,
		&f.SessionID,
		&f.ProcessingStatus,
		&f.ProcessingError,
		&f.StorageType,
		&f.StorageURL,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	f.MimeType = mime.String
	return &f, nil
}

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.FileMetadata) (*model.FileMetadata, error) {
	const q = `
		INSERT INTO file_metadata (file_id, original_filename, file_path, file_size, file_type, mime_type,
			user_id, session_id, processing_status, storage_type, storage_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + fileColumns
	return scanFile(r.db.QueryRowContext(ctx, q,
		f.FileID,
		f.OriginalFilename,
		f.FilePath,
		f.FileSize,
		f.FileType,
		f.MimeType,
		f.UserID,
		f.SessionID,
		f.ProcessingStatus,
		f.StorageType,
		f.StorageURL,
		f.CreatedAt,
	))
}

// FindByFileID fetches one of the user's files.
func (r *FilePostgres) FindByFileID(ctx context.Context, userID int64, fileID string) (*model.FileMetadata, error) {
	const q = `SELECT ` + fileColumns + ` FROM file_metadata WHERE file_id = $1 AND user_id = $2`
	return scanFile(r.db.QueryRowContext(ctx, q, fileID, userID))
}

// ListByUser returns files using LIMIT/OFFSET pagination and a total count.
func (r *FilePostgres) ListByUser(ctx context.Context, userID int64, pq repository.PageQuery) (*repository.PageResult[model.FileMetadata], error) {
	const qCount = `SELECT COUNT(*) FROM file_metadata WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + fileColumns + `
		FROM file_metadata
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FileMetadata, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.FileMetadata]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a file row. It does not return an error if the row does not exist.
func (r *FilePostgres) Delete(ctx context.Context, userID int64, fileID string) error {
	const q = `DELETE FROM file_metadata WHERE file_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, q, fileID, userID)
	return err
}
