package model

import "time"

// File types accepted on upload.
const (
	FileTypeAudio    = "audio"
	FileTypeVideo    = "video"
	FileTypeImage    = "image"
	FileTypeDocument = "document"
)

// AllowedFileTypes lists every valid FileMetadata.FileType in display order.
var AllowedFileTypes = []string{FileTypeAudio, FileTypeVideo, FileTypeImage, FileTypeDocument}

// Processing statuses shared by files.
const (
	ProcessingPending    = "pending"
	ProcessingProcessing = "processing"
	ProcessingCompleted  = "completed"
	ProcessingFailed     = "failed"
)

// FileMetadata describes an uploaded object. The bytes live in storage under FilePath.
type FileMetadata struct {
	ID               int64     `json:"-"`
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"-"`
	FileSize         int64     `json:"file_size"`
	FileType         string    `json:"file_type"`
	MimeType         string    `json:"mime_type"`
	UserID           int64     `json:"-"`
	SessionID        *int64    `json:"-"`
	ProcessingStatus string    `json:"processing_status"`
	ProcessingError  *string   `json:"processing_error,omitempty"`
	StorageType      string    `json:"storage_type"`
	StorageURL       *string   `json:"storage_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"-"`
}
