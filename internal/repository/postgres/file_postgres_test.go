package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileRowColumns = []string{"id", "file_id", "original_filename", "file_path", "file_size", "file_type",
	"mime_type", "user_id", "session_id", "processing_status", "processing_error", "storage_type",
	"storage_url", "created_at", "updated_at"}

func fileRow(rows *sqlmock.Rows, fileID string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(1, fileID, "a.wav", "1/"+fileID+"_a.wav", 100, "audio", "audio/wav", 1, nil, "pending", nil, "local", nil, now, now)
}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	f := &model.FileMetadata{
		FileID: "f-1", OriginalFilename: "a.wav", FilePath: "1/f-1_a.wav", FileSize: 100,
		FileType: model.FileTypeAudio, MimeType: "audio/wav", UserID: 1,
		ProcessingStatus: model.ProcessingPending, StorageType: "local", CreatedAt: now,
	}

	mock.ExpectQuery("INSERT INTO file_metadata").
		WithArgs("f-1", "a.wav", "1/f-1_a.wav", int64(100), "audio", "audio/wav", int64(1), nil, "pending", "local", nil, now).
		WillReturnRows(fileRow(sqlmock.NewRows(fileRowColumns), "f-1"))

	res, err := NewFilePostgres(db).Create(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, "f-1", res.FileID)
	assert.Nil(t, res.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByFileID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM file_metadata WHERE file_id = (.+) AND user_id = ?").
			WithArgs("f-1", int64(1)).
			WillReturnRows(fileRow(sqlmock.NewRows(fileRowColumns), "f-1"))

		f, err := repo.FindByFileID(ctx, 1, "f-1")

		require.NoError(t, err)
		assert.Equal(t, "audio/wav", f.MimeType)
	})

	t.Run("other owner", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM file_metadata").
			WithArgs("f-1", int64(2)).
			WillReturnError(sql.ErrNoRows)

		f, err := repo.FindByFileID(ctx, 2, "f-1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, f)
	})
}

func TestFilePostgres_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM file_metadata").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows(fileRowColumns)
	fileRow(rows, "f-2")
	fileRow(rows, "f-1")
	mock.ExpectQuery("SELECT (.+) FROM file_metadata WHERE user_id = (.+) ORDER BY").
		WithArgs(int64(1), 10, 0).
		WillReturnRows(rows)

	res, err := NewFilePostgres(db).ListByUser(context.Background(), 1, repository.PageQuery{Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "f-2", res.Items[0].FileID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM file_metadata WHERE file_id = (.+) AND user_id = ?").
		WithArgs("f-1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewFilePostgres(db).Delete(context.Background(), 1, "f-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
