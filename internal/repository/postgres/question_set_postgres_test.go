package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"interviewapi/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var questionSetRowColumns = []string{"id", "user_id", "month_year", "status", "total_questions",
	"generated_questions", "questions_data", "audio_files_generated", "video_files_generated", "error_message",
	"generation_started_at", "generation_completed_at", "last_accessed_at", "created_at", "updated_at"}

func TestQuestionSetPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO monthly_question_sets").
		WithArgs(int64(2), "2024-05", model.QuestionSetGenerating, now).
		WillReturnRows(sqlmock.NewRows(questionSetRowColumns).
			AddRow(1, 2, "2024-05", "generating", 0, 0, nil, false, false, nil, now, nil, nil, now, now))

	s, err := NewQuestionSetPostgres(db).Create(context.Background(), &model.MonthlyQuestionSet{
		UserID: 2, MonthYear: "2024-05", Status: model.QuestionSetGenerating, GenerationStartedAt: &now,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
	assert.Nil(t, s.QuestionsData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionSetPostgres_FindCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewQuestionSetPostgres(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM monthly_question_sets WHERE (.+) status = 'completed'").
			WithArgs(int64(2), "2024-05").
			WillReturnRows(sqlmock.NewRows(questionSetRowColumns).
				AddRow(1, 2, "2024-05", "completed", 30, 30, `[{"id":1}]`, false, false, nil, now, now, nil, now, now))

		s, err := repo.FindCompleted(ctx, 2, "2024-05")

		require.NoError(t, err)
		require.NotNil(t, s.QuestionsData)
		assert.Equal(t, `[{"id":1}]`, *s.QuestionsData)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM monthly_question_sets").
			WithArgs(int64(2), "2024-06").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindCompleted(ctx, 2, "2024-06")

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestQuestionSetPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE monthly_question_sets").WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewQuestionSetPostgres(db).Update(context.Background(), &model.MonthlyQuestionSet{ID: 1, Status: model.QuestionSetFailed})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
