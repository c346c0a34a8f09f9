package postgres

import (
	"context"
	"database/sql"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// QuestionSetPostgres is a PostgreSQL implementation of repository.QuestionSetRepository.
type QuestionSetPostgres struct {
	db *sql.DB
}

// NewQuestionSetPostgres creates a new QuestionSetPostgres repository.
func NewQuestionSetPostgres(db *sql.DB) *QuestionSetPostgres {
	return &QuestionSetPostgres{db: db}
}

var _ repository.QuestionSetRepository = (*QuestionSetPostgres)(nil)

const questionSetColumns = `id, user_id, month_year, status, total_questions, generated_questions,
	questions_data, audio_files_generated, video_files_generated, error_message, generation_started_at,
	generation_completed_at, last_accessed_at, created_at, updated_at`

func scanQuestionSet(row interface{ Scan(...any) error }) (*model.MonthlyQuestionSet, error) {
	var s model.MonthlyQuestionSet
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.MonthYear,
		&s.Status,
		&s.TotalQuestions,
		&s.GeneratedQuestions,
		&s.QuestionsData,
		&s.AudioFilesGenerated,
		&s.VideoFilesGenerated,
		&s.ErrorMessage,
		&s.GenerationStartedAt,
		&s.GenerationCompletedAt,
		&s.LastAccessedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a question set row.
func (r *QuestionSetPostgres) Create(ctx context.Context, s *model.MonthlyQuestionSet) (*model.MonthlyQuestionSet, error) {
	const q = `
		INSERT INTO monthly_question_sets (user_id, month_year, status, generation_started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + questionSetColumns
	return scanQuestionSet(r.db.QueryRowContext(ctx, q, s.UserID, s.MonthYear, s.Status, s.GenerationStartedAt))
}

// Update writes the generation progress columns.
func (r *QuestionSetPostgres) Update(ctx context.Context, s *model.MonthlyQuestionSet) error {
	const q = `
		UPDATE monthly_question_sets
		SET status = $2, total_questions = $3, generated_questions = $4, questions_data = $5,
			audio_files_generated = $6, video_files_generated = $7, error_message = $8,
			generation_completed_at = $9, last_accessed_at = $10, updated_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q,
		s.ID,
		s.Status,
		s.TotalQuestions,
		s.GeneratedQuestions,
		s.QuestionsData,
		s.AudioFilesGenerated,
		s.VideoFilesGenerated,
		s.ErrorMessage,
		s.GenerationCompletedAt,
		s.LastAccessedAt,
	)
	return err
}

// FindCompleted fetches the user's completed set for the month.
func (r *QuestionSetPostgres) FindCompleted(ctx context.Context, userID int64, monthYear string) (*model.MonthlyQuestionSet, error) {
	const q = `
		SELECT ` + questionSetColumns + `
		FROM monthly_question_sets
		WHERE user_id = $1 AND month_year = $2 AND status = 'completed'
	`
	return scanQuestionSet(r.db.QueryRowContext(ctx, q, userID, monthYear))
}
