package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// InterviewPostgres is a PostgreSQL implementation of repository.InterviewRepository.
type InterviewPostgres struct {
	db *sql.DB
}

// NewInterviewPostgres creates a new InterviewPostgres repository.
func NewInterviewPostgres(db *sql.DB) *InterviewPostgres {
	return &InterviewPostgres{db: db}
}

var _ repository.InterviewRepository = (*InterviewPostgres)(nil)

const sessionColumns = `id, user_id, session_id, status, start_time, end_time, duration, questions_asked,
	questions_total, current_question_index, overall_score, confidence_score, communication_score,
	content_score, audio_file_path, video_file_path, evaluation_report_path, created_at, updated_at`

const questionColumns = `id, session_id, question_index, question_text, question_type, difficulty_level,
	user_response, response_audio_path, response_video_path, is_answered, answer_duration,
	confidence_score, emotion_score, content_score, asked_at, answered_at, created_at`

func scanSession(row interface{ Scan(...any) error }) (*model.InterviewSession, error) {
	var s model.InterviewSession
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.SessionID,
		&s.Status,
		&s.StartTime,
		&s.EndTime,
		&s.Duration,
		&s.QuestionsAsked,
		&s.QuestionsTotal,
		&s.CurrentQuestionIndex,
		&s.OverallScore,
		&s.ConfidenceScore,
		&s.CommunicationScore,
		&s.ContentScore,
		&s.AudioFilePath,
		&s.VideoFilePath,
		&s.EvaluationReportPath,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	var q model.Question
	if err := row.Scan(
		&q.ID,
		&q.SessionID,
		&q.QuestionIndex,
		&q.QuestionText,
		&q.QuestionType,
		&q.DifficultyLevel,
		&q.UserResponse,
		&q.ResponseAudioPath,
		&q.ResponseVideoPath,
		&q.IsAnswered,
		&q.AnswerDuration,
		&q.ConfidenceScore,
		&q.EmotionScore,
		&q.ContentScore,
		&q.AskedAt,
		&q.AnsweredAt,
		&q.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateSession inserts the session and its questions in one transaction.
func (r *InterviewPostgres) CreateSession(ctx context.Context, s *model.InterviewSession, qs []model.Question) (*model.InterviewSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	const insertSession = `
		INSERT INTO interview_sessions (user_id, session_id, status, start_time, questions_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sessionColumns
	created, err := scanSession(tx.QueryRowContext(ctx, insertSession, s.UserID, s.SessionID, s.Status, s.StartTime, s.QuestionsTotal))
	if err != nil {
		return nil, err
	}

	const insertQuestion = `
		INSERT INTO questions (session_id, question_index, question_text, question_type, difficulty_level)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, qu := range qs {
		if _, err := tx.ExecContext(ctx, insertQuestion, created.ID, qu.QuestionIndex, qu.QuestionText, qu.QuestionType, qu.DifficultyLevel); err != nil {
			return nil, fmt.Errorf("insert question %d: %w", qu.QuestionIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// FindSession fetches a session by public ID for its owner.
func (r *InterviewPostgres) FindSession(ctx context.Context, userID int64, sessionID string) (*model.InterviewSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE session_id = $1 AND user_id = $2`
	return scanSession(r.db.QueryRowContext(ctx, q, sessionID, userID))
}

// ListSessions returns the user's sessions, newest first.
func (r *InterviewPostgres) ListSessions(ctx context.Context, userID int64) ([]model.InterviewSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.InterviewSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

// UpdateSession writes the progress, timing and score columns.
func (r *InterviewPostgres) UpdateSession(ctx context.Context, s *model.InterviewSession) error {
	const q = `
		UPDATE interview_sessions
		SET status = $2, start_time = $3, end_time = $4, duration = $5, questions_asked = $6,
			current_question_index = $7, overall_score = $8, confidence_score = $9,
			communication_score = $10, content_score = $11, audio_file_path = $12,
			video_file_path = $13, evaluation_report_path = $14, updated_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q,
		s.ID,
		s.Status,
		s.StartTime,
		s.EndTime,
		s.Duration,
		s.QuestionsAsked,
		s.CurrentQuestionIndex,
		s.OverallScore,
		s.ConfidenceScore,
		s.CommunicationScore,
		s.ContentScore,
		s.AudioFilePath,
		s.VideoFilePath,
		s.EvaluationReportPath,
	)
	return err
}

// ListQuestions returns a session's questions ordered by index.
func (r *InterviewPostgres) ListQuestions(ctx context.Context, sessionPK int64) ([]model.Question, error) {
	const q = `SELECT ` + questionColumns + ` FROM questions WHERE session_id = $1 ORDER BY question_index`
	rows, err := r.db.QueryContext(ctx, q, sessionPK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Question, 0)
	for rows.Next() {
		qu, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *qu)
	}
	return items, rows.Err()
}

// UpdateQuestion writes the answer and scoring columns.
func (r *InterviewPostgres) UpdateQuestion(ctx context.Context, qu *model.Question) error {
	const q = `
		UPDATE questions
		SET user_response = $2, response_audio_path = $3, response_video_path = $4, is_answered = $5,
			answer_duration = $6, confidence_score = $7, emotion_score = $8, content_score = $9,
			asked_at = $10, answered_at = $11
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q,
		qu.ID,
		qu.UserResponse,
		qu.ResponseAudioPath,
		qu.ResponseVideoPath,
		qu.IsAnswered,
		qu.AnswerDuration,
		qu.ConfidenceScore,
		qu.EmotionScore,
		qu.ContentScore,
		qu.AskedAt,
		qu.AnsweredAt,
	)
	return err
}

// Stats aggregates the user's sessions in a single pass.
func (r *InterviewPostgres) Stats(ctx context.Context, userID int64) (*repository.SessionStats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(AVG(overall_score) FILTER (WHERE status = 'completed'), 0)
		FROM interview_sessions
		WHERE user_id = $1
	`
	var st repository.SessionStats
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&st.Total, &st.Completed, &st.AverageScore); err != nil {
		return nil, err
	}
	return &st, nil
}
