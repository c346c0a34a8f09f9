package model

import "time"

// Session statuses.
const (
	SessionPending   = "pending"
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// InterviewSession is one mock interview run.
type InterviewSession struct {
	ID                   int64      `json:"-"`
	UserID               int64      `json:"-"`
	SessionID            string     `json:"session_id"`
	Status               string     `json:"status"`
	StartTime            *time.Time `json:"start_time"`
	EndTime              *time.Time `json:"end_time"`
	Duration             *int       `json:"duration"`
	QuestionsAsked       int        `json:"questions_asked"`
	QuestionsTotal       int        `json:"questions_total"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	OverallScore         *float64   `json:"overall_score"`
	ConfidenceScore      *float64   `json:"confidence_score"`
	CommunicationScore   *float64   `json:"communication_score"`
	ContentScore         *float64   `json:"content_score"`
	AudioFilePath        *string    `json:"-"`
	VideoFilePath        *string    `json:"-"`
	EvaluationReportPath *string    `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"-"`
}

// Question is a single prompt asked within a session.
type Question struct {
	ID                int64      `json:"-"`
	SessionID         int64      `json:"-"`
	QuestionIndex     int        `json:"question_index"`
	QuestionText      string     `json:"question_text"`
	QuestionType      string     `json:"question_type"`
	DifficultyLevel   string     `json:"difficulty_level"`
	UserResponse      *string    `json:"user_response,omitempty"`
	ResponseAudioPath *string    `json:"-"`
	ResponseVideoPath *string    `json:"-"`
	IsAnswered        bool       `json:"is_answered"`
	AnswerDuration    *int       `json:"answer_duration"`
	ConfidenceScore   *float64   `json:"confidence_score"`
	EmotionScore      *float64   `json:"emotion_score"`
	ContentScore      *float64   `json:"content_score"`
	AskedAt           *time.Time `json:"asked_at,omitempty"`
	AnsweredAt        *time.Time `json:"answered_at,omitempty"`
	CreatedAt         time.Time  `json:"-"`
}

// SessionDetail is a session together with its questions.
type SessionDetail struct {
	InterviewSession
	Questions []Question `json:"questions"`
}
