package model

import "time"

// Question set statuses.
const (
	QuestionSetGenerating = "generating"
	QuestionSetCompleted  = "completed"
	QuestionSetFailed     = "failed"
)

// MonthFormat is the layout of MonthlyQuestionSet.MonthYear ("2024-01").
const MonthFormat = "2006-01"

// MonthlyQuestionSet is the batch of questions pre-generated for a user each month.
type MonthlyQuestionSet struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"user_id"`
	MonthYear             string     `json:"month_year"`
	Status                string     `json:"status"`
	TotalQuestions        int        `json:"total_questions"`
	GeneratedQuestions    int        `json:"generated_questions"`
	QuestionsData         *string    `json:"-"`
	AudioFilesGenerated   bool       `json:"audio_files_generated"`
	VideoFilesGenerated   bool       `json:"video_files_generated"`
	ErrorMessage          *string    `json:"error_message,omitempty"`
	GenerationStartedAt   *time.Time `json:"generation_started_at"`
	GenerationCompletedAt *time.Time `json:"generation_completed_at"`
	LastAccessedAt        *time.Time `json:"last_accessed_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// GeneratedQuestion is the JSON shape stored in MonthlyQuestionSet.QuestionsData.
type GeneratedQuestion struct {
	ID               int    `json:"id"`
	Text             string `json:"text"`
	Category         string `json:"category"`
	Difficulty       string `json:"difficulty"`
	ExpectedDuration int    `json:"expected_duration"`
}
