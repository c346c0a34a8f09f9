package postgres

import (
	"context"
	"database/sql"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// OnboardingPostgres is a PostgreSQL implementation of repository.OnboardingRepository.
type OnboardingPostgres struct {
	db *sql.DB
}

// NewOnboardingPostgres creates a new OnboardingPostgres repository.
func NewOnboardingPostgres(db *sql.DB) *OnboardingPostgres {
	return &OnboardingPostgres{db: db}
}

var _ repository.OnboardingRepository = (*OnboardingPostgres)(nil)

const onboardingColumns = `id, user_id, visa_type, destination_country, travel_purpose, previous_travels,
	education_level, employment_status, preferred_interview_duration, preferred_question_difficulty,
	preferred_interview_style, special_requirements, language_preference, created_at, updated_at`

func scanOnboarding(row interface{ Scan(...any) error }) (*model.OnboardingResponse, error) {
	var o model.OnboardingResponse
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.VisaType,
		&o.DestinationCountry,
		&o.TravelPurpose,
		&o.PreviousTravels,
		&o.EducationLevel,
		&o.EmploymentStatus,
		&o.PreferredInterviewDuration,
		&o.PreferredQuestionDifficulty,
		&o.PreferredInterviewStyle,
		&o.SpecialRequirements,
		&o.LanguagePreference,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByUser returns the user's questionnaire.
func (r *OnboardingPostgres) FindByUser(ctx context.Context, userID int64) (*model.OnboardingResponse, error) {
	const q = `SELECT ` + onboardingColumns + ` FROM onboarding_responses WHERE user_id = $1`
	return scanOnboarding(r.db.QueryRowContext(ctx, q, userID))
}

// Create inserts a questionnaire row.
func (r *OnboardingPostgres) Create(ctx context.Context, o *model.OnboardingResponse) (*model.OnboardingResponse, error) {
	const q = `
		INSERT INTO onboarding_responses (user_id, visa_type, destination_country, travel_purpose,
			previous_travels, education_level, employment_status, preferred_interview_duration,
			preferred_question_difficulty, preferred_interview_style, special_requirements, language_preference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + onboardingColumns
	return scanOnboarding(r.db.QueryRowContext(ctx, q,
		o.UserID,
		o.VisaType,
		o.DestinationCountry,
		o.TravelPurpose,
		o.PreviousTravels,
		o.EducationLevel,
		o.EmploymentStatus,
		o.PreferredInterviewDuration,
		o.PreferredQuestionDifficulty,
		o.PreferredInterviewStyle,
		o.SpecialRequirements,
		o.LanguagePreference,
	))
}

// Update overwrites every answer of the user's questionnaire.
func (r *OnboardingPostgres) Update(ctx context.Context, o *model.OnboardingResponse) (*model.OnboardingResponse, error) {
	const q = `
		UPDATE onboarding_responses
		SET visa_type = $2, destination_country = $3, travel_purpose = $4, previous_travels = $5,
			education_level = $6, employment_status = $7, preferred_interview_duration = $8,
			preferred_question_difficulty = $9, preferred_interview_style = $10,
			special_requirements = $11, language_preference = $12, updated_at = now()
		WHERE user_id = $1
		RETURNING ` + onboardingColumns
	return scanOnboarding(r.db.QueryRowContext(ctx, q,
		o.UserID,
		o.VisaType,
		o.DestinationCountry,
		o.TravelPurpose,
		o.PreviousTravels,
		o.EducationLevel,
		o.EmploymentStatus,
		o.PreferredInterviewDuration,
		o.PreferredQuestionDifficulty,
		o.PreferredInterviewStyle,
		o.SpecialRequirements,
		o.LanguagePreference,
	))
}
