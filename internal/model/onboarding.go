package model

import "time"

// OnboardingResponse holds the questionnaire a user fills before interviewing.
// There is at most one per user.
type OnboardingResponse struct {
	ID                          int64     `json:"-"`
	UserID                      int64     `json:"-"`
	VisaType                    string    `json:"visa_type"`
	DestinationCountry          string    `json:"destination_country"`
	TravelPurpose               string    `json:"travel_purpose"`
	PreviousTravels             *string   `json:"previous_travels"`
	EducationLevel              *string   `json:"education_level"`
	EmploymentStatus            *string   `json:"employment_status"`
	PreferredInterviewDuration  int       `json:"preferred_interview_duration"`
	PreferredQuestionDifficulty string    `json:"preferred_question_difficulty"`
	PreferredInterviewStyle     string    `json:"preferred_interview_style"`
	SpecialRequirements         *string   `json:"special_requirements"`
	LanguagePreference          string    `json:"language_preference"`
	CreatedAt                   time.Time `json:"-"`
	UpdatedAt                   time.Time `json:"-"`
}

// OnboardingStatus reports whether a user may start an interview.
type OnboardingStatus struct {
	Completed         bool `json:"completed"`
	CanStartInterview bool `json:"can_start_interview"`
}
