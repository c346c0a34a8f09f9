package service

import (
	"context"
	"database/sql"
	"errors"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// Submit outcomes.
const (
	OnboardingCreated = "created"
	OnboardingUpdated = "updated"
)

// Defaults applied to unset interview preferences.
const (
	DefaultInterviewDuration = 30
	DefaultDifficulty        = "medium"
	DefaultInterviewStyle    = "formal"
	DefaultLanguage          = "english"
)

// OnboardingResult reports whether a submission created or replaced the stored answers.
type OnboardingResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// OnboardingService manages the per-user onboarding questionnaire.
type OnboardingService interface {
	// Submit stores the questionnaire, replacing any earlier one.
	Submit(ctx context.Context, userID int64, in model.OnboardingResponse) (*OnboardingResult, error)
	Get(ctx context.Context, userID int64) (*model.OnboardingResponse, error)
	Status(ctx context.Context, userID int64) (*model.OnboardingStatus, error)
}

type onboardingService struct {
	repo repository.OnboardingRepository
}

// NewOnboardingService constructs a new OnboardingService.
func NewOnboardingService(repo repository.OnboardingRepository) OnboardingService {
	return &onboardingService{repo: repo}
}

func applyOnboardingDefaults(o *model.OnboardingResponse) {
	if o.PreferredInterviewDuration <= 0 {
		o.PreferredInterviewDuration = DefaultInterviewDuration
	}
	if o.PreferredQuestionDifficulty == "" {
		o.PreferredQuestionDifficulty = DefaultDifficulty
	}
	if o.PreferredInterviewStyle == "" {
		o.PreferredInterviewStyle = DefaultInterviewStyle
	}
	if o.LanguagePreference == "" {
		o.LanguagePreference = DefaultLanguage
	}
}

func (s *onboardingService) Submit(ctx context.Context, userID int64, in model.OnboardingResponse) (*OnboardingResult, error) {
	in.UserID = userID
	applyOnboardingDefaults(&in)

	existing, err := s.repo.FindByUser(ctx, userID)
	switch {
	case err == nil:
		in.ID = existing.ID
		if _, err := s.repo.Update(ctx, &in); err != nil {
			return nil, err
		}
		return &OnboardingResult{Message: "Onboarding data updated successfully", Status: OnboardingUpdated}, nil
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.repo.Create(ctx, &in); err != nil {
			return nil, err
		}
		return &OnboardingResult{Message: "Onboarding data submitted successfully", Status: OnboardingCreated}, nil
	default:
		return nil, err
	}
}

func (s *onboardingService) Get(ctx context.Context, userID int64) (*model.OnboardingResponse, error) {
	o, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOnboardingNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *onboardingService) Status(ctx context.Context, userID int64) (*model.OnboardingStatus, error) {
	_, err := s.repo.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	exists := err == nil
	return &model.OnboardingStatus{Completed: exists, CanStartInterview: exists}, nil
}
