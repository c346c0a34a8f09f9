package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"interviewapi/internal/model"
	repoMocks "interviewapi/internal/repository/mocks"
)

func TestOnboardingService_Submit(t *testing.T) {
	ctx := context.Background()
	in := model.OnboardingResponse{VisaType: "student", DestinationCountry: "US", TravelPurpose: "study"}

	tests := []struct {
		name       string
		setupMocks func(mRepo *repoMocks.MockOnboardingRepository)
		want       *OnboardingResult
		wantErr    bool
	}{
		{
			name: "first submission is created with defaults",
			setupMocks: func(mRepo *repoMocks.MockOnboardingRepository) {
				mRepo.On("FindByUser", ctx, int64(4)).Return(nil, sql.ErrNoRows)
				mRepo.On("Create", ctx, mock.MatchedBy(func(o *model.OnboardingResponse) bool {
					return o.UserID == 4 &&
						o.PreferredInterviewDuration == 30 &&
						o.PreferredQuestionDifficulty == "medium" &&
						o.PreferredInterviewStyle == "formal" &&
						o.LanguagePreference == "english"
				})).Return(&model.OnboardingResponse{ID: 1}, nil)
			},
			want: &OnboardingResult{Message: "Onboarding data submitted successfully", Status: OnboardingCreated},
		},
		{
			name: "second submission replaces the first",
			setupMocks: func(mRepo *repoMocks.MockOnboardingRepository) {
				mRepo.On("FindByUser", ctx, int64(4)).Return(&model.OnboardingResponse{ID: 11, UserID: 4}, nil)
				mRepo.On("Update", ctx, mock.MatchedBy(func(o *model.OnboardingResponse) bool {
					return o.ID == 11 && o.VisaType == "student"
				})).Return(&model.OnboardingResponse{ID: 11}, nil)
			},
			want: &OnboardingResult{Message: "Onboarding data updated successfully", Status: OnboardingUpdated},
		},
		{
			name: "lookup error",
			setupMocks: func(mRepo *repoMocks.MockOnboardingRepository) {
				mRepo.On("FindByUser", ctx, int64(4)).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockOnboardingRepository)
			svc := NewOnboardingService(mRepo)

			tt.setupMocks(mRepo)

			got, err := svc.Submit(ctx, 4, in)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestOnboardingService_GetAndStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		mRepo := new(repoMocks.MockOnboardingRepository)
		mRepo.On("FindByUser", ctx, int64(2)).Return(&model.OnboardingResponse{VisaType: "tourist"}, nil)
		svc := NewOnboardingService(mRepo)

		o, err := svc.Get(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, "tourist", o.VisaType)

		st, err := svc.Status(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, &model.OnboardingStatus{Completed: true, CanStartInterview: true}, st)
	})

	t.Run("absent", func(t *testing.T) {
		mRepo := new(repoMocks.MockOnboardingRepository)
		mRepo.On("FindByUser", ctx, int64(2)).Return(nil, sql.ErrNoRows)
		svc := NewOnboardingService(mRepo)

		_, err := svc.Get(ctx, 2)
		assert.ErrorIs(t, err, ErrOnboardingNotFound)
		assert.ErrorIs(t, err, ErrNotFound)

		st, err := svc.Status(ctx, 2)
		assert.NoError(t, err)
		assert.False(t, st.Completed)
		assert.False(t, st.CanStartInterview)
	})
}
