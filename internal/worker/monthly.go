package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"interviewapi/internal/agent"
	"interviewapi/internal/model"
)

// GenerateMonthly builds the current month's question set for every active user
// that lacks one. A failure for one user is recorded on its set and does not stop
// the others. It returns how many sets completed.
func (r *Runner) GenerateMonthly(ctx context.Context) (int, error) {
	month := r.now().Format(model.MonthFormat)
	users, err := r.Users.ListWithoutQuestionSet(ctx, month)
	if err != nil {
		return 0, fmt.Errorf("list users without %s questions: %w", month, err)
	}

	done := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if err := r.generateForUser(ctx, u.ID, month); err != nil {
			r.log.Error().
				Err(err).
				Str("event", "monthly_generation_failed").
				Int64("user_id", u.ID).
				Str("month", month).
				Msg("monthly question generation failed")
			continue
		}
		done++
	}
	if len(users) > 0 {
		r.log.Info().
			Str("event", "monthly_generation_done").
			Str("month", month).
			Int("users", len(users)).
			Int("completed", done).
			Msg("monthly question generation finished")
	}
	return done, nil
}

func (r *Runner) generateForUser(ctx context.Context, userID int64, month string) error {
	var profile agent.Profile
	o, err := r.Onboarding.FindByUser(ctx, userID)
	switch {
	case err == nil:
		profile = agent.ProfileFromOnboarding(o)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("load onboarding: %w", err)
	}

	started := r.now()
	set, err := r.QuestionSets.Create(ctx, &model.MonthlyQuestionSet{
		UserID:              userID,
		MonthYear:           month,
		Status:              model.QuestionSetGenerating,
		TotalQuestions:      r.opts.MonthlyQuestionCount,
		GenerationStartedAt: &started,
	})
	if err != nil {
		return fmt.Errorf("create question set: %w", err)
	}

	qs := r.Generator.GenerateQuestions(ctx, profile, r.opts.MonthlyQuestionCount)
	genErr := func() error {
		if len(qs) == 0 {
			return errors.New("no questions generated")
		}
		b, err := json.Marshal(qs)
		if err != nil {
			return fmt.Errorf("encode questions: %w", err)
		}
		data := string(b)
		set.QuestionsData = &data
		return nil
	}()

	finished := r.now()
	if genErr != nil {
		msg := genErr.Error()
		set.Status = model.QuestionSetFailed
		set.ErrorMessage = &msg
	} else {
		set.Status = model.QuestionSetCompleted
		set.TotalQuestions = len(qs)
		set.GeneratedQuestions = len(qs)
		set.GenerationCompletedAt = &finished
	}
	if err := r.QuestionSets.Update(ctx, set); err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	if genErr != nil {
		return genErr
	}

	r.log.Info().
		Str("event", "monthly_generation_user").
		Int64("user_id", userID).
		Int("questions", len(qs)).
		Dur("took", finished.Sub(started)).
		Msg("question set generated")
	return nil
}
