package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"interviewapi/internal/config"
	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// AnswerInput is a candidate's reply to one question.
type AnswerInput struct {
	Response string
	Duration *int
}

// InterviewService runs mock interview sessions.
type InterviewService interface {
	// Start opens a session seeded from the user's question set for the current month.
	Start(ctx context.Context, userID int64) (*model.InterviewSession, error)

	// ListSessions returns the user's sessions, newest first.
	ListSessions(ctx context.Context, userID int64) ([]model.InterviewSession, error)

	GetSession(ctx context.Context, userID int64, sessionID string) (*model.SessionDetail, error)

	// EndSession completes the session and records its duration in seconds.
	EndSession(ctx context.Context, userID int64, sessionID string) (*model.InterviewSession, error)

	AnswerQuestion(ctx context.Context, userID int64, sessionID string, index int, in AnswerInput) (*model.Question, error)
}

type interviewService struct {
	interviews   repository.InterviewRepository
	onboarding   repository.OnboardingRepository
	questionSets repository.QuestionSetRepository
	cfg          config.InterviewConfig
	now          func() time.Time
}

// NewInterviewService constructs a new InterviewService.
func NewInterviewService(
	interviews repository.InterviewRepository,
	onboarding repository.OnboardingRepository,
	questionSets repository.QuestionSetRepository,
	cfg config.InterviewConfig,
) InterviewService {
	if cfg.QuestionsPerSession <= 0 {
		cfg.QuestionsPerSession = 10
	}
	return &interviewService{
		interviews:   interviews,
		onboarding:   onboarding,
		questionSets: questionSets,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *interviewService) Start(ctx context.Context, userID int64) (*model.InterviewSession, error) {
	if _, err := s.onboarding.FindByUser(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOnboardingRequired
		}
		return nil, err
	}

	now := s.now()
	set, err := s.questionSets.FindCompleted(ctx, userID, now.Format(model.MonthFormat))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionsNotReady
		}
		return nil, err
	}
	bank, err := decodeQuestionSet(set)
	if err != nil {
		return nil, err
	}
	if len(bank) == 0 {
		return nil, ErrQuestionsNotReady
	}

	st, err := s.interviews.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	set.LastAccessedAt = &now
	if err := s.questionSets.Update(ctx, set); err != nil {
		return nil, fmt.Errorf("touch question set: %w", err)
	}

	sess, err := s.interviews.CreateSession(ctx, &model.InterviewSession{
		UserID:         userID,
		SessionID:      uuid.New().String(),
		Status:         model.SessionActive,
		StartTime:      &now,
		QuestionsTotal: s.cfg.QuestionsPerSession,
	}, pickQuestions(bank, s.cfg.QuestionsPerSession, st.Total))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func decodeQuestionSet(set *model.MonthlyQuestionSet) ([]model.GeneratedQuestion, error) {
	if set.QuestionsData == nil || *set.QuestionsData == "" {
		return nil, nil
	}
	var qs []model.GeneratedQuestion
	if err := json.Unmarshal([]byte(*set.QuestionsData), &qs); err != nil {
		return nil, fmt.Errorf("decode question set %d: %w", set.ID, err)
	}
	return qs, nil
}

// pickQuestions takes n questions from the bank, rotating by the number of earlier sessions.
func pickQuestions(bank []model.GeneratedQuestion, n, sessionsSoFar int) []model.Question {
	if n > len(bank) {
		n = len(bank)
	}
	start := (sessionsSoFar * n) % len(bank)
	out := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		g := bank[(start+i)%len(bank)]
		out = append(out, model.Question{
			QuestionIndex:   i,
			QuestionText:    g.Text,
			QuestionType:    g.Category,
			DifficultyLevel: g.Difficulty,
		})
	}
	return out
}

func (s *interviewService) ListSessions(ctx context.Context, userID int64) ([]model.InterviewSession, error) {
	return s.interviews.ListSessions(ctx, userID)
}

func (s *interviewService) findSession(ctx context.Context, userID int64, sessionID string) (*model.InterviewSession, error) {
	if sessionID == "" {
		return nil, ErrIDRequired
	}
	sess, err := s.interviews.FindSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (s *interviewService) GetSession(ctx context.Context, userID int64, sessionID string) (*model.SessionDetail, error) {
	sess, err := s.findSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	qs, err := s.interviews.ListQuestions(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if qs == nil {
		qs = []model.Question{}
	}
	return &model.SessionDetail{InterviewSession: *sess, Questions: qs}, nil
}

func (s *interviewService) EndSession(ctx context.Context, userID int64, sessionID string) (*model.InterviewSession, error) {
	sess, err := s.findSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionCompleted {
		return nil, ErrSessionCompleted
	}

	end := s.now()
	duration := 0
	if sess.StartTime != nil {
		duration = int(end.Sub(*sess.StartTime) / time.Second)
	}
	sess.Status = model.SessionCompleted
	sess.EndTime = &end
	sess.Duration = &duration

	if err := s.interviews.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *interviewService) AnswerQuestion(ctx context.Context, userID int64, sessionID string, index int, in AnswerInput) (*model.Question, error) {
	sess, err := s.findSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionCompleted {
		return nil, ErrSessionCompleted
	}

	qs, err := s.interviews.ListQuestions(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	var q *model.Question
	for i := range qs {
		if qs[i].QuestionIndex == index {
			q = &qs[i]
			break
		}
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}

	now := s.now()
	firstAnswer := !q.IsAnswered
	resp := in.Response
	q.UserResponse = &resp
	q.AnswerDuration = in.Duration
	q.IsAnswered = true
	q.AnsweredAt = &now
	if err := s.interviews.UpdateQuestion(ctx, q); err != nil {
		return nil, err
	}

	if firstAnswer {
		sess.QuestionsAsked++
	}
	if index+1 > sess.CurrentQuestionIndex {
		sess.CurrentQuestionIndex = index + 1
	}
	if err := s.interviews.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}
	return q, nil
}
