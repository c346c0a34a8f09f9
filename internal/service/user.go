package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"interviewapi/internal/auth"
	"interviewapi/internal/database"
	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
	TTL() time.Duration
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Email    *string
	FullName *string
}

// UserService handles accounts, login and per-user statistics.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)

	// Login verifies the credentials and issues a bearer token.
	Login(ctx context.Context, email, password string) (*model.Token, error)

	Profile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*model.User, error)

	// Stats summarizes the user's interview sessions.
	Stats(ctx context.Context, userID int64) (*model.UserStats, error)
}

type userService struct {
	users      repository.UserRepository
	interviews repository.InterviewRepository
	tokens     TokenIssuer
}

// NewUserService constructs a new UserService.
func NewUserService(users repository.UserRepository, interviews repository.InterviewRepository, tokens TokenIssuer) UserService {
	return &userService{users: users, interviews: interviews, tokens: tokens}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, &model.User{
		Email:          email,
		HashedPassword: hash,
		FullName:       strings.TrimSpace(in.FullName),
		IsActive:       true,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*model.Token, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.Token{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL() / time.Second),
	}, nil
}

func (s *userService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*model.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != u.Email {
			other, err := s.users.FindByEmail(ctx, email)
			switch {
			case err == nil && other.ID != u.ID:
				return nil, ErrEmailTaken
			case err != nil && !errors.Is(err, sql.ErrNoRows):
				return nil, err
			}
			u.Email = email
		}
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return updated, nil
}

func (s *userService) Stats(ctx context.Context, userID int64) (*model.UserStats, error) {
	st, err := s.interviews.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.UserStats{
		TotalSessions:     st.Total,
		CompletedSessions: st.Completed,
		AverageScore:      round(st.AverageScore, 2),
		SuccessRate:       percent(st.Completed, st.Total),
	}, nil
}
