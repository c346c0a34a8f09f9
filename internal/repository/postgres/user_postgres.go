package postgres

import (
	"context"
	"database/sql"

	"interviewapi/internal/model"
	"interviewapi/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, email, hashed_password, full_name, is_active, is_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.FullName,
		&u.IsActive,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (email, hashed_password, full_name, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, u.Email, u.HashedPassword, u.FullName, u.IsActive, u.IsVerified))
}

// FindByID fetches a user by primary key.
func (r *UserPostgres) FindByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByEmail fetches a user by email address.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// Update writes the editable profile columns.
func (r *UserPostgres) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users
		SET email = $2, full_name = $3, is_active = $4, is_verified = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, u.ID, u.Email, u.FullName, u.IsActive, u.IsVerified))
}

// ListWithoutQuestionSet returns active users with no question set row for monthYear.
func (r *UserPostgres) ListWithoutQuestionSet(ctx context.Context, monthYear string) ([]model.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM monthly_question_sets m
			WHERE m.user_id = u.id AND m.month_year = $1
		  )
		ORDER BY u.id
	`
	rows, err := r.db.QueryContext(ctx, q, monthYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
