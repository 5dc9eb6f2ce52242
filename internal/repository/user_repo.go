package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"metergrid/internal/domain"
)

// UserRepository handles back-office accounts.
type UserRepository struct {
	pool *sql.DB
}

// NewUserRepository returns repository.
func NewUserRepository(pool *sql.DB) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT id, last_name, first_name, email, password_hash, role, must_change_password, created_at
		FROM users
		WHERE email = $1
	`
	var u domain.User
	err := r.pool.QueryRowContext(ctx, query, email).Scan(
		&u.ID,
		&u.LastName,
		&u.FirstName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.MustChangePassword,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePassword replaces the password hash and clears the forced
// change flag.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2, must_change_password = FALSE, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.ExecContext(ctx, query, userID, hash)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("user %d not found", userID)
	}
	return nil
}

// LoginLogRepository appends login audit rows.
type LoginLogRepository struct {
	pool *sql.DB
}

// NewLoginLogRepository returns repository.
func NewLoginLogRepository(pool *sql.DB) *LoginLogRepository {
	return &LoginLogRepository{pool: pool}
}

// Insert appends one attempt, successful or not.
func (r *LoginLogRepository) Insert(ctx context.Context, log *domain.LoginLog) error {
	const query = `
		INSERT INTO login_logs (user_id, email, ip_address, success, attempted_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var userID sql.NullInt64
	if log.UserID != nil {
		userID = sql.NullInt64{Int64: *log.UserID, Valid: true}
	}
	at := log.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return r.pool.QueryRowContext(ctx, query, userID, log.Email, log.IPAddress, log.Success, at).Scan(&log.ID)
}
