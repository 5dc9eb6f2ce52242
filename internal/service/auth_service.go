package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"metergrid/internal/domain"
	"metergrid/internal/password"
)

// ErrInvalidCredentials represents login failure. It deliberately does
// not distinguish unknown accounts from wrong passwords.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// UserStore defines the account storage contract.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, hash string) error
}

// LoginLogStore appends login audit rows.
type LoginLogStore interface {
	Insert(ctx context.Context, log *domain.LoginLog) error
}

// AuthService authenticates back-office users. The core trusts the
// principal it produces; nothing else in the system authenticates.
type AuthService struct {
	users     UserStore
	loginLogs LoginLogStore
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(users UserStore, loginLogs LoginLogStore, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		loginLogs: loginLogs,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Login authenticates a user, audits the attempt and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, plaintext, ip string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plaintext == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			s.audit(ctx, nil, email, ip, false)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, plaintext); err != nil {
		s.audit(ctx, &user.ID, email, ip, false)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	s.audit(ctx, &user.ID, email, ip, true)
	return token, user, nil
}

// ChangePassword verifies the current password and stores a new hash,
// clearing any forced-change flag.
func (s *AuthService) ChangePassword(ctx context.Context, email, current, next string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || current == "" || next == "" {
		return domain.InvalidInput("email, current and new password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int64("user_id", user.ID))
	return nil
}

// audit writes the login log row; audit failures never block the
// login itself.
func (s *AuthService) audit(ctx context.Context, userID *int64, email, ip string, success bool) {
	if s.loginLogs == nil {
		return
	}
	log := &domain.LoginLog{UserID: userID, Email: email, IPAddress: ip, Success: success}
	if err := s.loginLogs.Insert(ctx, log); err != nil {
		s.logger.Warn("login audit write failed", zap.Error(err))
	}
}
