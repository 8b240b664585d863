// Package auth covers account registration, login, and JWT-based request
// authentication.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// RegisterParams is the payload for creating an account.
type RegisterParams struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
}

// LoginResult is produced after a successful login or registration.
type LoginResult struct {
	User   *User
	Tokens *TokenPair
}

// ErrAccountInactive is returned when a user has been disabled.
var ErrAccountInactive = errors.New("account is deactivated")

// Service coordinates auth business logic.
type Service struct {
	repo   Repository
	tokens *TokenManager
	logger *slog.Logger
}

// NewService constructs an auth service.
func NewService(repo Repository, tokens *TokenManager, logger *slog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register creates a new account and issues tokens.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*LoginResult, error) {
	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, params.Email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashed, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, params.Email, params.Username, hashed, params.DisplayName)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Login authenticates a user against stored credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if !ComparePassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", "error", err)
	}

	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Refresh validates a refresh token and issues a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Username)
}

// ValidateAccessToken verifies an access token and returns its claims.
func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(token)
}
