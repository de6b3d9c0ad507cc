package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zoombook/internal/config"
	"zoombook/internal/database"
	"zoombook/internal/metrics"
	"zoombook/internal/models"
	"zoombook/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and validates session tokens. The user row's
// active_session_token is the authority: a token that no longer matches it
// is dead even if a session record still exists.
type AuthService struct {
	db       *database.DB
	sessions repository.SessionRepository
	cfg      config.AuthConfig
	logger   *zerolog.Logger
}

func NewAuthService(db *database.DB, sessions repository.SessionRepository, cfg config.AuthConfig, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		db:       db,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// Login verifies credentials and issues a fresh token. clientKey identifies
// the caller for rate limiting, usually the remote IP.
func (s *AuthService) Login(ctx context.Context, username, password, clientKey string) (*models.Session, error) {
	window := time.Duration(s.cfg.LoginRate.Window) * time.Second
	allowed, err := s.sessions.CheckRateLimit(ctx, "login:"+clientKey, s.cfg.LoginRate.Attempts, window)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Login rate limit check failed, allowing attempt")
	} else if !allowed {
		metrics.RecordLogin("rate_limited")
		return nil, ErrTooManyAttempts
	}

	user, err := s.db.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		metrics.RecordLogin("invalid")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordLogin("invalid")
		return nil, ErrInvalidCredentials
	}

	if user.ActiveSessionToken != "" {
		if s.cfg.SessionPolicy == models.SessionPolicyReject {
			// A stale token with no live session record does not block login
			existing, getErr := s.sessions.GetSession(ctx, user.ActiveSessionToken)
			if getErr == nil && existing != nil {
				metrics.RecordLogin("rejected")
				return nil, ErrAlreadyLoggedIn
			}
		} else {
			if err := s.sessions.DeleteSession(ctx, user.ActiveSessionToken); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to delete displaced session record")
			}
			metrics.RecordSessionDisplaced()
			s.logger.Info().Str("username", user.Username).Msg("Displacing previous session")
		}
	}

	token := uuid.NewString()
	if err := s.db.SetSessionToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}

	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.RecordLogin("success")
	s.logger.Info().Str("username", user.Username).Msg("User logged in")
	return session, nil
}

// Validate resolves a cookie token to a live session. A token that does not
// match the user row's current token has been displaced and is deleted.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionExpired
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionExpired
	}

	user, err := s.db.GetUserByID(ctx, session.UserID)
	if errors.Is(err, database.ErrNotFound) {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.ActiveSessionToken != token {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, ErrSessionExpired
	}

	// Role and username may have changed since login
	session.Username = user.Username
	session.Role = user.Role
	return session, nil
}

// Logout drops the session record and clears the user row's token, but only
// when the row still holds this token. A displaced session must not log out
// the session that displaced it.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session != nil {
		user, err := s.db.GetUserByID(ctx, session.UserID)
		if err == nil && user.ActiveSessionToken == token {
			if err := s.db.ClearSessionToken(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to clear session token: %w", err)
			}
		}
		s.logger.Info().Str("username", session.Username).Msg("User logged out")
	}

	return s.sessions.DeleteSession(ctx, token)
}
