package service

import (
	"context"
	"fmt"
	"strings"

	"zoombook/internal/config"
	"zoombook/internal/database"
	"zoombook/internal/models"
	"zoombook/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	db       *database.DB
	sessions repository.SessionRepository
	cfg      config.UsersConfig
	logger   *zerolog.Logger
}

func NewUserService(db *database.DB, sessions repository.SessionRepository, cfg config.UsersConfig, logger *zerolog.Logger) *UserService {
	return &UserService{
		db:       db,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.db.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.db.GetUserByID(ctx, id)
}

// Create adds a user. An empty role falls back to the configured default.
func (s *UserService) Create(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	if role == "" {
		role = s.cfg.DefaultRole
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Str("role", role).Msg("User created")
	return user, nil
}

// Update renames a user and optionally changes the password. A password
// change rotates the session token, so the target's current session stops
// validating on its next request.
func (s *UserService) Update(ctx context.Context, id int64, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrMissingFields
	}

	user, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if username != user.Username {
		if err := s.db.RenameUser(ctx, id, username); err != nil {
			return err
		}
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.db.UpdateUserPassword(ctx, id, string(hash), uuid.NewString()); err != nil {
			return err
		}
		if user.ActiveSessionToken != "" {
			if err := s.sessions.DeleteSession(ctx, user.ActiveSessionToken); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to delete session after password change")
			}
		}
	}

	s.logger.Info().Int64("id", id).Str("username", username).Msg("User updated")
	return nil
}

// Delete removes a user. Admins cannot delete their own account so the
// system never loses its last administrator by accident.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfDelete
	}

	user, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if user.ActiveSessionToken != "" {
		if err := s.sessions.DeleteSession(ctx, user.ActiveSessionToken); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to delete session of removed user")
		}
	}

	if err := s.db.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("id", id).Str("username", user.Username).Msg("User deleted")
	return nil
}
