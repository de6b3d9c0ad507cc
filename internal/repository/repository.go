package repository

import (
	"context"
	"time"

	"zoombook/internal/models"
)

// SessionRepository stores issued sessions keyed by token and tracks
// login-attempt counters.
type SessionRepository interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
