package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"zoombook/internal/models"
)

const userColumns = `id, username, password_hash, role, active_session_token, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, password_hash, role, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)`
	ts := now()
	result, err := db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.Role, ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return db.queryUser(ctx, query, username)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	var token sql.NullString
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role, &token,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.ActiveSessionToken = token.String
	return &user, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		var token sql.NullString
		err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &token, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.ActiveSessionToken = token.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) RenameUser(ctx context.Context, id int64, username string) error {
	query := `UPDATE users SET username = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, username, now(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to rename user: %w", err)
	}
	return requireRow(result)
}

// UpdateUserPassword replaces the hash and rotates the session token so the
// target's current session stops validating.
func (db *DB) UpdateUserPassword(ctx context.Context, id int64, passwordHash, newToken string) error {
	query := `UPDATE users SET password_hash = ?, active_session_token = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, passwordHash, newToken, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(result)
}

func (db *DB) SetSessionToken(ctx context.Context, id int64, token string) error {
	query := `UPDATE users SET active_session_token = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, token, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set session token: %w", err)
	}
	return requireRow(result)
}

func (db *DB) ClearSessionToken(ctx context.Context, id int64) error {
	query := `UPDATE users SET active_session_token = NULL, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, now(), id)
	if err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return requireRow(result)
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
