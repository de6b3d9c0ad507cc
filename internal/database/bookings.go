package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"zoombook/internal/models"
)

const bookingColumns = `id, room, date, start_time, end_time, requester_name, department, topic, created_by, created_at, updated_at`

// CreateBooking inserts a booking after re-checking the interval overlap
// inside the same transaction. Two intervals [s1,e1) and [s2,e2) overlap
// iff s1 < e2 AND e1 > s2, so adjacent bookings are allowed.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflicts, err := countConflicts(ctx, tx, booking.Room, booking.Date, booking.StartTime, booking.EndTime, 0)
	if err != nil {
		return err
	}
	if conflicts > 0 {
		return ErrTimeConflict
	}

	query := `INSERT INTO bookings (
                room, date, start_time, end_time,
                requester_name, department, topic, created_by,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	ts := now()
	result, err := tx.ExecContext(ctx, query,
		booking.Room,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		booking.RequesterName,
		booking.Department,
		booking.Topic,
		booking.CreatedBy,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = ts
	booking.UpdatedAt = ts

	return tx.Commit()
}

// UpdateBooking rewrites a booking, excluding its own row from the conflict
// search so a booking never conflicts with itself.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflicts, err := countConflicts(ctx, tx, booking.Room, booking.Date, booking.StartTime, booking.EndTime, booking.ID)
	if err != nil {
		return err
	}
	if conflicts > 0 {
		return ErrTimeConflict
	}

	query := `UPDATE bookings SET
                room = ?, date = ?, start_time = ?, end_time = ?,
                requester_name = ?, department = ?, topic = ?, updated_at = ?
              WHERE id = ?`
	result, err := tx.ExecContext(ctx, query,
		booking.Room,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		booking.RequesterName,
		booking.Department,
		booking.Topic,
		now(),
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking in tx: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func countConflicts(ctx context.Context, tx *sql.Tx, room, date, start, end string, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE room = ? AND date = ? AND id != ?
              AND start_time < ? AND end_time > ?`
	var count int
	err := tx.QueryRowContext(ctx, query, room, date, excludeID, end, start).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to check conflicts in tx: %w", err)
	}
	return count, nil
}

// HasConflict reports whether [start,end) overlaps a stored booking for the
// room and date. Read-only helper for availability probes; mutating paths
// re-check inside their own transaction.
func (db *DB) HasConflict(ctx context.Context, room, date, start, end string, excludeID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE room = ? AND date = ? AND id != ?
              AND start_time < ? AND end_time > ?`
	var count int
	err := db.QueryRowContext(ctx, query, room, date, excludeID, end, start).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return count > 0, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	var b models.Booking
	err := db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Room, &b.Date, &b.StartTime, &b.EndTime,
		&b.RequesterName, &b.Department, &b.Topic, &b.CreatedBy,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// ListBookings returns every booking, ordered for the calendar feed.
func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY date ASC, start_time ASC`
	return db.queryBookings(ctx, query)
}

// ListBookingsAdmin returns bookings ordered for the admin panel:
// newest date first, earliest start first within a date.
func (db *DB) ListBookingsAdmin(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY date DESC, start_time ASC`
	return db.queryBookings(ctx, query)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		err := rows.Scan(
			&b.ID, &b.Room, &b.Date, &b.StartTime, &b.EndTime,
			&b.RequesterName, &b.Department, &b.Topic, &b.CreatedBy,
			&b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return requireRow(result)
}
