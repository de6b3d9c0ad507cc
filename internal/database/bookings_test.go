package database

import (
	"context"
	"testing"

	"zoombook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testBooking(room, date, start, end string) *models.Booking {
	return &models.Booking{
		Room:          room,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		RequesterName: "Ivan",
		Department:    "IT",
		Topic:         "Sync",
		CreatedBy:     "admin",
	}
}

func TestCreateBooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := testBooking("A101", "2024-01-10", "10:00", "11:00")
	require.NoError(t, db.CreateBooking(ctx, b))
	assert.NotZero(t, b.ID)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "A101", got.Room)
	assert.Equal(t, "10:00", got.StartTime)
	assert.Equal(t, "admin", got.CreatedBy)
}

func TestCreateBookingConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, testBooking("A101", "2024-01-10", "10:00", "11:00")))

	tests := []struct {
		name       string
		start, end string
		wantErr    error
	}{
		{"identical slot", "10:00", "11:00", ErrTimeConflict},
		{"overlaps start", "09:30", "10:30", ErrTimeConflict},
		{"overlaps end", "10:30", "11:30", ErrTimeConflict},
		{"contains existing", "09:00", "12:00", ErrTimeConflict},
		{"inside existing", "10:15", "10:45", ErrTimeConflict},
		{"ends when existing starts", "09:00", "10:00", nil},
		{"starts when existing ends", "11:00", "12:00", nil},
		{"well before", "08:00", "09:00", nil},
		{"well after", "12:00", "13:00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateBooking(ctx, testBooking("A101", "2024-01-10", tt.start, tt.end))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateBookingOtherRoomAndDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, testBooking("A101", "2024-01-10", "10:00", "11:00")))

	// Same slot in another room is fine
	require.NoError(t, db.CreateBooking(ctx, testBooking("A102", "2024-01-10", "10:00", "11:00")))

	// Same slot on another day is fine
	require.NoError(t, db.CreateBooking(ctx, testBooking("A101", "2024-01-11", "10:00", "11:00")))
}

func TestUpdateBookingExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := testBooking("A101", "2024-01-10", "10:00", "11:00")
	require.NoError(t, db.CreateBooking(ctx, b))

	// Shifting the booking within its own slot must not self-conflict
	b.StartTime = "10:15"
	b.EndTime = "11:15"
	require.NoError(t, db.UpdateBooking(ctx, b))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:15", got.StartTime)
}

func TestUpdateBookingConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, testBooking("A101", "2024-01-10", "10:00", "11:00")))
	b := testBooking("A101", "2024-01-10", "12:00", "13:00")
	require.NoError(t, db.CreateBooking(ctx, b))

	b.StartTime = "10:30"
	b.EndTime = "11:30"
	assert.ErrorIs(t, db.UpdateBooking(ctx, b), ErrTimeConflict)
}

func TestUpdateBookingNotFound(t *testing.T) {
	db := newTestDB(t)

	b := testBooking("A101", "2024-01-10", "10:00", "11:00")
	b.ID = 999
	assert.ErrorIs(t, db.UpdateBooking(context.Background(), b), ErrNotFound)
}

func TestDeleteBooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := testBooking("A101", "2024-01-10", "10:00", "11:00")
	require.NoError(t, db.CreateBooking(ctx, b))
	require.NoError(t, db.DeleteBooking(ctx, b.ID))

	_, err := db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteBooking(ctx, b.ID), ErrNotFound)
}

func TestListBookingsOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, testBooking("A101", "2024-01-11", "09:00", "10:00")))
	require.NoError(t, db.CreateBooking(ctx, testBooking("A101", "2024-01-10", "14:00", "15:00")))
	require.NoError(t, db.CreateBooking(ctx, testBooking("A101", "2024-01-10", "10:00", "11:00")))

	calendar, err := db.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, calendar, 3)
	assert.Equal(t, "2024-01-10", calendar[0].Date)
	assert.Equal(t, "10:00", calendar[0].StartTime)
	assert.Equal(t, "2024-01-11", calendar[2].Date)

	admin, err := db.ListBookingsAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, admin, 3)
	assert.Equal(t, "2024-01-11", admin[0].Date)
	assert.Equal(t, "2024-01-10", admin[1].Date)
	assert.Equal(t, "10:00", admin[1].StartTime)
	assert.Equal(t, "14:00", admin[2].StartTime)
}

func TestHasConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	b := testBooking("A101", "2024-01-10", "10:00", "11:00")
	require.NoError(t, db.CreateBooking(ctx, b))

	conflict, err := db.HasConflict(ctx, "A101", "2024-01-10", "10:30", "11:30", 0)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = db.HasConflict(ctx, "A101", "2024-01-10", "10:30", "11:30", b.ID)
	require.NoError(t, err)
	assert.False(t, conflict)
}
