package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zoombook/internal/config"
	"zoombook/internal/database"
	"zoombook/internal/metrics"
	"zoombook/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	db     *database.DB
	cfg    config.BookingConfig
	logger *zerolog.Logger
}

func NewBookingService(db *database.DB, cfg config.BookingConfig, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// Create validates and stores a booking. The storage layer re-checks the
// overlap inside its transaction, so a conflict can still surface here even
// after validation passed.
func (s *BookingService) Create(ctx context.Context, booking *models.Booking) error {
	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.db.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, database.ErrTimeConflict) {
			metrics.RecordBookingConflict()
			s.logger.Info().
				Str("room", booking.Room).
				Str("date", booking.Date).
				Str("start", booking.StartTime).
				Str("end", booking.EndTime).
				Msg("Booking rejected: time conflict")
		}
		return err
	}

	metrics.RecordBookingCreated()
	s.logger.Info().
		Int64("id", booking.ID).
		Str("room", booking.Room).
		Str("date", booking.Date).
		Str("created_by", booking.CreatedBy).
		Msg("Booking created")
	return nil
}

// Update rewrites an existing booking under the same validation and conflict
// rules as Create.
func (s *BookingService) Update(ctx context.Context, booking *models.Booking) error {
	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.db.UpdateBooking(ctx, booking); err != nil {
		if errors.Is(err, database.ErrTimeConflict) {
			metrics.RecordBookingConflict()
		}
		return err
	}

	s.logger.Info().Int64("id", booking.ID).Msg("Booking updated")
	return nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return s.db.GetBooking(ctx, id)
}

func (s *BookingService) Delete(ctx context.Context, id int64) error {
	if err := s.db.DeleteBooking(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("id", id).Msg("Booking deleted")
	return nil
}

// List returns all bookings ordered for the calendar feed.
func (s *BookingService) List(ctx context.Context) ([]*models.Booking, error) {
	return s.db.ListBookings(ctx)
}

// ListAdmin returns all bookings ordered for the admin panel, newest date
// first.
func (s *BookingService) ListAdmin(ctx context.Context) ([]*models.Booking, error) {
	return s.db.ListBookingsAdmin(ctx)
}

// CalendarEvents renders the bookings as calendar events.
func (s *BookingService) CalendarEvents(ctx context.Context) ([]*models.CalendarEvent, error) {
	bookings, err := s.db.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]*models.CalendarEvent, 0, len(bookings))
	for _, b := range bookings {
		events = append(events, &models.CalendarEvent{
			ID:    b.ID,
			Title: fmt.Sprintf("[%s] %s", b.Room, b.Topic),
			Start: b.Date + "T" + b.StartTime,
			End:   b.Date + "T" + b.EndTime,
			ExtendedProps: models.CalendarEventProps{
				Room:      b.Room,
				Requester: b.RequesterName,
				Dept:      b.Department,
				Topic:     b.Topic,
				Creator:   b.CreatedBy,
			},
		})
	}
	return events, nil
}

func (s *BookingService) validate(booking *models.Booking) error {
	for _, field := range []string{
		booking.Room,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		booking.RequesterName,
		booking.Department,
		booking.Topic,
	} {
		if strings.TrimSpace(field) == "" {
			return ErrMissingFields
		}
	}

	if _, err := time.Parse("2006-01-02", booking.Date); err != nil {
		return ErrInvalidTimeRange
	}
	start, err := time.Parse("15:04", booking.StartTime)
	if err != nil {
		return ErrInvalidTimeRange
	}
	end, err := time.Parse("15:04", booking.EndTime)
	if err != nil {
		return ErrInvalidTimeRange
	}
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}

	if s.cfg.BusinessHours.IsEnabled() {
		// HH:MM compares lexicographically once both times parsed
		if booking.StartTime < s.cfg.BusinessHours.Start || booking.EndTime > s.cfg.BusinessHours.End {
			return ErrOutsideBusinessHours
		}
	}

	return nil
}
