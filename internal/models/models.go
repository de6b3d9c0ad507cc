package models

import "time"

type User struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"` // admin, user
	ActiveSessionToken string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Booking struct {
	ID            int64     `json:"id"`
	Room          string    `json:"room"`
	Date          string    `json:"date"`       // YYYY-MM-DD
	StartTime     string    `json:"start_time"` // HH:MM
	EndTime       string    `json:"end_time"`   // HH:MM
	RequesterName string    `json:"requester_name"`
	Department    string    `json:"department"`
	Topic         string    `json:"topic"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Session mirrors the token carried in the client's cookie. The user row's
// active_session_token stays the source of truth for displacement.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CalendarEvent is the /api/bookings wire shape consumed by the calendar UI.
type CalendarEvent struct {
	ID            int64              `json:"id"`
	Title         string             `json:"title"`
	Start         string             `json:"start"`
	End           string             `json:"end"`
	ExtendedProps CalendarEventProps `json:"extendedProps"`
}

type CalendarEventProps struct {
	Room      string `json:"room"`
	Requester string `json:"requester"`
	Dept      string `json:"dept"`
	Topic     string `json:"topic"`
	Creator   string `json:"creator"`
}
