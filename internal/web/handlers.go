package web

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"zoombook/internal/database"
	"zoombook/internal/models"
	"zoombook/internal/service"
)

const sessionCookie = "session_token"

func tokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   s.cfg.Auth.SessionTTL,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// Already authenticated clients skip the form
	if _, err := s.auth.Validate(r.Context(), tokenFromRequest(r)); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.render(w, "login.html", map[string]interface{}{
		"Flash": popFlash(w, r),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	session, err := s.auth.Login(r.Context(), username, password, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyAttempts):
			setFlash(w, "danger", "Too many login attempts. Please wait a minute and try again.")
		case errors.Is(err, service.ErrAlreadyLoggedIn):
			setFlash(w, "danger", "This account is already logged in on another device.")
		case errors.Is(err, service.ErrInvalidCredentials):
			setFlash(w, "danger", "Invalid username or password.")
		default:
			s.logger.Error().Err(err).Msg("Login failed")
			setFlash(w, "danger", "Login failed, please try again.")
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	s.setSessionCookie(w, session.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		s.logger.Warn().Err(err).Msg("Logout failed")
	}
	clearSessionCookie(w)
	setFlash(w, "success", "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	s.render(w, "index.html", map[string]interface{}{
		"Flash":   popFlash(w, r),
		"Session": session,
		"IsAdmin": session.Role == models.RoleAdmin,
		"Rooms":   s.cfg.Booking.Rooms,
	})
}

func (s *Server) handleBookingsFeed(w http.ResponseWriter, r *http.Request) {
	events, err := s.bookings.CalendarEvents(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load calendar events")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load bookings"})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	session := sessionFromContext(r.Context())
	booking := &models.Booking{
		Room:          r.PostFormValue("room"),
		Date:          r.PostFormValue("date"),
		StartTime:     r.PostFormValue("start_time"),
		EndTime:       r.PostFormValue("end_time"),
		RequesterName: r.PostFormValue("name"),
		Department:    r.PostFormValue("dept"),
		Topic:         r.PostFormValue("topic"),
		CreatedBy:     session.Username,
	}

	if err := s.bookings.Create(r.Context(), booking); err != nil {
		setFlash(w, "danger", bookingErrorMessage(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "Booking confirmed.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func bookingErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return "Please fill in all fields."
	case errors.Is(err, service.ErrInvalidTimeRange):
		return "Invalid date or time: the start must be before the end."
	case errors.Is(err, service.ErrOutsideBusinessHours):
		return "Bookings are only allowed during business hours."
	case errors.Is(err, database.ErrTimeConflict):
		return "This room is already booked for the selected time."
	case errors.Is(err, database.ErrNotFound):
		return "Booking not found."
	default:
		return "Something went wrong, please try again."
	}
}
