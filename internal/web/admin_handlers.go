package web

import (
	"errors"
	"net/http"
	"path/filepath"

	"zoombook/internal/database"
	"zoombook/internal/export"
	"zoombook/internal/models"
	"zoombook/internal/service"
)

func (s *Server) handleAdminPanel(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	bookings, err := s.bookings.ListAdmin(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "admin.html", map[string]interface{}{
		"Flash":    popFlash(w, r),
		"Session":  sessionFromContext(r.Context()),
		"Users":    users,
		"Bookings": bookings,
		"Roles":    []string{models.RoleUser, models.RoleAdmin},
	})
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	role := r.PostFormValue("role")

	if _, err := s.users.Create(r.Context(), username, password, role); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			setFlash(w, "danger", "Username and password are required.")
		case errors.Is(err, database.ErrDuplicateUsername):
			setFlash(w, "danger", "A user with this name already exists.")
		default:
			s.logger.Error().Err(err).Msg("Failed to create user")
			setFlash(w, "danger", "Failed to create user.")
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "User created.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleEditUserPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	user, err := s.users.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "edit_user.html", map[string]interface{}{
		"Flash":   popFlash(w, r),
		"Session": sessionFromContext(r.Context()),
		"User":    user,
	})
}

func (s *Server) handleEditUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	err = s.users.Update(r.Context(), id, r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			http.NotFound(w, r)
			return
		case errors.Is(err, database.ErrDuplicateUsername):
			setFlash(w, "danger", "A user with this name already exists.")
		case errors.Is(err, service.ErrMissingFields):
			setFlash(w, "danger", "Username cannot be empty.")
		default:
			s.logger.Error().Err(err).Msg("Failed to update user")
			setFlash(w, "danger", "Failed to update user.")
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "User updated.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	session := sessionFromContext(r.Context())
	if err := s.users.Delete(r.Context(), session.UserID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			setFlash(w, "danger", "You cannot delete your own account.")
		case errors.Is(err, database.ErrNotFound):
			setFlash(w, "danger", "User not found.")
		default:
			s.logger.Error().Err(err).Msg("Failed to delete user")
			setFlash(w, "danger", "Failed to delete user.")
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "User deleted.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.bookings.Delete(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			setFlash(w, "danger", "Booking not found.")
		} else {
			s.logger.Error().Err(err).Msg("Failed to delete booking")
			setFlash(w, "danger", "Failed to delete booking.")
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "Booking deleted.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleEditBookingPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	booking, err := s.bookings.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "edit_booking.html", map[string]interface{}{
		"Flash":   popFlash(w, r),
		"Session": sessionFromContext(r.Context()),
		"Booking": booking,
		"Rooms":   s.cfg.Booking.Rooms,
	})
}

func (s *Server) handleEditBooking(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	existing, err := s.bookings.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	booking := &models.Booking{
		ID:            id,
		Room:          r.PostFormValue("room"),
		Date:          r.PostFormValue("date"),
		StartTime:     r.PostFormValue("start_time"),
		EndTime:       r.PostFormValue("end_time"),
		RequesterName: r.PostFormValue("name"),
		Department:    r.PostFormValue("dept"),
		Topic:         r.PostFormValue("topic"),
		CreatedBy:     existing.CreatedBy,
	}

	if err := s.bookings.Update(r.Context(), booking); err != nil {
		setFlash(w, "danger", bookingErrorMessage(err))
		http.Redirect(w, r, "/edit_booking/"+r.PathValue("id"), http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "Booking updated.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings.ListAdmin(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings for export")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	path, err := export.BookingsToExcel(bookings, s.cfg.Exports.Path)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to export bookings")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}
