package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"zoombook/internal/config"
	"zoombook/internal/database"
	"zoombook/internal/models"
	"zoombook/internal/repository"
	"zoombook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *service.UserService) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.HTTP.Port = 0
	cfg.Auth.SessionPolicy = models.SessionPolicyDisplace
	cfg.Auth.SessionTTL = 3600
	cfg.Auth.LoginRate.Attempts = 100
	cfg.Auth.LoginRate.Window = 60
	cfg.Booking.Rooms = []string{"A101", "A102"}
	cfg.Booking.BusinessHours.Start = models.BusinessHoursStart
	cfg.Booking.BusinessHours.End = models.BusinessHoursEnd
	cfg.Users.DefaultRole = models.RoleUser
	cfg.Exports.Path = t.TempDir()

	sessions := repository.NewMemorySessionRepository(time.Hour)
	auth := service.NewAuthService(db, sessions, cfg.Auth, &logger)
	bookings := service.NewBookingService(db, cfg.Booking, &logger)
	users := service.NewUserService(db, sessions, cfg.Users, &logger)

	server, err := NewServer(cfg, &logger, auth, bookings, users)
	require.NoError(t, err)
	return server, users
}

func createUser(t *testing.T, users *service.UserService, username, password, role string) *models.User {
	t.Helper()
	user, err := users.Create(context.Background(), username, password, role)
	require.NoError(t, err)
	return user
}

func doRequest(s *Server, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server, username, password string) *http.Cookie {
	t.Helper()
	rec := doRequest(s, http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginAndIndex(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "ivan", "secret", "")

	cookie := login(t, s, "ivan", "secret")

	rec := doRequest(s, http.MethodGet, "/", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ivan")
}

func TestLoginWrongPassword(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "ivan", "secret", "")

	rec := doRequest(s, http.MethodPost, "/login", url.Values{
		"username": {"ivan"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestSecondLoginDisplacesFirst(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "ivan", "secret", "")

	deviceX := login(t, s, "ivan", "secret")
	deviceY := login(t, s, "ivan", "secret")

	// Device X is bounced to the login page on its next request
	rec := doRequest(s, http.MethodGet, "/", nil, deviceX)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = doRequest(s, http.MethodGet, "/", nil, deviceY)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBookAndFeed(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "ivan", "secret", "")
	cookie := login(t, s, "ivan", "secret")

	form := url.Values{
		"room":       {"A101"},
		"date":       {"2024-01-10"},
		"start_time": {"10:00"},
		"end_time":   {"11:00"},
		"name":       {"Ivan"},
		"dept":       {"IT"},
		"topic":      {"Sync"},
	}
	rec := doRequest(s, http.MethodPost, "/book", form, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/bookings", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []*models.CalendarEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "[A101] Sync", events[0].Title)
	assert.Equal(t, "2024-01-10T10:00", events[0].Start)
	assert.Equal(t, "ivan", events[0].ExtendedProps.Creator)
}

func TestBookConflictRedirectsWithFlash(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "ivan", "secret", "")
	cookie := login(t, s, "ivan", "secret")

	form := url.Values{
		"room":       {"A101"},
		"date":       {"2024-01-10"},
		"start_time": {"10:00"},
		"end_time":   {"11:00"},
		"name":       {"Ivan"},
		"dept":       {"IT"},
		"topic":      {"Sync"},
	}
	rec := doRequest(s, http.MethodPost, "/book", form, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = doRequest(s, http.MethodPost, "/book", form, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var flashed bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie && c.Value != "" {
			flashed = true
		}
	}
	assert.True(t, flashed, "conflict should set a flash message")
}

func TestAdminPanelRequiresAdmin(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "ivan", "secret", "")
	createUser(t, users, "boss", "secret", models.RoleAdmin)

	userCookie := login(t, s, "ivan", "secret")
	rec := doRequest(s, http.MethodGet, "/admin", nil, userCookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	adminCookie := login(t, s, "boss", "secret")
	rec = doRequest(s, http.MethodGet, "/admin", nil, adminCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ivan")
}

func TestAdminAddUser(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "boss", "secret", models.RoleAdmin)
	cookie := login(t, s, "boss", "secret")

	rec := doRequest(s, http.MethodPost, "/add_user", url.Values{
		"username": {"newbie"},
		"password": {"pass"},
		"role":     {""},
	}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	user, err := users.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "newbie", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	s, users := newTestServer(t)
	admin := createUser(t, users, "boss", "secret", models.RoleAdmin)
	cookie := login(t, s, "boss", "secret")

	rec := doRequest(s, http.MethodGet, "/delete_user/1", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	// Still there
	_, err := users.Get(context.Background(), admin.ID)
	assert.NoError(t, err)
}

func TestLogoutClearsCookie(t *testing.T) {
	s, users := newTestServer(t)
	createUser(t, users, "ivan", "secret", "")
	cookie := login(t, s, "ivan", "secret")

	rec := doRequest(s, http.MethodGet, "/logout", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// The old cookie no longer grants access
	rec = doRequest(s, http.MethodGet, "/", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
