package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"zoombook/internal/config"
	"zoombook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg       *config.Config
	logger    *zerolog.Logger
	auth      *service.AuthService
	bookings  *service.BookingService
	users     *service.UserService
	templates *template.Template
	limiter   *clientLimiter
	server    *http.Server
}

func NewServer(
	cfg *config.Config,
	logger *zerolog.Logger,
	auth *service.AuthService,
	bookings *service.BookingService,
	users *service.UserService,
) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		auth:      auth,
		bookings:  bookings,
		users:     users,
		templates: templates,
		limiter:   newClientLimiter(20, 40),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireSession(s.handleIndex))
	mux.HandleFunc("GET /api/bookings", s.requireSession(s.handleBookingsFeed))
	mux.HandleFunc("POST /book", s.requireSession(s.handleBook))

	mux.HandleFunc("GET /admin", s.requireAdmin(s.handleAdminPanel))
	mux.HandleFunc("POST /add_user", s.requireAdmin(s.handleAddUser))
	mux.HandleFunc("GET /edit_user/{id}", s.requireAdmin(s.handleEditUserPage))
	mux.HandleFunc("POST /edit_user/{id}", s.requireAdmin(s.handleEditUser))
	mux.HandleFunc("GET /delete_user/{id}", s.requireAdmin(s.handleDeleteUser))
	mux.HandleFunc("GET /delete/{id}", s.requireAdmin(s.handleDeleteBooking))
	mux.HandleFunc("GET /edit_booking/{id}", s.requireAdmin(s.handleEditBookingPage))
	mux.HandleFunc("POST /edit_booking/{id}", s.requireAdmin(s.handleEditBooking))
	mux.HandleFunc("GET /admin/export", s.requireAdmin(s.handleExport))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.cfg.Monitoring.PrometheusEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return s.loggingMiddleware(s.rateLimitMiddleware(mux))
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
