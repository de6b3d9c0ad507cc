package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zoombook/internal/config"
	"zoombook/internal/database"
	"zoombook/internal/logging"
	"zoombook/internal/metrics"
	"zoombook/internal/repository"
	"zoombook/internal/service"
	"zoombook/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	logger.Info().
		Str("environment", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("Starting room booking server")

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Init()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("failed to ensure admin account: %w", err)
	}

	sessionTTL := time.Duration(cfg.Auth.SessionTTL) * time.Second
	memoryRepo := repository.NewMemorySessionRepository(sessionTTL)

	var sessions repository.SessionRepository = memoryRepo
	if cfg.Redis.Address != "" {
		redisClient := repository.NewRedisClient(cfg.Redis)
		defer repository.Close(redisClient)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := repository.Ping(pingCtx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable at startup, will retry through failover")
		}
		cancel()

		redisRepo := repository.NewRedisSessionRepository(redisClient, sessionTTL)
		sessions = repository.NewFailoverSessionRepository(redisRepo, memoryRepo, logger)
	} else {
		logger.Info().Msg("Redis not configured, using in-memory session store")
	}

	authService := service.NewAuthService(db, sessions, cfg.Auth, logger)
	bookingService := service.NewBookingService(db, cfg.Booking, logger)
	userService := service.NewUserService(db, sessions, cfg.Users, logger)

	server, err := web.NewServer(cfg, logger, authService, bookingService, userService)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backupService.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}
