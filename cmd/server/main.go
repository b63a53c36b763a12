package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/samanvay/attendance_service/internal/app"
	"github.com/samanvay/attendance_service/internal/auth"
	"github.com/samanvay/attendance_service/internal/config"
	"github.com/samanvay/attendance_service/internal/controller"
	"github.com/samanvay/attendance_service/internal/controller/handlers"
	"github.com/samanvay/attendance_service/internal/notify"
	"github.com/samanvay/attendance_service/internal/repository"
	"github.com/samanvay/attendance_service/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting attendance service",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
		zap.Duration("lecture_token_ttl", cfg.LectureTokenTTL),
		zap.Duration("claim_session_ttl", cfg.ClaimSessionTTL),
	)

	pool, err := app.NewPool(ctx, cfg.GetDBDSN(), logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			return err
		}
		err = migrator.Up(ctx)
		migrator.Close()
		if err != nil {
			return err
		}
	}

	// Repositories
	tokenRepo := repository.NewTokenRepository(pool)
	sessionRepo := repository.NewClaimSessionRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	lectureRepo := repository.NewLectureRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	// Services
	opts := service.Options{
		LectureTokenTTL: cfg.LectureTokenTTL,
		ClaimSessionTTL: cfg.ClaimSessionTTL,
		TokenRetention:  cfg.TokenRetention,
	}
	tokenService := service.NewTokenService(tokenRepo, attendanceRepo, studentRepo, lectureRepo, examRepo, notifier, opts, logger)
	claimService := service.NewClaimService(tokenService, sessionRepo, opts, logger)
	attendanceService := service.NewAttendanceService(tokenService, sessionRepo, attendanceRepo, studentRepo, lectureRepo, examRepo, opts, logger)

	scheduler := app.NewScheduler(claimService, tokenService, app.SchedulerIntervals{
		Reap:  cfg.SessionReapInterval,
		Prune: cfg.TokenPruneInterval,
	}, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	h := handlers.NewHandlers(
		tokenService,
		claimService,
		attendanceService,
		auth.NewIssuer(cfg.JWTSecret, 0),
		cfg.IsProduction(),
		logger,
	)
	server := controller.NewHTTPController(h, controller.ServerOptions{
		CORSOrigins:     cfg.CORSOrigins,
		ClaimRateLimit:  cfg.ClaimRateLimit,
		ClaimRateWindow: time.Minute,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Listen(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newNotifier(cfg *config.Config, logger *zap.Logger) (service.Notifier, error) {
	if cfg.TelegramToken == "" {
		logger.Info("Telegram not configured, close summaries go to the log")
		return notify.NewLogNotifier(logger), nil
	}

	notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.Location(), logger)
	if err != nil {
		return nil, err
	}
	return notifier, nil
}
