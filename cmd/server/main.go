package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/app"
	"github.com/Freeeeeet/counseling_scheduler/internal/config"
	"github.com/Freeeeeet/counseling_scheduler/internal/controller"
	"github.com/Freeeeeet/counseling_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/counseling_scheduler/internal/controller/httpapi"
	"github.com/Freeeeeet/counseling_scheduler/internal/meeting"
	"github.com/Freeeeeet/counseling_scheduler/internal/metrics"
	"github.com/Freeeeeet/counseling_scheduler/internal/notify"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/Freeeeeet/counseling_scheduler/migrations"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Counseling scheduler stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting counseling scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Location.String()),
		zap.Bool("http", cfg.JWTSecret != ""),
		zap.Bool("telegram", cfg.TelegramToken != ""),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to database")

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		_ = migrator.Close()
		return err
	}
	if version, err := migrator.Version(ctx); err == nil {
		logger.Info("Database schema ready", zap.Int64("version", version))
	}
	_ = migrator.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	var publisher service.EventPublisher
	if redisClient := app.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, logger); redisClient != nil {
		defer redisClient.Close()
		publisher = notify.NewRedisPublisher(redisClient, logger)
		logger.Info("Appointment events enabled", zap.String("channel", notify.Channel))
	}

	store := repository.NewStore(pool)

	userService := service.NewUserService(store.Users, logger)
	availabilityService := service.NewAvailabilityService(store.Templates, store.Breaks, cfg.Location, logger)
	slotService := service.NewSlotService(store.Templates, store.Breaks, store.Appointments, bookingMetrics, cfg.Location, logger)
	bookingService := service.NewBookingService(
		store,
		store.Stores,
		publisher,
		meeting.NewLinkProvider(cfg.MeetingBaseURL),
		bookingMetrics,
		cfg.Location,
		logger,
	)
	autoBookingService := service.NewAutoBookingService(store.Users, slotService, bookingService, bookingMetrics, logger)
	historyService := service.NewHistoryService(store.History, store.Appointments)

	if publisher != nil {
		reminders := service.NewReminderService(store.Appointments, publisher, cfg.ReminderLead, logger)
		scheduler := app.NewScheduler(reminders, cfg.ReminderInterval, logger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	errCh := make(chan error, 2)

	var server *http.Server
	if cfg.JWTSecret != "" {
		server = &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: httpapi.NewRouter(httpapi.Services{
				Availability: availabilityService,
				Slots:        slotService,
				Bookings:     bookingService,
				AutoBook:     autoBookingService,
				History:      historyService,
			}, cfg.JWTSecret, registry, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	if cfg.TelegramToken != "" {
		botInstance, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		botController := controller.NewBotController(
			botInstance,
			handlers.NewHandlers(userService, slotService, bookingService, autoBookingService, logger),
			logger,
		)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot command menu not updated", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		return err
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}

	logger.Info("Counseling scheduler stopped")
	return nil
}
