package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgeandco/service-booking/internal/application"
	"github.com/edgeandco/service-booking/internal/auth"
	"github.com/edgeandco/service-booking/internal/config"
	"github.com/edgeandco/service-booking/internal/database"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
	bookingEvents "github.com/edgeandco/service-booking/internal/events"
	"github.com/edgeandco/service-booking/internal/handler"
	"github.com/edgeandco/service-booking/internal/logger"
	"github.com/edgeandco/service-booking/internal/observability"
	"github.com/edgeandco/service-booking/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "service-booking"

// publisher is the change-feed sink the service writes to and main closes.
type publisher interface {
	application.EventPublisher
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("service-booking exited with error", zap.Error(err))
	}
}

func run(cfg *config.ServiceConfig, log *zap.Logger) error {
	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.Store),
		zap.Bool("kafka_enabled", cfg.KafkaConfig.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing
	shutdownTracer, err := observability.InitTracer(ctx, cfg.TracingConfig.Endpoint, serviceName, cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	// Initialize repository
	bookingRepo, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	// Initialize change-feed publisher
	var producer publisher = bookingEvents.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		producer = bookingEvents.NewKafkaPublisher(cfg.KafkaConfig.Brokers, bookingEvents.TopicBookingEvents, log)
	}
	defer func() { _ = producer.Close() }()

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, producer, log)
	earningsService := application.NewEarningsService(bookingRepo, log)

	// Initialize JWT verifier
	var verifier *auth.Verifier
	if cfg.JWTConfig.Secret != "" {
		verifier = auth.NewVerifier(cfg.JWTConfig.Secret)
	}

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		Bookings:    bookingService,
		Earnings:    earningsService,
		Logger:      log,
		Verifier:    verifier,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + serviceName
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		g.Go(func() error {
			log.Info("starting payment event consumer", zap.String("group_id", groupID))
			// A consumer failure is logged but does not take the HTTP API down.
			if err := paymentConsumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down service-booking...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("service-booking stopped")
	return nil
}

// openStore returns the configured booking repository, connecting and migrating
// PostgreSQL when that is the selected store.
func openStore(cfg *config.ServiceConfig, log *zap.Logger) (bookingDomain.BookingRepository, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory booking store; data is lost on restart")
		return repository.NewMemoryBookingRepository(), nil
	}

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run database migrations
	if err := database.RunMigrations(dbConfig.DatabaseURL(), log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repository.NewGormBookingRepository(db), nil
}
