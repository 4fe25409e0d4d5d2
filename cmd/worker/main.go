package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/config"
	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/jobs"
	"github.com/washline/service-booking/internal/payment"
	"github.com/washline/service-booking/internal/platform/database"
	"github.com/washline/service-booking/internal/platform/kafka"
	"github.com/washline/service-booking/internal/platform/logger"
	"github.com/washline/service-booking/internal/platform/metrics"
	"github.com/washline/service-booking/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, "booking-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	bookingRepo := repository.NewGormBookingRepository(db)
	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	if cfg.StripeConfig.SecretKey == "" {
		log.Warn("BOOKING_STRIPE_SECRET_KEY is not set; pending bookings with a payment intent will not be swept")
	}
	gateway := payment.NewStripeGateway(cfg.StripeConfig.SecretKey, log)
	paymentService := application.NewPaymentService(bookingRepo, gateway, cfg.StripeConfig.Currency, kafkaProducer, bookingMetrics, log)

	bookingService := application.NewBookingService(application.BookingServiceDeps{
		Repo:        bookingRepo,
		Pricing:     bookingDomain.NewRecurrencePricingStrategy(),
		Coordinator: application.NewCoordinator(bookingRepo, application.CoordinatorConfig{Location: cfg.BookingConfig.Location}),
		Publisher:   kafkaProducer,
		Payments:    paymentService,
		Metrics:     bookingMetrics,
		Location:    cfg.BookingConfig.Location,
		Logger:      log,
	})

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	}
	workerCfg := jobs.WorkerConfig{
		Concurrency: cfg.BookingConfig.WorkerConcurrent,
		SweepCron:   cfg.BookingConfig.SweepCron,
	}

	mux := asynq.NewServeMux()
	jobs.NewSweepHandler(bookingService, cfg.BookingConfig.SweepThreshold, cfg.BookingConfig.SweepBatchSize, log).Register(mux)

	srv := jobs.NewServer(redisOpt, workerCfg, log)
	if err := srv.Start(mux); err != nil {
		log.Fatal("failed to start worker", zap.Error(err))
	}

	var scheduler *asynq.Scheduler
	if cfg.BookingConfig.SweepEnabled {
		scheduler, err = jobs.NewScheduler(redisOpt, workerCfg, log)
		if err != nil {
			log.Fatal("failed to create scheduler", zap.Error(err))
		}
		if err := scheduler.Start(); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
	} else {
		log.Info("pending sweep disabled, set BOOKING_SWEEP_ENABLED=true to schedule it")
	}

	log.Info("booking worker started", zap.Duration("sweep_threshold", cfg.BookingConfig.SweepThreshold))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down booking worker...")
	if scheduler != nil {
		scheduler.Shutdown()
	}
	srv.Shutdown()
	log.Info("booking worker stopped")
}
