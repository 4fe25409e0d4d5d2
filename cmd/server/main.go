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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/washline/service-booking/internal/application"
	"github.com/washline/service-booking/internal/config"
	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	bookingEvents "github.com/washline/service-booking/internal/events"
	"github.com/washline/service-booking/internal/handler"
	"github.com/washline/service-booking/internal/payment"
	"github.com/washline/service-booking/internal/places"
	"github.com/washline/service-booking/internal/platform/auth"
	"github.com/washline/service-booking/internal/platform/database"
	"github.com/washline/service-booking/internal/platform/health"
	"github.com/washline/service-booking/internal/platform/kafka"
	"github.com/washline/service-booking/internal/platform/logger"
	"github.com/washline/service-booking/internal/platform/metrics"
	"github.com/washline/service-booking/internal/platform/middleware"
	"github.com/washline/service-booking/internal/repository"
	"github.com/washline/service-booking/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.BookingConfig.Location.String()),
		zap.Bool("strict_recurrence", cfg.BookingConfig.StrictRecurrence),
	)

	// Connect to database
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
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		models := []interface{}{
			&repository.ServiceModel{},
			&repository.VehicleModel{},
			&repository.BookingModel{},
			&repository.PhotoModel{},
		}
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Connect to redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer func() { _ = rdb.Close() }()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	pingCancel()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	photoRepo := repository.NewGormPhotoRepository(db)
	serviceRepo := repository.NewCachedServiceRepository(repository.NewGormServiceRepository(db), rdb, 10*time.Minute, log)
	sessions := session.NewRedisStore(rdb, cfg.BookingConfig.SessionTTL, cfg.BookingConfig.SessionLockTTL, log)

	// Initialize application services
	pricingStrategy := bookingDomain.NewRecurrencePricingStrategy()
	coordinator := application.NewCoordinator(bookingRepo, application.CoordinatorConfig{
		Location: cfg.BookingConfig.Location,
		Strict:   cfg.BookingConfig.StrictRecurrence,
	})
	bookingService := application.NewBookingService(application.BookingServiceDeps{
		Repo:        bookingRepo,
		Sessions:    sessions,
		Services:    serviceRepo,
		Vehicles:    vehicleRepo,
		Pricing:     pricingStrategy,
		Coordinator: coordinator,
		Publisher:   kafkaProducer,
		Metrics:     bookingMetrics,
		Location:    cfg.BookingConfig.Location,
		Logger:      log,
	})

	if cfg.StripeConfig.SecretKey == "" {
		log.Warn("BOOKING_STRIPE_SECRET_KEY is not set; payment intents will fail")
	}
	gateway := payment.NewStripeGateway(cfg.StripeConfig.SecretKey, log)
	paymentService := application.NewPaymentService(bookingRepo, gateway, cfg.StripeConfig.Currency, kafkaProducer, bookingMetrics, log)
	vehicleService := application.NewVehicleService(vehicleRepo, log)
	photoService := application.NewPhotoService(photoRepo, bookingRepo, log)
	catalogService := application.NewCatalogService(serviceRepo)

	placesClient := places.NewClient(places.Config{
		APIKey:   cfg.PlacesConfig.APIKey,
		BaseURL:  cfg.PlacesConfig.BaseURL,
		Language: cfg.PlacesConfig.Language,
		Country:  cfg.PlacesConfig.Country,
		Timeout:  cfg.PlacesConfig.Timeout,
	}, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		paymentService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	placesLimiter := middleware.NewRateLimiter(cfg.PlacesConfig.RateLimit, cfg.PlacesConfig.RateBurst)
	finalizeLimiter := middleware.NewRateLimiter(1, 3)

	routes := []interface {
		RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager)
	}{
		handler.NewCatalogHandler(catalogService),
		handler.NewVehicleHandler(vehicleService),
		handler.NewSessionHandler(bookingService, cfg.BookingConfig.Location, finalizeLimiter),
		handler.NewBookingHandler(bookingService, paymentService),
		handler.NewPhotoHandler(photoService),
		handler.NewPlacesHandler(placesClient, placesLimiter),
		handler.NewAdminBookingHandler(bookingService),
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.AddCheck("redis", health.PingerFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}))
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	for _, h := range routes {
		h.RegisterRoutes(&router.RouterGroup, jwtManager)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
