package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/washline/service-booking/internal/platform/config"
)

// StripeConfig holds payment processor settings.
type StripeConfig struct {
	SecretKey string
	Currency  string
}

// PlacesConfig holds the address lookup settings.
type PlacesConfig struct {
	APIKey    string
	BaseURL   string
	Language  string
	Country   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// BookingConfig holds booking orchestration settings.
type BookingConfig struct {
	Location         *time.Location
	StrictRecurrence bool
	SessionTTL       time.Duration
	SessionLockTTL   time.Duration
	SweepEnabled     bool
	SweepCron        string
	SweepThreshold   time.Duration
	SweepBatchSize   int
	WorkerConcurrent int
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      config.DatabaseConfig
	JWTConfig     config.JWTConfig
	KafkaConfig   config.KafkaConfig
	RedisConfig   config.RedisConfig
	StripeConfig  StripeConfig
	PlacesConfig  PlacesConfig
	BookingConfig BookingConfig
}

// Load reads configuration from BOOKING_* environment variables and an
// optional config.yaml.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}
	setDefaults(v)

	booking, err := loadBookingConfig(v)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),
		StripeConfig: StripeConfig{
			SecretKey: v.GetString("STRIPE_SECRET_KEY"),
			Currency:  strings.ToLower(v.GetString("STRIPE_CURRENCY")),
		},
		PlacesConfig: PlacesConfig{
			APIKey:    v.GetString("PLACES_API_KEY"),
			BaseURL:   v.GetString("PLACES_BASE_URL"),
			Language:  v.GetString("PLACES_LANGUAGE"),
			Country:   v.GetString("PLACES_COUNTRY"),
			Timeout:   v.GetDuration("PLACES_TIMEOUT"),
			RateLimit: v.GetFloat64("PLACES_RATE_LIMIT"),
			RateBurst: v.GetInt("PLACES_RATE_BURST"),
		},
		BookingConfig: booking,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8003")
	v.SetDefault("DB_NAME", "booking_db")
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_CURRENCY", "eur")
	v.SetDefault("PLACES_API_KEY", "")
	v.SetDefault("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api")
	v.SetDefault("PLACES_LANGUAGE", "fr")
	v.SetDefault("PLACES_COUNTRY", "fr")
	v.SetDefault("PLACES_TIMEOUT", "5s")
	v.SetDefault("PLACES_RATE_LIMIT", 3)
	v.SetDefault("PLACES_RATE_BURST", 5)
	v.SetDefault("TIMEZONE", "Europe/Paris")
	v.SetDefault("STRICT_RECURRENCE", false)
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("SESSION_LOCK_TTL", "30s")
	v.SetDefault("SWEEP_ENABLED", false)
	v.SetDefault("SWEEP_CRON", "*/15 * * * *")
	v.SetDefault("SWEEP_THRESHOLD", "2h")
	v.SetDefault("SWEEP_BATCH_SIZE", 100)
	v.SetDefault("WORKER_CONCURRENCY", 5)
}

func loadBookingConfig(v *viper.Viper) (BookingConfig, error) {
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid BOOKING_TIMEZONE: %w", err)
	}
	return BookingConfig{
		Location:         loc,
		StrictRecurrence: v.GetBool("STRICT_RECURRENCE"),
		SessionTTL:       v.GetDuration("SESSION_TTL"),
		SessionLockTTL:   v.GetDuration("SESSION_LOCK_TTL"),
		SweepEnabled:     v.GetBool("SWEEP_ENABLED"),
		SweepCron:        v.GetString("SWEEP_CRON"),
		SweepThreshold:   v.GetDuration("SWEEP_THRESHOLD"),
		SweepBatchSize:   v.GetInt("SWEEP_BATCH_SIZE"),
		WorkerConcurrent: v.GetInt("WORKER_CONCURRENCY"),
	}, nil
}
