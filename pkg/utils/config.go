package utils

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Gateway  GatewayConfig
	Booking  BookingConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	EventsTopic  string
	WebhookTopic string
	GroupID      string
}

type GatewayConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

type BookingConfig struct {
	PricingCatalogPath     string
	RecurringHorizonMonths int
	StrictJobProgress      bool
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "cleaning-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)

	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_LOCK_TTL", "30s")

	viper.SetDefault("KAFKA_ENABLED", false)
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_EVENTS_TOPIC", "booking-events")
	viper.SetDefault("KAFKA_WEBHOOK_TOPIC", "payment-webhooks")
	viper.SetDefault("KAFKA_GROUP_ID", "payment-reconciler")

	viper.SetDefault("GATEWAY_BASE_URL", "https://api.paystack.co")
	viper.SetDefault("GATEWAY_TIMEOUT", "10s")

	viper.SetDefault("PRICING_CATALOG_PATH", "config/pricing.yaml")
	viper.SetDefault("BOOKING_RECURRING_HORIZON_MONTHS", 3)
	viper.SetDefault("BOOKING_STRICT_JOB_PROGRESS", true)

	// The .env file is optional when everything comes from the environment.
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Port:            viper.GetString("PORT"),
			Debug:           viper.GetBool("DEBUG"),
			LogPath:         viper.GetString("LOG_PATH"),
			ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			LockTTL:  viper.GetDuration("REDIS_LOCK_TTL"),
		},
		Kafka: KafkaConfig{
			Enabled:      viper.GetBool("KAFKA_ENABLED"),
			Brokers:      splitList(viper.GetString("KAFKA_BROKERS")),
			EventsTopic:  viper.GetString("KAFKA_EVENTS_TOPIC"),
			WebhookTopic: viper.GetString("KAFKA_WEBHOOK_TOPIC"),
			GroupID:      viper.GetString("KAFKA_GROUP_ID"),
		},
		Gateway: GatewayConfig{
			BaseURL:       viper.GetString("GATEWAY_BASE_URL"),
			SecretKey:     viper.GetString("GATEWAY_SECRET_KEY"),
			WebhookSecret: viper.GetString("GATEWAY_WEBHOOK_SECRET"),
			Timeout:       viper.GetDuration("GATEWAY_TIMEOUT"),
		},
		Booking: BookingConfig{
			PricingCatalogPath:     viper.GetString("PRICING_CATALOG_PATH"),
			RecurringHorizonMonths: viper.GetInt("BOOKING_RECURRING_HORIZON_MONTHS"),
			StrictJobProgress:      viper.GetBool("BOOKING_STRICT_JOB_PROGRESS"),
		},
	}

	// The webhook secret defaults to the API secret, as the gateway signs with it.
	if config.Gateway.WebhookSecret == "" {
		config.Gateway.WebhookSecret = config.Gateway.SecretKey
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
