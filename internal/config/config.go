package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Payments PaymentsConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	Topics   TopicConfig
	MockMode bool
	Enabled  bool
}

type TopicConfig struct {
	BookingStatus string
	SupportEvents string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	OTPTTL        time.Duration
	ResetTokenTTL time.Duration
}

type PaymentsConfig struct {
	MoyasarAPIKey  string
	MoyasarBaseURL string
	TabbyAPIKey    string
	TabbyBaseURL   string
	CallbackURL    string
}

func Load() *Config {
	kafkaEnabled := getEnvBool("KAFKA_ENABLED", true)
	mockMode := getEnvBool("KAFKA_MOCK_MODE", false)

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "cleanserve"),
			Password:     getEnv("DB_PASSWORD", "cleanserve"),
			Database:     getEnv("DB_NAME", "cleanserve"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			GroupID:  getEnv("KAFKA_GROUP_ID", "cleanserve-api-group"),
			Enabled:  kafkaEnabled,
			MockMode: mockMode,
			Topics: TopicConfig{
				BookingStatus: getEnv("KAFKA_TOPIC_BOOKING_STATUS", "cleanserve.bookings.status"),
				SupportEvents: getEnv("KAFKA_TOPIC_SUPPORT_EVENTS", "cleanserve.support.events"),
			},
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:      time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
			OTPTTL:        time.Duration(getEnvInt("OTP_TTL_MINUTES", 10)) * time.Minute,
			ResetTokenTTL: time.Duration(getEnvInt("RESET_TOKEN_TTL_MINUTES", 30)) * time.Minute,
		},
		Payments: PaymentsConfig{
			MoyasarAPIKey:  getEnv("MOYASAR_API_KEY", ""),
			MoyasarBaseURL: getEnv("MOYASAR_BASE_URL", "https://api.moyasar.com/v1"),
			TabbyAPIKey:    getEnv("TABBY_API_KEY", ""),
			TabbyBaseURL:   getEnv("TABBY_BASE_URL", "https://api.tabby.ai/api/v2"),
			CallbackURL:    getEnv("PAYMENT_CALLBACK_URL", "http://localhost:8080/api/v2/payments/callback"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
