package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the civic report service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Auth configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Push gateway configuration
	PushGatewayURL string
	PushTimeout    time.Duration

	// Photo storage configuration
	PhotoDir string

	// RabbitMQ configuration (optional, events are skipped when unset)
	RabbitMQHost            string
	RabbitMQPort            string
	RabbitMQUser            string
	RabbitMQPassword        string
	RabbitMQExchange        string
	RabbitMQEventRoutingKey string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "civicreport"),

		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", "default-secret-change-in-production"),
		TokenTTL:  getDurationEnv("TOKEN_TTL", 24*time.Hour),

		PushGatewayURL: getEnv("PUSH_GATEWAY_URL", "https://exp.host/--/api/v2/push/send"),
		PushTimeout:    getDurationEnv("PUSH_TIMEOUT", 10*time.Second),

		PhotoDir: getEnv("PHOTO_DIR", "storage/reports"),

		RabbitMQHost:            getEnv("RABBITMQ_HOST", ""),
		RabbitMQPort:            getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:            getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword:        getEnv("RABBITMQ_PASSWORD", "guest"),
		RabbitMQExchange:        getEnv("RABBITMQ_EXCHANGE", "civicreport"),
		RabbitMQEventRoutingKey: getEnv("RABBITMQ_EVENT_ROUTING_KEY", "report.events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// GetAMQPURL builds the AMQP connection URL, or returns "" when RabbitMQ is not configured
func (c *Config) GetAMQPURL() string {
	if c.RabbitMQHost == "" {
		return ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RabbitMQUser, c.RabbitMQPassword, c.RabbitMQHost, c.RabbitMQPort)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
