package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Port        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	RedisURL    string
	APIToken    string
	RateLimit   int

	Broker   BrokerConfig
	Kakao    KakaoConfig
	Solapi   SolapiConfig
	Mail     MailConfig
	Provider ProviderConfig
}

// BrokerConfig describes the queue topology. An empty URL (or broker list for
// kafka) disables queued delivery.
type BrokerConfig struct {
	Kind              string // "rabbitmq" or "kafka"
	RabbitMQURL       string
	KafkaBrokers      []string
	KafkaGroupID      string
	KafkaWriteTimeout time.Duration
	Exchange          string

	EmailQueue        string
	NotificationQueue string
	KakaoQueue        string

	EmailRoutingKey        string
	NotificationRoutingKey string
	KakaoRoutingKey        string

	Prefetch        int
	DedupeTTL       time.Duration
	BreakerTimeout  time.Duration
	BreakerFailures uint32
}

// Enabled reports whether a broker is configured.
func (b BrokerConfig) Enabled() bool {
	if b.Kind == "kafka" {
		return len(b.KafkaBrokers) > 0
	}
	return b.RabbitMQURL != ""
}

// KakaoConfig is the Kakao API used for Friendtalk.
type KakaoConfig struct {
	BaseURL     string
	AdminKey    string
	SenderKey   string
	SenderPhone string
}

// SolapiConfig is the agency API used for Alimtalk.
type SolapiConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	TimeZone  string
}

// MailConfig is the SMTP submission server.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	UseTLS      bool
	UseSSL      bool
	FromAddress string
	FromName    string
}

// ProviderConfig bounds outbound provider calls.
type ProviderConfig struct {
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration
	SendTimeout     time.Duration
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		APIToken:    getEnv("API_TOKEN", ""),
		RateLimit:   getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		Broker: BrokerConfig{
			Kind:                   strings.ToLower(getEnv("BROKER_KIND", "rabbitmq")),
			RabbitMQURL:            getEnv("RABBITMQ_URL", ""),
			KafkaBrokers:           getEnvAsList("KAFKA_BROKERS"),
			KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "notification-dispatcher"),
			KafkaWriteTimeout:      getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
			Exchange:               getEnv("RABBITMQ_EXCHANGE", "notification.exchange"),
			EmailQueue:             getEnv("RABBITMQ_QUEUE_EMAIL", "email"),
			NotificationQueue:      getEnv("RABBITMQ_QUEUE_NOTIFICATION", "notification"),
			KakaoQueue:             getEnv("RABBITMQ_QUEUE_KAKAO", "kakao"),
			EmailRoutingKey:        getEnv("RABBITMQ_ROUTING_KEY_EMAIL", "notification.email"),
			NotificationRoutingKey: getEnv("RABBITMQ_ROUTING_KEY_NOTIFICATION", "notification.generic"),
			KakaoRoutingKey:        getEnv("RABBITMQ_ROUTING_KEY_KAKAO", "notification.kakao"),
			Prefetch:               getEnvAsInt("RABBITMQ_PREFETCH", 1),
			DedupeTTL:              getEnvAsDuration("CONSUMER_DEDUPE_TTL", 24*time.Hour),
			BreakerTimeout:         getEnvAsDuration("BROKER_BREAKER_TIMEOUT", 30*time.Second),
			BreakerFailures:        uint32(getEnvAsInt("BROKER_BREAKER_FAILURES", 3)),
		},
		Kakao: KakaoConfig{
			BaseURL:     getEnv("KAKAO_API_BASE_URL", "https://kapi.kakao.com"),
			AdminKey:    getEnv("KAKAO_API_ADMIN_KEY", ""),
			SenderKey:   getEnv("KAKAO_API_SENDER_KEY", ""),
			SenderPhone: getEnv("KAKAO_SENDER_PHONE", ""),
		},
		Solapi: SolapiConfig{
			BaseURL:   getEnv("SOLAPI_BASE_URL", "https://api.solapi.com"),
			APIKey:    getEnv("KAKAO_BIZMESSAGE_API_KEY", ""),
			APISecret: getEnv("KAKAO_BIZMESSAGE_API_SECRET", ""),
			TimeZone:  getEnv("KAKAO_BIZMESSAGE_TIMEZONE", "Asia/Seoul"),
		},
		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvAsInt("SMTP_PORT", 0),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			UseTLS:      getEnvAsBool("SMTP_USE_TLS", true),
			UseSSL:      getEnvAsBool("SMTP_USE_SSL", false),
			FromAddress: getEnv("MAIL_FROM_ADDRESS", ""),
			FromName:    getEnv("MAIL_FROM_NAME", ""),
		},
		Provider: ProviderConfig{
			ConnectTimeout:  getEnvAsDuration("KAKAO_API_CONNECT_TIMEOUT", 5*time.Second),
			ResponseTimeout: getEnvAsDuration("KAKAO_API_TIMEOUT", 5*time.Second),
			SendTimeout:     getEnvAsDuration("SEND_TIMEOUT", 15*time.Second),
		},
	}, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("invalid duration for %s; using default %s", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
		log.Printf("invalid integer for %s; using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
		log.Printf("invalid boolean for %s; using default %t", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
