package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	CORS         CORSConfig
	PriceList    PriceListConfig
	Notification NotificationConfig
	Mail         MailConfig
	Kafka        KafkaConfig
	S3           S3Config
	Scheduler    SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string
	LogFormat   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig is optional. An empty Host disables the token cache and the
// distributed import lock.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TokenTTL time.Duration
}

type AuthConfig struct {
	// TicketSecret signs the short-lived websocket tickets.
	TicketSecret string
	TicketExpiry time.Duration
	ResetExpiry  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type PriceListConfig struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	LockTTL      time.Duration
}

type NotificationConfig struct {
	// EmailEnabled controls the registration confirmation email. Order and
	// password reset emails are always queued.
	EmailEnabled bool
	// Sender is one of "smtp", "kafka" or "log".
	Sender      string
	BatchSize   int
	MaxAttempts int
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SSL      bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type SchedulerConfig struct {
	OutboxSpec  string
	RefreshSpec string // empty disables periodic price-list refresh
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "orders"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			TokenTTL: parseDuration(getEnv("REDIS_TOKEN_TTL", "10m"), 10*time.Minute),
		},
		Auth: AuthConfig{
			TicketSecret: getEnv("TICKET_SECRET", "change-me"),
			TicketExpiry: parseDuration(getEnv("TICKET_EXPIRY", "60s"), time.Minute),
			ResetExpiry:  parseDuration(getEnv("PASSWORD_RESET_EXPIRY", "1h"), time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		PriceList: PriceListConfig{
			FetchTimeout: parseDuration(getEnv("PRICE_LIST_FETCH_TIMEOUT", "15s"), 15*time.Second),
			MaxBytes:     int64(parseInt(getEnv("PRICE_LIST_MAX_BYTES", "5242880"), 5<<20)),
			LockTTL:      parseDuration(getEnv("PRICE_LIST_LOCK_TTL", "2m"), 2*time.Minute),
		},
		Notification: NotificationConfig{
			EmailEnabled: parseBool(getEnv("EMAIL_NOTIFICATIONS_ENABLED", "false")),
			Sender:       getEnv("NOTIFICATION_SENDER", "log"),
			BatchSize:    parseInt(getEnv("OUTBOX_BATCH_SIZE", "50"), 50),
			MaxAttempts:  parseInt(getEnv("OUTBOX_MAX_ATTEMPTS", "5"), 5),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     parseInt(getEnv("SMTP_PORT", "465"), 465),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@orders.local"),
			SSL:      parseBool(getEnv("SMTP_SSL", "true")),
		},
		Kafka: KafkaConfig{
			Brokers: parseSlice(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_EMAIL_TOPIC", "email-notifications"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "eu-central-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Scheduler: SchedulerConfig{
			OutboxSpec:  getEnv("OUTBOX_DISPATCH_CRON", "@every 15s"),
			RefreshSpec: getEnv("PRICE_LIST_REFRESH_CRON", ""),
		},
	}

	if config.Server.Environment == "production" && config.Auth.TicketSecret == "change-me" {
		return nil, fmt.Errorf("TICKET_SECRET must be set in production")
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c *S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
