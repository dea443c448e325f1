package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port string

	DBDriver   string // postgres, mysql or sqlite
	DBDSN      string // overrides the DB_HOST/DB_USER/... parts when set
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTKey    string
	JWTTTL    time.Duration
	SaltRound int

	LogLevel  string
	LogFormat string // text or json

	RedisURL string

	SendGridAPIKey string
	EmailSender    string
	EmailFromName  string

	ExchangeRateAPIURL   string
	ExchangeRateAPIKey   string
	ExchangeRateCacheTTL time.Duration
	ExchangeRateBase     string
	ExchangeRateQuote    string

	TransferAPIURL  string
	TransferAPIKey  string
	TransferTimeout time.Duration

	// Savings product tunables
	DefaultCurrency         string
	ReferralBonus           decimal.Decimal
	ReferralCodeLength      int
	RateTiers               string // "maxMonths:rate,..." with 0 meaning unbounded
	MinDurationMonths       int
	MaxDurationMonths       int
	InterestNotifyThreshold decimal.Decimal
	InterestRetentionDays   int
	InterestPurgeBelow      decimal.Decimal

	// Scheduler
	CronTimezone      string
	SweepSchedule     string
	ReminderSchedule  string
	RetentionSchedule string
	SweepWorkers      int

	// Per-user API throttle
	RateLimitPerSecond int
	RateLimitBurst     int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port: getEnv("PORT", "3000"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBDSN:      getEnv("DB_DSN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "flexvest"),
		DBPort:     getEnv("DB_PORT", "5432"),

		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTL:    getEnvDuration("JWT_TTL", time.Hour),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RedisURL: getEnv("REDIS_URL", ""),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@flexvest.app"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "FlexVest"),

		ExchangeRateAPIURL:   getEnv("EXCHANGE_RATE_API_URL", "https://api.exchangerate-api.com/v4"),
		ExchangeRateAPIKey:   getEnv("EXCHANGE_RATE_API_KEY", ""),
		ExchangeRateCacheTTL: getEnvDuration("EXCHANGE_RATE_CACHE_TTL", 10*time.Minute),
		ExchangeRateBase:     getEnv("EXCHANGE_RATE_BASE", "USD"),
		ExchangeRateQuote:    getEnv("EXCHANGE_RATE_QUOTE", "NGN"),

		TransferAPIURL:  getEnv("TRANSFER_API_URL", ""),
		TransferAPIKey:  getEnv("TRANSFER_API_KEY", ""),
		TransferTimeout: getEnvDuration("TRANSFER_TIMEOUT", 30*time.Second),

		DefaultCurrency:         getEnv("DEFAULT_CURRENCY", "USDT"),
		ReferralBonus:           getEnvDecimal("REFERRAL_BONUS", decimal.NewFromInt(10)),
		ReferralCodeLength:      getEnvInt("REFERRAL_CODE_LENGTH", 6),
		RateTiers:               getEnv("INTEREST_RATE_TIERS", "3:8,6:10,12:12,0:15"),
		MinDurationMonths:       getEnvInt("FIXED_MIN_DURATION_MONTHS", 1),
		MaxDurationMonths:       getEnvInt("FIXED_MAX_DURATION_MONTHS", 24),
		InterestNotifyThreshold: getEnvDecimal("INTEREST_NOTIFY_THRESHOLD", decimal.NewFromInt(1)),
		InterestRetentionDays:   getEnvInt("INTEREST_RETENTION_DAYS", 30),
		InterestPurgeBelow:      getEnvDecimal("INTEREST_PURGE_BELOW", decimal.NewFromInt(1)),

		CronTimezone:      getEnv("CRON_TIMEZONE", "UTC"),
		SweepSchedule:     getEnv("SWEEP_SCHEDULE", "0 0 * * *"),
		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "0 2 * * *"),
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "0 3 * * 0"),
		SweepWorkers:      getEnvInt("SWEEP_WORKERS", 4),

		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendGridAPIKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Email notifications are disabled.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return d
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to decimal: %v", key, err)
		return defaultValue
	}
	return d
}
