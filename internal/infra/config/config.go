package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEmailFrom      = `"Homestock App" <notifications@homestock.app>`
	defaultWhatsAppFrom   = "+14155238886" // Twilio sandbox sender
	etherealSMTPHost      = "smtp.ethereal.email"
	defaultSMTPPort       = 587
	defaultCountryCode    = "+94"
	defaultChannelTimeout = 30 * time.Second
	defaultRunLockTTL     = 10 * time.Minute
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL         string
	AutoMigrate         bool
	LogLevel            string
	Environment         string
	HTTPAddr            string
	CronSpecExpiryCheck string // Daily expiry check

	EmailService  string // "ethereal" switches to the Ethereal test SMTP server
	SMTPHost      string
	SMTPPort      int
	EmailUser     string
	EmailPassword string
	EmailFrom     string

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioPhoneNumber  string // SMS sender
	TwilioWhatsAppFrom string

	CountryCallingCode  string
	ChannelSendTimeout  time.Duration
	MaxConcurrentGroups int

	RedisURL   string // Empty disables the run lease
	RunLockTTL time.Duration

	TelegramToken   string // Empty disables the operator bot
	AdminTelegramID int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	if cfg.AutoMigrate, err = boolEnv("AUTO_MIGRATE", true); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.HTTPAddr = stringEnv("HTTP_ADDR", ":5000")
	cfg.CronSpecExpiryCheck = stringEnv("CRON_SPEC_EXPIRY_CHECK", "0 9 * * *") // Default: 9 AM daily

	cfg.EmailService = strings.ToLower(os.Getenv("EMAIL_SERVICE"))
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.EmailService == "ethereal" && cfg.SMTPHost == "" {
		cfg.SMTPHost = etherealSMTPHost
	}
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set (or set EMAIL_SERVICE=ethereal)")
	}
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}
	cfg.EmailUser = os.Getenv("EMAIL_USER")
	cfg.EmailPassword = os.Getenv("EMAIL_PASSWORD")
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.EmailUser
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = defaultEmailFrom
	}

	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.TwilioPhoneNumber = os.Getenv("TWILIO_PHONE_NUMBER")
	cfg.TwilioWhatsAppFrom = stringEnv("TWILIO_WHATSAPP_FROM", defaultWhatsAppFrom)

	cfg.CountryCallingCode = stringEnv("COUNTRY_CALLING_CODE", defaultCountryCode)
	if cfg.ChannelSendTimeout, err = durationEnv("CHANNEL_SEND_TIMEOUT", defaultChannelTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentGroups, err = intEnv("MAX_CONCURRENT_GROUPS", 10); err != nil {
		return nil, err
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RunLockTTL, err = durationEnv("RUN_LOCK_TTL", defaultRunLockTTL); err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
