package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string
	SQLitePath  string
	DBTimeout   time.Duration

	// Redis configuration (optional, enables distributed payment locks)
	RedisURL string

	// Razorpay configuration
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string
	Currency              string
	GatewayTimeout        time.Duration

	// Mail configuration
	MailProvider   string
	MailFrom       string
	MailFromName   string
	AutoReceipt    bool
	BrevoAPIKey    string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SendGridAPIKey string
	GmailUsername  string
	GmailPassword  string
	AWSRegion      string

	// Receipt webhook provider
	ReceiptWebhookURL    string
	ReceiptWebhookSecret string

	// HTTP surface
	CORSAllowedOrigins []string
	AdminAPIKey        string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = Load()
	return nil
}

// Load reads the configuration from the process environment.
func Load() *Config {
	return &Config{
		Port:                  getEnv("PORT", "5000"),
		Mode:                  getEnv("GIN_MODE", "debug"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		SQLitePath:            getEnv("SQLITE_PATH", "donation.db"),
		DBTimeout:             getEnvSeconds("DB_TIMEOUT_SECONDS", 10),
		RedisURL:              getEnv("REDIS_URL", ""),
		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		RazorpayBaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		Currency:              getEnv("CURRENCY", "INR"),
		GatewayTimeout:        getEnvSeconds("GATEWAY_TIMEOUT_SECONDS", 300),
		MailProvider:          strings.ToLower(getEnv("MAIL_PROVIDER", "noop")),
		MailFrom:              getEnv("MAIL_USERNAME", ""),
		MailFromName:          getEnv("MAIL_FROM_NAME", "Donations"),
		AutoReceipt:           getEnvBool("AUTO_RECEIPT", false),
		BrevoAPIKey:           getEnv("BREVO_API_KEY", ""),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SendGridAPIKey:        getEnv("SENDGRID_API_KEY", ""),
		GmailUsername:         getEnv("GMAIL_USERNAME", ""),
		GmailPassword:         getEnv("GMAIL_PASSWORD", ""),
		AWSRegion:             getEnv("AWS_REGION", ""),
		ReceiptWebhookURL:     getEnv("RECEIPT_WEBHOOK_URL", ""),
		ReceiptWebhookSecret:  getEnv("RECEIPT_WEBHOOK_SECRET", ""),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
		AdminAPIKey:           getEnv("ADMIN_API_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
