package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Auth
	JWTSecret string

	// AWS / DynamoDB
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	DoctorsTable        string
	PatientsTable       string
	AppointmentsTable   string
	SlotsTable          string

	// Notification queue + worker
	NotifyQueueURL    string
	NotifyWorkerCount int
	NotifyPollWait    time.Duration

	// Redis cache
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	DoctorCacheTTL time.Duration

	// Payment provider (razorpay-style checkout)
	PaymentKeyID     string
	PaymentKeySecret string
	PaymentBaseURL   string
	PaymentCurrency  string

	// SendGrid email
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		DoctorsTable:        getEnv("DOCTORS_TABLE", "doctors"),
		PatientsTable:       getEnv("PATIENTS_TABLE", "patients"),
		AppointmentsTable:   getEnv("APPOINTMENTS_TABLE", "appointments"),
		SlotsTable:          getEnv("SLOTS_TABLE", "slot_reservations"),

		NotifyQueueURL:    getEnv("NOTIFY_QUEUE_URL", ""),
		NotifyWorkerCount: getEnvAsInt("NOTIFY_WORKER_COUNT", 2),
		NotifyPollWait:    getEnvAsDuration("NOTIFY_POLL_WAIT", 20*time.Second),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		DoctorCacheTTL: getEnvAsDuration("DOCTOR_CACHE_TTL", 5*time.Minute),

		PaymentKeyID:     getEnv("PAYMENT_KEY_ID", ""),
		PaymentKeySecret: getEnv("PAYMENT_KEY_SECRET", ""),
		PaymentBaseURL:   getEnv("PAYMENT_BASE_URL", "https://api.razorpay.com/v1"),
		PaymentCurrency:  getEnv("PAYMENT_CURRENCY", "INR"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "DocPoint"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
