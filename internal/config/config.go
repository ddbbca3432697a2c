package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	PublicBaseURL  string
	LogLevel       string
	DatabaseURL    string
	UseMemoryStore bool

	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	AIReplyCacheTTL time.Duration

	// AI responder
	AIProvider      string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAITimeout   time.Duration
	AILenientParse  bool
	BedrockModelID  string
	AWSRegion       string
	AWSAccessKeyID  string
	AWSSecretAccess string

	// Messaging provider defaults; per-contractor credentials take precedence.
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWebhookSecret string
	TwilioAPIBaseURL    string

	// Contractor notifications
	ExpoPushURL         string
	ExpoAccessToken     string
	EmailProvider       string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
	SESFromEmail        string
	NotifyPreviewLength int

	AdminJWTSecret string

	// Escalation policy thresholds
	ConfidenceThreshold float64
	MinMessageLength    int
}

// Load reads configuration from environment variables
func Load() *Config {
	aiProvider := strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", "openai")))
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		AIReplyCacheTTL: getEnvAsDuration("AI_REPLY_CACHE_TTL", 0),

		AIProvider:      aiProvider,
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		OpenAITimeout:   getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
		// Converse has no JSON mode, so Bedrock output is salvaged by default.
		AILenientParse:  getEnvAsBool("AI_LENIENT_PARSE", aiProvider == "bedrock"),
		BedrockModelID:  getEnv("BEDROCK_MODEL_ID", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:  getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccess: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioAPIBaseURL:    getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com"),

		ExpoPushURL:         getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken:     getEnv("EXPO_ACCESS_TOKEN", ""),
		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Project Inbox"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		NotifyPreviewLength: getEnvAsInt("NOTIFY_PREVIEW_LENGTH", 100),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		ConfidenceThreshold: getEnvAsFloat("TRIAGE_CONFIDENCE_THRESHOLD", 0.7),
		MinMessageLength:    getEnvAsInt("TRIAGE_MIN_MESSAGE_LENGTH", 10),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NeedsAWS reports whether any configured component calls an AWS API.
func (c *Config) NeedsAWS() bool {
	return c.AIProvider == "bedrock" || c.EmailProvider == "ses"
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
