package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	DatabaseURL     string
	JWTSecret       string
	HTTPPort        string
	TokenExpiration time.Duration
	EncryptionKey   []byte // Raw key bytes (32 for AES-256), nil when content sealing is disabled

	// Completion backends
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	OllamaURL      string
	OllamaModel    string
	BackendTimeout time.Duration

	// Conversation policy
	UserContextTurns       int
	GuestContextTurns      int
	MaxMessageLength       int
	ModerationPatternsFile string

	// Mail transport for OTP delivery
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	OTPTTL       time.Duration

	CORSAllowedOrigins []string
	GuestRatePerMinute int
	GuestRateBurst     int
	MetricsNamespace   string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Don't fail if .env is not present, might be in production
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	encryptionKey, err := decodeEncryptionKey(getEnv("ENCRYPTION_KEY", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		JWTSecret:       getEnv("JWT_SECRET", "default-super-secret-key"), // CHANGE THIS IN PRODUCTION!
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TokenExpiration: time.Hour * time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 168)),
		EncryptionKey:   encryptionKey,

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3:8b"),
		BackendTimeout: time.Second * time.Duration(getEnvInt("BACKEND_TIMEOUT_SECONDS", 30)),

		UserContextTurns:       getEnvInt("USER_CONTEXT_TURNS", 5),
		GuestContextTurns:      getEnvInt("GUEST_CONTEXT_TURNS", 6),
		MaxMessageLength:       getEnvInt("MAX_MESSAGE_LENGTH", 1000),
		ModerationPatternsFile: getEnv("MODERATION_PATTERNS_FILE", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", ""),
		OTPTTL:       time.Minute * time.Duration(getEnvInt("OTP_TTL_MINUTES", 10)),

		CORSAllowedOrigins: getEnvCSV("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		GuestRatePerMinute: getEnvInt("GUEST_RATE_PER_MINUTE", 20),
		GuestRateBurst:     getEnvInt("GUEST_RATE_BURST", 5),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "mindfulchat"),
	}

	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUsername
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, TokenExp=%s, OpenAIModel=%s, OllamaModel=%s, Sealing=%t",
		cfg.HTTPPort, cfg.TokenExpiration, cfg.OpenAIModel, cfg.OllamaModel, cfg.EncryptionKey != nil)

	return cfg, nil
}

// decodeEncryptionKey accepts an empty value (sealing disabled) or exactly 64 hex characters.
func decodeEncryptionKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ENCRYPTION_KEY from hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes (64 hex characters) long, got %d bytes", len(key))
	}
	return key, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Debugf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		log.Printf("Warning: Invalid %s '%s', using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnvCSV(key string, fallback []string) []string {
	raw, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
