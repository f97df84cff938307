package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string

	HTTPPort        string
	ChatServicePort string
	ChatServiceURL  string

	// Ordered API key pools. The classifier and the answer streamer each
	// fail over through their own pool.
	ClassifierKeys []string
	StreamKeys     []string

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	LogLevel string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "ads"),
		HTTPPort:         getEnv("HTTP_PORT", "3000"),
		ChatServicePort:  getEnv("CHAT_SERVICE_PORT", "3030"),
		ChatServiceURL:   getEnv("CHAT_SERVICE_URL", "http://localhost:3030"),
		ClassifierKeys:   splitKeys(getEnv("GEMINI_CLASSIFIER_KEYS", "")),
		StreamKeys:       splitKeys(getEnv("GEMINI_STREAM_KEYS", "")),
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:   getEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
	}
}

// RequireAuthSecrets aborts when the JWT secrets are missing. The web server
// needs them; the chat service issues no tokens.
func RequireAuthSecrets() {
	if AppConfig.JWTAccessSecret == "" {
		log.Fatal("JWT_ACCESS_SECRET environment variable is required")
	}
	if AppConfig.JWTRefreshSecret == "" {
		log.Fatal("JWT_REFRESH_SECRET environment variable is required")
	}
}

// RequireGeminiKeys aborts when an API key pool is empty. The chat service
// cannot serve /inference without at least one key in each pool.
func RequireGeminiKeys() {
	if len(AppConfig.ClassifierKeys) == 0 {
		log.Fatal("GEMINI_CLASSIFIER_KEYS environment variable is required")
	}
	if len(AppConfig.StreamKeys) == 0 {
		log.Fatal("GEMINI_STREAM_KEYS environment variable is required")
	}
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
