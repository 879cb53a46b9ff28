package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AuthBaseURL   string
	AuthAPIKey    string
	AuthTimeout   time.Duration
	AllowedOrigin string
	SendQueueSize int
}

func Load() *Config {
	// Optional .env for local development; real deployments set env vars.
	godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "3000"),
		AuthBaseURL:   getEnv("AUTH_BASE_URL", "http://localhost:9999"),
		AuthAPIKey:    getEnv("AUTH_API_KEY", ""),
		AuthTimeout:   time.Duration(getEnvInt("AUTH_TIMEOUT_SEC", 5)) * time.Second,
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		SendQueueSize: getEnvInt("SEND_QUEUE_SIZE", 64),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
