package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	RedisURL   string
	JWTSecret  string
	// ChatLegacyFlat keeps chat listeners on the flat message collection
	// until the sub-stream migration has run.
	ChatLegacyFlat bool
}

func Load() *Config {
	// Missing .env is fine; env vars and defaults cover it.
	_ = godotenv.Load()

	return &Config{
		Env:            getEnv("APP_ENV", "development"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "servicedesk"),
		DBPassword:     getEnv("DB_PASSWORD", "servicedesk_dev_password"),
		DBName:         getEnv("DB_NAME", "servicedesk"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		ChatLegacyFlat: getEnv("CHAT_LEGACY_FLAT", "") == "true",
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
