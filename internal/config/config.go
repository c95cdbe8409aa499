// Package config loads runtime settings from .env files and the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envPaths are tried in order; the first readable file wins.
var envPaths = []string{".env", "../.env", "../../.env"}

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Riot API
	RiotAPIKey      string
	RiotBaseURL     string
	RiotProxyURL    string
	RiotPlatformURL string

	// Database
	DatabaseDriver string
	DatabaseURL    string
	TursoAuthToken string

	// Redis (optional, enables shared rate limiting)
	RedisURL string

	// Incoming request limit per client IP
	RateLimitPerMinute int

	// CORS
	CORSAllowedOrigins []string

	// Backfill
	ArchivePath     string
	BackfillWorkers int

	// Discord webhook for operational notices, empty disables them
	DiscordWebhookURL string

	// EnvFile is the .env file that was loaded, empty if none.
	EnvFile string
}

// Load reads the first .env file found and then the environment.
func Load() (*Config, error) {
	envFile := ""
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			envFile = path
			break
		}
	}

	apiKey := getEnv("RIOT_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("RIOT-DEV-KEY", "")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RiotAPIKey:         apiKey,
		RiotBaseURL:        getEnv("RIOT_BASE_URL", "https://americas.api.riotgames.com"),
		RiotProxyURL:       getEnv("RIOT_PROXY_URL", ""),
		RiotPlatformURL:    getEnv("RIOT_PLATFORM_URL", "https://na1.api.riotgames.com"),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:        trimQuotes(getEnv("DATABASE_URL", "")),
		TursoAuthToken:     getEnv("TURSO_AUTH_TOKEN", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 50),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		ArchivePath:        trimQuotes(getEnv("ARCHIVE_PATH", "")),
		BackfillWorkers:    getEnvInt("BACKFILL_WORKERS", 4),
		DiscordWebhookURL:  getEnv("DISCORD_WEBHOOK_URL", ""),
		EnvFile:            envFile,
	}

	return cfg, nil
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// trimQuotes removes quotes left around paths by some .env editors.
func trimQuotes(s string) string {
	return strings.Trim(s, "\"")
}
