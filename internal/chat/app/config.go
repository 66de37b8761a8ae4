package app

import (
	"os"
	"strconv"
	"time"

	"github.com/harborchat/harbor/pkg/jwtx"
)

type Config struct {
	AccessTokenSecret  string        // Required: HMAC secret for access tokens
	RefreshTokenSecret string        // Required: HMAC secret for refresh tokens
	AccessTokenTTL     time.Duration // Optional: access token lifetime (default: 150s)
	RefreshTokenTTL    time.Duration // Optional: refresh token lifetime (default: 7 days)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./chat.db)
	PepperFile          string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	RedisAddr           string        // Optional: Redis address; empty runs the in-process broker
	CookieSecure        bool          // Optional: mark credential cookies Secure (default: true outside dev)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	return Config{
		AccessTokenSecret:  os.Getenv("CHAT_ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("CHAT_REFRESH_TOKEN_SECRET"),
		AccessTokenTTL: getEnvDurationOrDefault(
			"CHAT_ACCESS_TOKEN_TTL",
			jwtx.DefaultAccessTokenTTL,
		),
		RefreshTokenTTL: getEnvDurationOrDefault(
			"CHAT_REFRESH_TOKEN_TTL",
			jwtx.DefaultRefreshTokenTTL,
		),
		DatabaseFile:        getEnvOrDefault("CHAT_DATABASE_FILE", "chat.db"),
		PepperFile:          getEnvOrDefault("CHAT_PEPPER_FILE", "pepper"),
		RedisAddr:           os.Getenv("CHAT_REDIS_ADDR"),
		CookieSecure:        getEnvBoolOrDefault("CHAT_COOKIE_SECURE", env != "dev"),
		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
