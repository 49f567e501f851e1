// Package config provides configuration for the conversation store.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the conversation store configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Author cache
	AuthorCacheDir string

	// Moderation API
	ModerationURL     string
	ModerationAPIKey  string
	ModerationModel   string
	ModerationTimeout time.Duration

	// Banned word pre-filter
	BannedWords []string

	// Author name used for system messages, exempt from moderation
	SystemAuthor string

	// Logging
	LogLevel string
}

// Load loads configuration from a .env file (if present) and environment
// variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: failed to load .env file: %v", err)
	}

	cfg := &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:       getEnv("DATABASE_URL", "file:convokeep.db?cache=shared&mode=rwc&_fk=1"),
		AuthorCacheDir:    getEnv("AUTHOR_CACHE_DIR", "authorcache"),
		ModerationURL:     getEnv("MODERATION_URL", "https://api.openai.com"),
		ModerationAPIKey:  getEnv("MODERATION_API_KEY", ""),
		ModerationModel:   getEnv("MODERATION_MODEL", "omni-moderation-latest"),
		ModerationTimeout: time.Duration(getEnvInt("MODERATION_TIMEOUT_MS", 30000)) * time.Millisecond,
		BannedWords:       getEnvList("BANNED_WORDS"),
		SystemAuthor:      getEnv("SYSTEM_AUTHOR", "convokeep"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
