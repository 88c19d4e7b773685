package main

import (
	"crypto/rand"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Config is the runtime configuration, read from the environment (and .env when present).
type Config struct {
	Port            string
	ProjectID       string
	Region          string
	APIKey          string
	Model           string
	DBPath          string
	JWTSecret       []byte
	LogLevel        string
	SeedLeaderboard bool
}

func loadConfig() Config {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		ProjectID:       os.Getenv("GCP_PROJECT_ID"),
		Region:          getEnv("GCP_REGION", defaultRegion),
		APIKey:          os.Getenv("GEMINI_API_KEY"),
		Model:           getEnv("GEMINI_MODEL", defaultModel),
		DBPath:          os.Getenv("DB_PATH"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		SeedLeaderboard: getBool("SEED_LEADERBOARD", true),
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		cfg.JWTSecret = make([]byte, 32)
		_, _ = rand.Read(cfg.JWTSecret)
		log.Warn().Msg("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	return cfg
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}
