package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	LogLevel      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NatsURL       string
	NatsToken     string
	GeminiAPIKey  string
	GeminiModel   string
	EmbedModel    string

	// Learning-loop policy.
	DeployThreshold float64
	MinSkillQuality float64
	PassRetries     int
}

func Load() Config {
	return Config{
		Port:            envInt("REFINERY_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		RedisAddr:       envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   envStr("REDIS_PASSWORD", ""),
		RedisDB:         envInt("REDIS_DB", 0),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		GeminiAPIKey:    envStr("GEMINI_API_KEY", ""),
		GeminiModel:     envStr("REFINERY_MODEL", "gemini-2.0-flash"),
		EmbedModel:      envStr("REFINERY_EMBED_MODEL", "gemini-embedding-001"),
		DeployThreshold: envFloat("DEPLOY_THRESHOLD", 0.5),
		MinSkillQuality: envFloat("MIN_SKILL_QUALITY", 0.8),
		PassRetries:     envInt("PASS_RETRIES", 2),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
