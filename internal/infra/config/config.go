package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env             string
	Port            string
	BotSecret       string
	ProviderAPIKey  string
	ProviderBaseURL string
	ProviderModel   string
	// CoalesceWindowMS bounds the token coalescing window; 0 disables coalescing.
	CoalesceWindowMS int
	ProviderTimeout  int
	StaticDir        string
	RateWindowMS     int
	RateMaxHits      int
	RateMaxKeys      int
	EnableOTel       bool
}

func Load() *Config {
	return &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "8000"),
		BotSecret:        getSecret("BOT_SECRET", "BOT_SECRET_FILE", ""),
		ProviderAPIKey:   getSecret("PROVIDER_API_KEY", "PROVIDER_API_KEY_FILE", ""),
		ProviderBaseURL:  getEnvWithAlt("PROVIDER_BASE_URL", "OPENAI_BASE_URL", "https://api.openai.com"),
		ProviderModel:    getEnv("PROVIDER_MODEL", "gpt-4o-mini"),
		CoalesceWindowMS: getEnvInt("COALESCE_WINDOW_MS", 120),
		ProviderTimeout:  getEnvInt("PROVIDER_TIMEOUT_SEC", 120),
		StaticDir:        getEnv("WEBAPP_DIR", "webapp/dist"),
		RateWindowMS:     getEnvInt("RATE_WINDOW_MS", 2000),
		RateMaxHits:      getEnvInt("RATE_MAX_HITS", 3),
		RateMaxKeys:      getEnvInt("RATE_MAX_KEYS", 4096),
		EnableOTel:       getEnvBool("ENABLE_OTEL", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
