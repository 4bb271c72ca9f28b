package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"ENV",
		"PORT",
		"PROVIDER_BASE_URL",
		"OPENAI_BASE_URL",
		"PROVIDER_MODEL",
		"COALESCE_WINDOW_MS",
		"RATE_WINDOW_MS",
		"RATE_MAX_HITS",
	}
	for _, key := range envVars {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "https://api.openai.com", cfg.ProviderBaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.ProviderModel)
	assert.Equal(t, 120, cfg.CoalesceWindowMS, "coalesce window should default to 120ms")
	assert.Equal(t, 2000, cfg.RateWindowMS)
	assert.Equal(t, 3, cfg.RateMaxHits)
	assert.Equal(t, 4096, cfg.RateMaxKeys)
	assert.False(t, cfg.EnableOTel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9300")
	t.Setenv("PROVIDER_MODEL", "gpt-4.1")
	t.Setenv("COALESCE_WINDOW_MS", "0")
	t.Setenv("RATE_MAX_HITS", "10")
	t.Setenv("ENABLE_OTEL", "true")

	cfg := Load()

	assert.Equal(t, "9300", cfg.Port)
	assert.Equal(t, "gpt-4.1", cfg.ProviderModel)
	assert.Equal(t, 0, cfg.CoalesceWindowMS)
	assert.Equal(t, 10, cfg.RateMaxHits)
	assert.True(t, cfg.EnableOTel)
}

func TestLoad_ProviderBaseURLAlt(t *testing.T) {
	_ = os.Unsetenv("PROVIDER_BASE_URL")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434")

	cfg := Load()

	assert.Equal(t, "http://localhost:11434", cfg.ProviderBaseURL)
}

func TestLoad_SecretFromFile(t *testing.T) {
	_ = os.Unsetenv("BOT_SECRET")
	secretFile := filepath.Join(t.TempDir(), "bot_secret")
	if err := os.WriteFile(secretFile, []byte("s3cret-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_SECRET_FILE", secretFile)

	cfg := Load()

	assert.Equal(t, "s3cret-token", cfg.BotSecret, "file secret should be trimmed")
}

func TestLoad_SecretEnvWinsOverFile(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "bot_secret")
	if err := os.WriteFile(secretFile, []byte("from-file"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_SECRET_FILE", secretFile)
	t.Setenv("BOT_SECRET", "from-env")

	cfg := Load()

	assert.Equal(t, "from-env", cfg.BotSecret)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("COALESCE_WINDOW_MS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 120, cfg.CoalesceWindowMS)
}
