package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadProvidersConfig_Defaults(t *testing.T) {
	clearProviderEnvVars(t)

	cfg := LoadProvidersConfig()

	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Claude.APIKeyEnv)
	assert.Equal(t, 60*time.Second, cfg.Claude.RequestTimeout)
	assert.Equal(t, uint32(3), cfg.Claude.CircuitBreaker.MaxRequests)
	assert.Equal(t, 0.6, cfg.Claude.CircuitBreaker.FailureThreshold)

	assert.Equal(t, "OPENAI_API_KEY", cfg.OpenAI.APIKeyEnv)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.RequestTimeout)
}

func TestLoadProvidersConfig_CustomTimeout(t *testing.T) {
	clearProviderEnvVars(t)
	setProviderEnv(t, "CLAUDE_REQUEST_TIMEOUT", "90s")
	setProviderEnv(t, "OPENAI_REQUEST_TIMEOUT", "45s")

	cfg := LoadProvidersConfig()

	assert.Equal(t, 90*time.Second, cfg.Claude.RequestTimeout)
	assert.Equal(t, 45*time.Second, cfg.OpenAI.RequestTimeout)
}

func TestProviderConnConfig_ResolveCredential(t *testing.T) {
	clearProviderEnvVars(t)

	cfg := ProviderConnConfig{APIKeyEnv: "ANTHROPIC_API_KEY"}

	_, err := cfg.ResolveCredential()
	assert.Error(t, err, "missing credential should error, never silently empty")

	setProviderEnv(t, "ANTHROPIC_API_KEY", "sk-test-key")
	key, err := cfg.ResolveCredential()
	assert.NoError(t, err)
	assert.Equal(t, "sk-test-key", key)
}

func clearProviderEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY",
		"CLAUDE_REQUEST_TIMEOUT", "OPENAI_REQUEST_TIMEOUT",
	} {
		_ = os.Unsetenv(key)
	}
}

func setProviderEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
}
