package config

import (
	"fmt"
	"time"

	pkgconfig "talk-less/pkg/config"
)

// ProvidersConfig holds per-provider connection settings for the
// Summarizer's Completer implementations (§4.3, §9 "Plugin polymorphism").
type ProvidersConfig struct {
	// Claude configures the Anthropic completer.
	Claude ProviderConnConfig

	// OpenAI configures the OpenAI completer.
	OpenAI ProviderConnConfig
}

// ProviderConnConfig holds the connection-level settings shared by every
// LLM provider: request timeout and circuit breaker tuning. Model id and
// temperature are run parameters and live in PipelineConfig.Summarization.
type ProviderConnConfig struct {
	// APIKeyEnv names the environment variable holding the credential;
	// the key itself is never embedded in config, per §4.1's credential
	// indirection rule applied uniformly to provider secrets.
	APIKeyEnv string

	RequestTimeout time.Duration

	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig configures a gobreaker-backed circuit breaker for an
// external dependency (LLM provider or cache backend).
type CircuitBreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// LoadProvidersConfig loads provider connection settings from environment
// variables, applying safe defaults for anything unset.
func LoadProvidersConfig() *ProvidersConfig {
	return &ProvidersConfig{
		Claude: ProviderConnConfig{
			APIKeyEnv:      "ANTHROPIC_API_KEY",
			RequestTimeout: pkgconfig.GetEnvDuration("CLAUDE_REQUEST_TIMEOUT", 60*time.Second),
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:      3,
				Interval:         30 * time.Second,
				Timeout:          60 * time.Second,
				FailureThreshold: 0.6,
				MinRequests:      5,
			},
		},
		OpenAI: ProviderConnConfig{
			APIKeyEnv:      "OPENAI_API_KEY",
			RequestTimeout: pkgconfig.GetEnvDuration("OPENAI_REQUEST_TIMEOUT", 60*time.Second),
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:      3,
				Interval:         30 * time.Second,
				Timeout:          60 * time.Second,
				FailureThreshold: 0.6,
				MinRequests:      5,
			},
		},
	}
}

// ResolveCredential reads a provider's API key from the environment,
// following §4.1's rule that credentials are resolved via environment
// indirection and never embedded in configuration files.
func (p ProviderConnConfig) ResolveCredential() (string, error) {
	key := pkgconfig.GetEnvString(p.APIKeyEnv, "")
	if key == "" {
		return "", fmt.Errorf("credential environment variable %s is not set", p.APIKeyEnv)
	}
	return key, nil
}
