package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talk-less/internal/domain/entity"
)

func writeBiasRulesFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bias_rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadBiasRulesConfig_AllFamilies(t *testing.T) {
	path := writeBiasRulesFile(t, `
loaded_words:
  - pattern: "slammed"
    scope: headline
    confidence: medium
    weight: 1.5
attribution_patterns:
  - pattern: "critics say"
    scope: body
    confidence: low
framing_patterns:
  - pattern: "so-called"
    scope: body
    confidence: high
min_confidence: medium
`)

	cfg, err := LoadBiasRulesConfig(path, true)
	require.NoError(t, err)
	require.Len(t, cfg.LoadedWords, 1)
	require.Len(t, cfg.AttributionPatterns, 1)
	require.Len(t, cfg.FramingPatterns, 1)

	assert.Equal(t, "slammed", cfg.LoadedWords[0].Pattern)
	assert.Equal(t, 1.5, cfg.LoadedWords[0].Weight)
	assert.Equal(t, entity.ConfidenceMedium, cfg.MinConfidenceLevel())
}

func TestLoadBiasRulesConfig_DefaultsMinConfidenceToLow(t *testing.T) {
	path := writeBiasRulesFile(t, `
loaded_words:
  - pattern: "blasted"
    scope: headline
    confidence: low
`)

	cfg, err := LoadBiasRulesConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "low", cfg.MinConfidence)
	assert.Equal(t, entity.ConfidenceLow, cfg.MinConfidenceLevel())
}

func TestLoadBiasRulesConfig_StrictRejectsUnknownKeys(t *testing.T) {
	path := writeBiasRulesFile(t, `
loaded_words:
  - pattern: "slammed"
    scope: headline
    confidence: medium
surprise_field: true
`)

	_, err := LoadBiasRulesConfig(path, true)
	assert.Error(t, err)

	_, err = LoadBiasRulesConfig(path, false)
	assert.NoError(t, err)
}

func TestLoadBiasRulesConfig_MissingFile(t *testing.T) {
	_, err := LoadBiasRulesConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestMinConfidenceLevel_UnrecognizedDefaultsToLow(t *testing.T) {
	cfg := &BiasRulesConfig{MinConfidence: "extreme"}
	assert.Equal(t, entity.ConfidenceLow, cfg.MinConfidenceLevel())
}
