package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"talk-less/internal/domain/entity"
)

// BiasRulesConfig is the typed decoding of the bias rules file (§6): three
// rule families plus the reporting confidence floor.
type BiasRulesConfig struct {
	LoadedWords         []RuleEntry `yaml:"loaded_words"`
	AttributionPatterns []RuleEntry `yaml:"attribution_patterns"`
	FramingPatterns     []RuleEntry `yaml:"framing_patterns"`
	MinConfidence       string      `yaml:"min_confidence"`
}

// RuleEntry mirrors one rule's YAML shape: {pattern, scope, confidence, weight?}.
type RuleEntry struct {
	Pattern    string  `yaml:"pattern"`
	Scope      string  `yaml:"scope"`
	Confidence string  `yaml:"confidence"`
	Weight     float64 `yaml:"weight,omitempty"`
}

// LoadBiasRulesConfig reads and decodes a bias rules file. Per §4.4, rule
// file parse errors are a hard (fatal) dependency — the caller should treat
// any returned error as a configuration failure that aborts the run.
func LoadBiasRulesConfig(path string, strict bool) (*BiasRulesConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bias rules config %s: %w", path, err)
	}

	var cfg BiasRulesConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(strict)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode bias rules config %s: %w", path, err)
	}

	if cfg.MinConfidence == "" {
		cfg.MinConfidence = "low"
	}

	return &cfg, nil
}

// MinConfidenceLevel converts the configured floor into an entity.Confidence,
// defaulting to Low on an unrecognized value.
func (c *BiasRulesConfig) MinConfidenceLevel() entity.Confidence {
	switch c.MinConfidence {
	case "medium":
		return entity.ConfidenceMedium
	case "high":
		return entity.ConfidenceHigh
	default:
		return entity.ConfidenceLow
	}
}
