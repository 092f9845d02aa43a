package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"talk-less/internal/domain/entity"
)

// SourcesConfig is the typed decoding of the sources file (§6): the set of
// outlets the Ingestor polls for a run.
type SourcesConfig struct {
	Sources []SourceEntry `yaml:"sources"`
}

// SourceEntry mirrors the sources file schema from §6:
// {id, name, kind, url, credential_env?, declared_lean?, enabled, requests_per_minute}.
type SourceEntry struct {
	ID                string          `yaml:"id"`
	Name              string          `yaml:"name"`
	Kind              string          `yaml:"kind"`
	URL               string          `yaml:"url"`
	CredentialEnv     string          `yaml:"credential_env,omitempty"`
	DeclaredLean      string          `yaml:"declared_lean,omitempty"`
	Enabled           bool            `yaml:"enabled"`
	RequestsPerMinute int             `yaml:"requests_per_minute"`
	APIMapping        *APIMappingYAML `yaml:"api_mapping,omitempty"`
}

// APIMappingYAML is the YAML form of entity.APIFieldMapping.
type APIMappingYAML struct {
	ArrayField     string `yaml:"array_field"`
	TitleField     string `yaml:"title_field"`
	URLField       string `yaml:"url_field"`
	ContentField   string `yaml:"content_field"`
	PublishedField string `yaml:"published_field"`
	AuthorField    string `yaml:"author_field,omitempty"`
}

// LoadSourcesConfig reads and decodes a sources file, then converts every
// entry into a validated entity.Source. strict rejects unknown YAML keys
// (§9's strict_config flag); in non-strict mode unknown keys are ignored by
// yaml.v3's default decoding behavior.
func LoadSourcesConfig(path string, strict bool) ([]entity.Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources config %s: %w", path, err)
	}

	var cfg SourcesConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(strict)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode sources config %s: %w", path, err)
	}

	sources := make([]entity.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		source := entity.Source{
			ID:                s.ID,
			Name:              s.Name,
			Kind:              entity.Kind(s.Kind),
			Endpoint:          s.URL,
			CredentialEnv:     s.CredentialEnv,
			DeclaredLean:      s.DeclaredLean,
			Enabled:           s.Enabled,
			RequestsPerMinute: s.RequestsPerMinute,
		}
		if s.APIMapping != nil {
			source.APIMapping = &entity.APIFieldMapping{
				ArrayField:     s.APIMapping.ArrayField,
				TitleField:     s.APIMapping.TitleField,
				URLField:       s.APIMapping.URLField,
				ContentField:   s.APIMapping.ContentField,
				PublishedField: s.APIMapping.PublishedField,
				AuthorField:    s.APIMapping.AuthorField,
			}
		}
		if err := source.Validate(); err != nil {
			return nil, fmt.Errorf("source %q: %w", s.ID, err)
		}
		sources = append(sources, source)
	}

	return sources, nil
}
