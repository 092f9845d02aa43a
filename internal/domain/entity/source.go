package entity

import (
	"errors"
	"fmt"
)

// Kind identifies how a Source is fetched.
type Kind string

const (
	KindRSS Kind = "rss"
	KindAPI Kind = "api"
)

// Source is a configured external outlet, loaded from the sources file at
// run start and immutable for the duration of a run.
type Source struct {
	ID                string
	Name              string
	Kind              Kind
	Endpoint          string
	CredentialEnv     string // name of an environment variable holding the credential, never the secret itself
	DeclaredLean      string
	Enabled           bool
	RequestsPerMinute int

	// APIMapping describes how to map a configured JSON field to Article
	// attributes. Only meaningful when Kind == KindAPI.
	APIMapping *APIFieldMapping
}

// APIFieldMapping names the JSON fields an API source uses for each Article
// attribute, and the field under which the response array is nested.
type APIFieldMapping struct {
	ArrayField     string
	TitleField     string
	URLField       string
	ContentField   string
	PublishedField string
	AuthorField    string
}

// Validate checks structural invariants of a Source definition.
func (s *Source) Validate() error {
	if s.ID == "" {
		return &ValidationError{Field: "id", Message: "source id is required"}
	}
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "source name is required"}
	}

	switch s.Kind {
	case KindRSS, KindAPI:
	case "":
		return &ValidationError{Field: "kind", Message: "source kind is required (rss or api)"}
	default:
		return fmt.Errorf("invalid source kind %q: must be %q or %q", s.Kind, KindRSS, KindAPI)
	}

	if err := ValidateURL(s.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}

	if s.Kind == KindAPI && s.APIMapping == nil {
		return errors.New("api_mapping is required for api sources")
	}

	if s.RequestsPerMinute <= 0 {
		return &ValidationError{Field: "requests_per_minute", Message: "must be positive"}
	}

	return nil
}
