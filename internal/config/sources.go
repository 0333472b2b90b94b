// Package config loads the harvest source registry.
package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/harvester/internal/transport"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
)

// Sources is the top-level sources file.
//
//	sources:
//	  - id: met-eireann
//	    url: https://data.example.ie/data.json
//	    auth:
//	      scheme: bearer
//	      secret_env: MET_TOKEN
type Sources struct {
	Sources []Source `yaml:"sources" json:"sources"`
}

// Source describes one feed and how to reach it.
type Source struct {
	ID            string        `yaml:"id" json:"id"`
	URL           string        `yaml:"url" json:"url"`
	Title         string        `yaml:"title,omitempty" json:"title,omitempty"`
	ForceReimport bool          `yaml:"force_reimport,omitempty" json:"force_reimport,omitempty"`
	MaxPages      int           `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`
	RateLimit     float64       `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"` // Requests per second, 0 is unlimited
	Timeout       time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Auth          Auth          `yaml:"auth,omitempty" json:"auth,omitempty"`
}

// Auth selects how requests to the feed are authenticated. The secret is
// read from the environment variable named by SecretEnv so sources files
// can be committed.
type Auth struct {
	Scheme    string `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	SecretEnv string `yaml:"secret_env,omitempty" json:"secret_env,omitempty"`
}

// LoadSources reads and validates a sources file.
func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return ParseSources(data, path)
}

// ParseSources decodes a sources document. path is used in error messages.
func ParseSources(data []byte, path string) (*Sources, error) {
	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every source and rejects duplicate ids.
func (s *Sources) Validate() error {
	seen := make(map[string]struct{}, len(s.Sources))
	for i, src := range s.Sources {
		if err := src.Harvest().Validate(); err != nil {
			return errors.NewValidationError(fmt.Sprintf("sources[%d]", i), src.ID, err.Error())
		}
		if _, dup := seen[src.ID]; dup {
			return errors.NewValidationError(fmt.Sprintf("sources[%d].id", i), src.ID, "duplicate source id")
		}
		seen[src.ID] = struct{}{}
		if src.RateLimit < 0 {
			return errors.NewValidationError(fmt.Sprintf("sources[%d].rate_limit", i), src.RateLimit, "must not be negative")
		}
	}
	return nil
}

// Find returns the source with id.
func (s *Sources) Find(id string) (Source, error) {
	for _, src := range s.Sources {
		if src.ID == id {
			return src, nil
		}
	}
	return Source{}, errors.NewNotFoundError("source", id)
}

// Harvest returns the harvest view of the source.
func (s Source) Harvest() harvest.Source {
	return harvest.Source{
		ID:            s.ID,
		URL:           s.URL,
		Title:         s.Title,
		ForceReimport: s.ForceReimport,
		MaxPages:      s.MaxPages,
	}
}

// Client builds the HTTP transport for the source.
func (s Source) Client() (*transport.Client, error) {
	var secret string
	if s.Auth.SecretEnv != "" {
		secret = GetString(s.Auth.SecretEnv)
	}
	auth, err := transport.NewAuthenticator(s.Auth.Scheme, s.Auth.Name, secret)
	if err != nil {
		return nil, err
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return transport.New(
		transport.WithHTTPClient(&http.Client{Timeout: timeout}),
		transport.WithAuth(auth),
		transport.WithRateLimit(s.RateLimit),
	), nil
}
