// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package providers loads and validates the static identity provider
// catalog. The catalog is immutable once loaded; a bad entry fails the whole
// load rather than partially succeeding.
package providers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/idpkit/idpkit/internal/models"
)

// catalogFile is the on-disk shape of the provider list.
type catalogFile struct {
	Providers []models.IdentityProvider `json:"providers" yaml:"providers"`
}

// Catalog holds the validated provider list for the process lifetime.
type Catalog struct {
	providers []models.IdentityProvider
}

// Load reads the provider catalog from path. YAML or JSON is picked by file
// extension. Every entry is validated; an empty list or any invalid entry
// is a configuration error.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewConfigurationError(fmt.Sprintf("failed to read provider catalog %s: %v", path, err))
	}

	var file catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, models.NewConfigurationError(fmt.Sprintf("failed to parse YAML provider catalog: %v", err))
		}
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, models.NewConfigurationError(fmt.Sprintf("failed to parse JSON provider catalog: %v", err))
		}
	default:
		return nil, models.NewConfigurationError(fmt.Sprintf("unsupported provider catalog format: %s", filepath.Ext(path)))
	}

	return New(file.Providers)
}

// New validates the given provider list and builds a catalog from it.
func New(list []models.IdentityProvider) (*Catalog, error) {
	if len(list) == 0 {
		return nil, models.NewConfigurationError("no identity providers configured")
	}

	seen := make(map[string]bool, len(list))
	for _, p := range list {
		if err := Validate(p); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, models.NewConfigurationError(fmt.Sprintf("duplicate provider id %q", p.ID))
		}
		seen[p.ID] = true
	}

	log.Debug().Int("providers", len(list)).Msg("Loaded identity provider catalog")

	providers := make([]models.IdentityProvider, len(list))
	copy(providers, list)
	return &Catalog{providers: providers}, nil
}

// Validate checks a single provider entry: required fields present and all
// endpoints HTTPS. Violations surface at load time, never at use time.
func Validate(p models.IdentityProvider) error {
	if p.ID == "" {
		return models.NewConfigurationError("provider id cannot be empty")
	}
	if p.Name == "" {
		return models.NewConfigurationError(fmt.Sprintf("provider %q: name cannot be empty", p.ID))
	}
	if p.ClientID == "" {
		return models.NewConfigurationError(fmt.Sprintf("provider %q: client id cannot be empty", p.ID))
	}
	if p.Scope == "" {
		return models.NewConfigurationError(fmt.Sprintf("provider %q: scope cannot be empty", p.ID))
	}

	for name, endpoint := range p.Endpoints() {
		if !models.IsSecureURL(endpoint) {
			return models.NewConfigurationError(fmt.Sprintf("provider %q: %s must be an https URL", p.ID, name))
		}
	}
	return nil
}

// All returns the providers in load order.
func (c *Catalog) All() []models.IdentityProvider {
	out := make([]models.IdentityProvider, len(c.providers))
	copy(out, c.providers)
	return out
}

// ByID looks up a provider by id.
func (c *Catalog) ByID(id string) (models.IdentityProvider, bool) {
	for _, p := range c.providers {
		if p.ID == id {
			return p, true
		}
	}
	return models.IdentityProvider{}, false
}

// Default returns the provider flagged as default, else the first in load
// order.
func (c *Catalog) Default() models.IdentityProvider {
	for _, p := range c.providers {
		if p.IsDefault {
			return p
		}
	}
	return c.providers[0]
}
