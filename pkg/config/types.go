// Package config loads and validates the tool configuration from YAML,
// with environment variable overrides for credentials and the
// controller address.
package config

import (
	"time"

	"github.com/openibn/openibn/pkg/restconf"
	"github.com/openibn/openibn/pkg/telemetry"
)

// ControllerConfig holds the connection settings for the controller.
type ControllerConfig struct {
	// BaseURL is the controller base URL (e.g. "https://nsp.example.com").
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// Username for the token request.
	Username string `yaml:"username" validate:"required"`

	// Password for the token request.
	Password string `yaml:"password" validate:"required"`

	// InsecureSkipVerify disables TLS certificate verification. Lab
	// controllers commonly run with self-signed certificates.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// Timeout bounds a single request including the body read.
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`
}

// EndpointsConfig overrides the controller's published resource paths.
// Rarely needed; some deployments mount the RESTCONF tree under a prefix.
type EndpointsConfig struct {
	IntentStore     string `yaml:"intent_store" validate:"required,startswith=/"`
	CatalogRoot     string `yaml:"catalog_root" validate:"required,startswith=/"`
	SearchIntents   string `yaml:"search_intents" validate:"required,startswith=/"`
	ViewConfigStore string `yaml:"view_config_store" validate:"required,startswith=/"`
}

// SearchConfig tunes the search-intents operation.
type SearchConfig struct {
	// PageSize bounds one result page.
	PageSize int `yaml:"page_size" validate:"min=1,max=10000"`
}

// EventsConfig tunes the reconcile event publisher.
type EventsConfig struct {
	// BufferSize is the per-subscriber channel buffer.
	BufferSize int `yaml:"buffer_size" validate:"min=0"`
}

// Config is the top-level configuration document.
type Config struct {
	// Controller holds connection settings.
	Controller ControllerConfig `yaml:"controller"`

	// Endpoints holds the controller's resource paths.
	Endpoints EndpointsConfig `yaml:"endpoints"`

	// Search tunes intent searches.
	Search SearchConfig `yaml:"search"`

	// Events tunes the event publisher.
	Events EventsConfig `yaml:"events"`

	// Telemetry configures logging, tracing and metrics.
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// DefaultConfig returns a configuration with sensible defaults. The
// controller section has no defaults and must come from the file or the
// environment.
func DefaultConfig() *Config {
	defaults := restconf.DefaultEndpoints()
	return &Config{
		Controller: ControllerConfig{
			Timeout: 60 * time.Second,
		},
		Endpoints: EndpointsConfig{
			IntentStore:     defaults.IntentStore,
			CatalogRoot:     defaults.CatalogRoot,
			SearchIntents:   defaults.SearchIntents,
			ViewConfigStore: defaults.ViewConfigStore,
		},
		Search: SearchConfig{
			PageSize: 1000,
		},
		Events: EventsConfig{
			BufferSize: 64,
		},
		Telemetry: *telemetry.DefaultConfig(),
	}
}

// RESTConfEndpoints builds the endpoint value handed to the protocol layer.
func (c *Config) RESTConfEndpoints() restconf.Endpoints {
	return restconf.Endpoints{
		IntentStore:     c.Endpoints.IntentStore,
		CatalogRoot:     c.Endpoints.CatalogRoot,
		SearchIntents:   c.Endpoints.SearchIntents,
		ViewConfigStore: c.Endpoints.ViewConfigStore,
	}
}
