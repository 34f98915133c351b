package config

import (
	"fmt"
	"time"
)

// Config represents a patchfeed.yaml configuration file.
// All values are optional and act as defaults for patchfeed feed flags.
// CLI flags always override config values.
type Config struct {
	APIKey          string        `yaml:"api_key"`
	Handle          string        `yaml:"handle"`
	Capacity        int           `yaml:"capacity"`
	CountAfter      int           `yaml:"count_after"`
	EventTypeFilter string        `yaml:"event_type_filter"`
	Library         LibraryConfig `yaml:"library"`
	Steam           SteamConfig   `yaml:"steam"`
	Adapter         AdapterConfig `yaml:"adapter"`
}

// LibraryConfig holds library fetch retry defaults from the config file.
type LibraryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	RetryDelay  Duration `yaml:"retry_delay"`
}

// SteamConfig holds Steam endpoint overrides from the config file.
// Base URLs are mainly useful for pointing tests at local fixtures.
type SteamConfig struct {
	WebAPIBase string   `yaml:"webapi_base,omitempty"`
	StoreBase  string   `yaml:"store_base,omitempty"`
	Timeout    Duration `yaml:"timeout,omitempty"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
