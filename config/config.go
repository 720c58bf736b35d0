package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	// BaseURL is the public base URL stamped into proxied manifest links.
	// Leave empty to fall back to the inbound request host.
	BaseURL string `yaml:"base_url"`

	// BaseURLExclusions lists substrings that mark a base URL as internal-only
	// (never emitted into proxied links).
	BaseURLExclusions []string `yaml:"base_url_exclusions"`

	// ProxyVerifyTLS enables certificate verification on proxied manifest and
	// media fetches. Off by default: many catalog CDNs serve junk certificates
	// and the target URL space is limited to registry-listed sources.
	ProxyVerifyTLS bool `yaml:"proxy_verify_tls"`

	// OutboundRPS caps outbound requests per second across all sources.
	// Zero means unlimited.
	OutboundRPS int `yaml:"outbound_rps"`

	Server   ServerConfig   `yaml:"server"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Sources  []SourceConfig `yaml:"sources"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// TimeoutConfig holds per-operation timeouts in whole seconds.
type TimeoutConfig struct {
	SearchSeconds int `yaml:"search_seconds"`
	DetailSeconds int `yaml:"detail_seconds"`
	ProxySeconds  int `yaml:"proxy_seconds"`
	ProbeSeconds  int `yaml:"probe_seconds"`
}

func (t TimeoutConfig) Search() time.Duration { return time.Duration(t.SearchSeconds) * time.Second }
func (t TimeoutConfig) Detail() time.Duration { return time.Duration(t.DetailSeconds) * time.Second }
func (t TimeoutConfig) Proxy() time.Duration  { return time.Duration(t.ProxySeconds) * time.Second }
func (t TimeoutConfig) Probe() time.Duration  { return time.Duration(t.ProbeSeconds) * time.Second }

// SourceConfig describes one catalog API endpoint. Order matters: search
// results are merged in the order sources appear here.
type SourceConfig struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	API  string `yaml:"api"`

	// InsecureSkipVerify disables certificate verification for this source's
	// catalog calls. Verification is on unless explicitly disabled.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	// Set defaults if not provided
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Timeouts.SearchSeconds == 0 {
		config.Timeouts.SearchSeconds = 10
	}

	if config.Timeouts.DetailSeconds == 0 {
		config.Timeouts.DetailSeconds = 15
	}

	if config.Timeouts.ProxySeconds == 0 {
		config.Timeouts.ProxySeconds = 30
	}

	if config.Timeouts.ProbeSeconds == 0 {
		config.Timeouts.ProbeSeconds = 3
	}

	if config.BaseURLExclusions == nil {
		config.BaseURLExclusions = []string{"localhost", "apiserver"}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}

	seenKeys := make(map[string]bool)
	seenNames := make(map[string]bool)
	for i, src := range c.Sources {
		if src.Key == "" {
			return fmt.Errorf("source %d: key is required", i)
		}
		if src.Name == "" {
			return fmt.Errorf("source %q: name is required", src.Key)
		}
		if !strings.HasPrefix(src.API, "http://") && !strings.HasPrefix(src.API, "https://") {
			return fmt.Errorf("source %q: api must be an absolute http(s) URL, got %q", src.Key, src.API)
		}
		if seenKeys[src.Key] {
			return fmt.Errorf("duplicate source key %q", src.Key)
		}
		if seenNames[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seenKeys[src.Key] = true
		seenNames[src.Name] = true
	}

	return nil
}
