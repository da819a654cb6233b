// ABOUTME: Application configuration for contactmerge
// ABOUTME: Loads the JSON config from XDG paths, applies defaults and validates it

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/harperreed/contactmerge/merge"
	"github.com/joho/godotenv"
)

const (
	// AppName names the config, data and Charm KV directories.
	AppName = "contactmerge"

	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// ConfigFileName is where we store local config.
	ConfigFileName = "config.json"
)

// Config holds user settings.
type Config struct {
	// Host is the charm server hostname used for snapshot sync.
	Host string `json:"host,omitempty" validate:"omitempty,hostname_rfc1123"`

	// AutoSync pushes snapshots to the charm server after every write.
	AutoSync bool `json:"auto_sync"`

	// Workers bounds concurrent merge planning; 0 means one per CPU.
	Workers int `json:"workers,omitempty" validate:"gte=0,lte=64"`

	PhoneLabel string `json:"phone_label,omitempty" validate:"omitempty,max=32"`
	EmailLabel string `json:"email_label,omitempty" validate:"omitempty,max=32"`

	// NationalPrefix replaces the leading 0 of national phone numbers.
	NationalPrefix string `json:"national_prefix,omitempty" validate:"omitempty,startswith=+,numeric,max=5"`

	// ExtraStopWords are removed from addresses on top of the built-in list.
	ExtraStopWords []string `json:"extra_stop_words,omitempty" validate:"dive,required,max=32"`
}

var validate = validator.New()

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     DefaultCharmHost,
		AutoSync: true,
	}
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// Load reads the config at path, or Path() when path is empty. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Apply defaults for missing fields
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save persists the config to path, or Path() when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Rules returns the merge rules with the user's overrides applied.
func (c *Config) Rules() *merge.Rules {
	rules := merge.FrenchRules()
	if len(c.ExtraStopWords) > 0 {
		rules = rules.WithStopWords(c.ExtraStopWords...)
	}
	if c.NationalPrefix != "" {
		rules.NationalPrefix = c.NationalPrefix
	}
	if c.PhoneLabel != "" {
		rules.PhoneLabel = c.PhoneLabel
	}
	if c.EmailLabel != "" {
		rules.EmailLabel = c.EmailLabel
	}
	return rules
}

// Engine builds a merge engine from Rules.
func (c *Config) Engine() *merge.Engine {
	return merge.New(c.Rules())
}

// LoadEnv loads .env files into the environment. Missing files are
// skipped; with no arguments it reads ./.env and the one next to the config.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join(xdg.ConfigHome, AppName, ".env")}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
