// Package config handles configuration parsing for ddns-setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/validate"
	"github.com/acolita/ddns-setup/internal/wizard"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "DDNS_SETUP_"

// DefaultConfigPath returns the default config file path:
// $XDG_CONFIG_HOME/ddns-setup/config.yaml or ~/.config/ddns-setup/config.yaml
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ddns-setup", "config.yaml")
}

// Config represents the top-level configuration.
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Secrets  SecretsConfig  `yaml:"-"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// DefaultsConfig prefills the non-secret wizard fields.
type DefaultsConfig struct {
	ProviderEmail  string `yaml:"provider_email" env:"PROVIDER_EMAIL"`
	ProviderZone   string `yaml:"provider_zone" env:"PROVIDER_ZONE"`
	ProviderDNS    string `yaml:"provider_dns" env:"PROVIDER_DNS"`
	ServerAddress  string `yaml:"server_address" env:"SERVER_ADDRESS"`
	ServerPort     int    `yaml:"server_port" env:"SERVER_PORT"`
	ServerUsername string `yaml:"server_username" env:"SERVER_USERNAME"`
	AuthMethod     string `yaml:"auth_method" env:"AUTH_METHOD"` // "password" or "key"
	KeyPath        string `yaml:"key_path" env:"KEY_PATH"`       // private key file loaded into the key field
}

// SecretsConfig is read from the environment only and never written back.
type SecretsConfig struct {
	ProviderToken  string `env:"PROVIDER_TOKEN"`
	ServerPassword string `env:"SERVER_PASSWORD"`
}

// OutputConfig controls where the payload is written.
type OutputConfig struct {
	Path   string `yaml:"path" env:"OUTPUT"` // empty means stdout
	Indent bool   `yaml:"indent" env:"OUTPUT_INDENT"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"` // "debug", "info", "warn", "error"
	Sanitize bool   `yaml:"sanitize" env:"LOG_SANITIZE"`
}

// SecurityConfig defines credential storage settings.
type SecurityConfig struct {
	UseKeyring bool `yaml:"use_keyring" env:"USE_KEYRING"` // prefill and remember secrets via the OS keyring
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Indent: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Sanitize: true,
		},
	}
}

// Load loads configuration from a YAML file.
// An optional FileSystem can be passed for testing; if omitted, the real OS is used.
func Load(path string, fsys ...ports.FileSystem) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	var data []byte
	var err error
	if len(fsys) > 0 && fsys[0] != nil {
		data, err = fsys[0].ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads the given .env files (or ./.env) into the process
// environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overlays DDNS_SETUP_* variables onto cfg. Variables that are not
// set leave the current value alone. A nil environ reads the process
// environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Validate checks the configuration and fills in omitted settings.
func (c *Config) Validate() error {
	if c.Defaults.AuthMethod != "" {
		if _, err := wizard.ParseAuthMethod(c.Defaults.AuthMethod); err != nil {
			return fmt.Errorf("defaults.auth_method: %w", err)
		}
	}

	if c.Defaults.ServerPort != 0 && !validate.Port(c.Defaults.ServerPort) {
		return fmt.Errorf("defaults.server_port: %d is out of range", c.Defaults.ServerPort)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	case "":
		c.Logging.Level = "info"
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}

	return nil
}

// Save writes the configuration to a YAML file. Secrets are never written.
// An optional FileSystem can be passed for testing; if omitted, the real OS is used.
func Save(cfg *Config, path string, fsys ...ports.FileSystem) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if len(fsys) > 0 && fsys[0] != nil {
		if err := fsys[0].MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		return fsys[0].WriteFile(path, data, 0644)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// SaveDefaults replaces the defaults section of the config file at path and
// leaves the rest of the file as it was. Environment and flag overrides are
// not persisted because the file is re-read first. An empty KeyPath keeps
// the one already on file.
func SaveDefaults(path string, d DefaultsConfig, fsys ...ports.FileSystem) error {
	if path == "" {
		return fmt.Errorf("save defaults: no config path")
	}

	cfg, err := Load(path, fsys...)
	if err != nil {
		return err
	}

	if d.KeyPath == "" {
		d.KeyPath = cfg.Defaults.KeyPath
	}
	cfg.Defaults = d

	return Save(cfg, path, fsys...)
}
