// Package config provides configuration loading for the formforge server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Fields FieldsConfig `yaml:"fields"`
}

// ServerConfig configures the HTTP listener and database.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`
	// DSN is the SQLite data source name.
	DSN string `yaml:"dsn"`
	// Editors are the actors granted edit access to every form.
	Editors []string `yaml:"editors"`
}

// FieldsConfig configures field editing behavior.
type FieldsConfig struct {
	// AllowedExtraClasses, when non-empty, restricts the CSS classes a
	// field's ExtraClass may use. Passed into the field lifecycle at
	// startup; there is no process-global registry.
	AllowedExtraClasses []string `yaml:"allowed_extra_classes"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			DSN:     "file:formforge.db?_pragma=foreign_keys(1)",
			Editors: []string{"admin"},
		},
	}
}

// Load reads a YAML config file, layering it over the defaults. A missing
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.DSN == "" {
		return fmt.Errorf("server.dsn is required")
	}
	return nil
}
