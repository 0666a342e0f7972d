package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "10s" or "1m30s"
// parse with time.ParseDuration syntax.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig holds per-server settings for a single Gopher server.
// This allows customizing crawl behavior per target.
type ServerConfig struct {
	// Port overrides the default port for this server.
	// If zero, the global port is used.
	Port int `yaml:"port,omitempty"`

	// RootSelector overrides the starting selector for this server.
	RootSelector string `yaml:"rootSelector,omitempty"`

	// MaxDepth overrides the global recursion bound for this server.
	// If zero, the global MaxDepth is used.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// Timeout overrides the global fetch timeout for this server.
	// If zero, the global Timeout is used.
	Timeout Duration `yaml:"timeout,omitempty"`
}

// File represents the structure of the .gopherscan configuration file.
type File struct {
	// Servers maps host names to their per-server configurations.
	// Keys are bare host names without a port (e.g., "gopher.example.org").
	Servers map[string]ServerConfig `yaml:"servers,omitempty"`

	// Defaults contains default server configuration applied to all
	// servers unless overridden in the server-specific configuration.
	Defaults ServerConfig `yaml:"defaults,omitempty"`
}

// GetServerConfig returns the configuration for a specific host.
// It merges the server-specific configuration over the defaults.
func (cf *File) GetServerConfig(host string) ServerConfig {
	result := cf.Defaults

	if serverConfig, ok := cf.Servers[host]; ok {
		if serverConfig.Port != 0 {
			result.Port = serverConfig.Port
		}
		if serverConfig.RootSelector != "" {
			result.RootSelector = serverConfig.RootSelector
		}
		if serverConfig.MaxDepth != 0 {
			result.MaxDepth = serverConfig.MaxDepth
		}
		if serverConfig.Timeout != 0 {
			result.Timeout = serverConfig.Timeout
		}
	}

	return result
}
