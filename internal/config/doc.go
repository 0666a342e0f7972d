// Package config provides configuration management for gopherscan.
//
// Configuration comes from three layers, lowest precedence first:
// built-in defaults, the optional .gopherscan YAML file with per-server
// overrides, and CLI flags. The Config struct is populated once at
// startup, validated, and passed through the application by dependency
// injection; there is no global configuration state.
//
// XDG base directories locate the database and download directories.
package config
