// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including the HTTP address, log level, settings storage backend, managed
// configuration file and diagnostics queue size.
package config
