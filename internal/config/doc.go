// Package config loads and validates relay configuration from YAML files,
// with ${VAR} environment-variable expansion and defaults for every optional
// field.
package config
