// Package config loads, validates, and normalizes fieldsync configuration
// from TOML. Defaults live in defaults.go; Load layers a config file over
// them, expands ~ paths, and validates the result.
package config
