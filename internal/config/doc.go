// Package config loads, normalizes, and validates jhove2 configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML files, and honours environment overrides such as
// JHOVE2_FAIL_FAST. Config is read once per run and treated as immutable
// afterwards; the framework copies what it needs into its own settings.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical enum values, and clear validation errors.
package config
