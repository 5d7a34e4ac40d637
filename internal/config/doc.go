// Package config handles YAML and TOML configuration loading with environment
// variable substitution.
//
// The format is chosen by file extension (.yaml, .yml, .toml). Files support
// ${VAR} syntax for environment variable interpolation, which is the usual way
// to supply the app key, credentials and database password.
package config
