// Package config loads and validates the TOML configuration file that drives
// the callboard daemon and CLI.
package config
