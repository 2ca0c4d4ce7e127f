// Package config handles configuration management for winbackup.
// It layers embedded defaults, platform defaults, an optional TOML file and
// WINBACKUP_ environment variables; command-line flags are applied by the
// caller on top of the loaded Config.
package config
