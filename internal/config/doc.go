// Package config provides configuration management for dstask.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Overrides from a .env file and DSTASK_* environment variables
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Polls once per second
//	// Session cache enabled at ~/.config/dstask/session.json
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // A missing file yields defaults; only malformed files fail
//	}
//
// The format is chosen by extension: .yaml and .yml are YAML, anything
// else is JSON.
//
// # Environment
//
//	err := settings.ApplyEnv(".env")
//
// Variables: DSTASK_HOST, DSTASK_ACCOUNT, DSTASK_INSECURE,
// DSTASK_CACHE_SESSION, DSTASK_SESSION_FILE, DSTASK_OP_ITEM,
// DSTASK_OP_VAULT, DSTASK_POLL_INTERVAL, DSTASK_DESTINATION.
//
// Secrets are never read from configuration; they come from the
// credential provider or an interactive prompt.
package config
